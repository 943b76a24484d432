package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG layout only applies on linux")
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(xdg, "fritzprov"); dir != want {
		t.Errorf("GetConfigDir() = %v, want %v", dir, want)
	}

	path, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(path) != "config.yaml" {
		t.Errorf("GetConfigPath() = %v, want config.yaml", path)
	}
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.WelcomeTimeout != 5*time.Second {
		t.Errorf("WelcomeTimeout = %v, want 5s", cfg.WelcomeTimeout)
	}
	if cfg.RequestTimeout != 0 {
		t.Errorf("RequestTimeout = %v, want 0", cfg.RequestTimeout)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Address = "192.168.178.1"
	cfg.WelcomeTimeout = 12 * time.Second
	cfg.RequestTimeout = 30 * time.Second
	cfg.StrictStatus = true
	cfg.CheckAddress = true
	cfg.LogLevel = "debug"

	written, err := cfg.Save(path)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if written != path {
		t.Errorf("Save() path = %v, want %v", written, path)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be renamed away")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# fritzprov configuration") {
		t.Error("saved file should start with the header comment")
	}
	if !strings.Contains(string(data), "welcome_timeout: 12s") {
		t.Errorf("durations should be written as strings:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 1\naddress: 10.0.0.1\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Address != "10.0.0.1" {
		t.Errorf("Address = %q", cfg.Address)
	}
	if cfg.WelcomeTimeout != 5*time.Second {
		t.Errorf("WelcomeTimeout = %v, want default 5s", cfg.WelcomeTimeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unsupported version", "version: 2\n"},
		{"bad duration", "version: 1\nwelcome_timeout: soon\n"},
		{"zero welcome timeout", "version: 1\nwelcome_timeout: 0s\n"},
		{"unknown log level", "version: 1\nlog_level: chatty\n"},
		{"not yaml", "version: [1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() error = nil, want error for %q", tt.content)
			}
		})
	}
}

func TestSave_RejectsInvalid(t *testing.T) {
	cfg := Default()
	cfg.RequestTimeout = -time.Second
	if _, err := cfg.Save(filepath.Join(t.TempDir(), "config.yaml")); err == nil {
		t.Error("Save() should reject a negative request timeout")
	}
}
