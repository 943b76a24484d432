package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("init output = %q, want the written path", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	_, err = execute(t, "config", "init", "--config", path)
	if !errors.Is(err, errConfigExists) {
		t.Errorf("second init error = %v, want errConfigExists", err)
	}

	if _, err := execute(t, "config", "init", "--config", path, "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}

	out, err = execute(t, "config", "show", "--config", path)
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"# " + path, "version: 1", "welcome_timeout: 5s"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigShow_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("version: 7\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "config", "show", "--config", path); err == nil {
		t.Error("config show should reject an unsupported version")
	}
}

func TestLocalAddress_InvalidTarget(t *testing.T) {
	if _, err := execute(t, "local-address", "--target", "not-an-ip"); err == nil {
		t.Error("local-address should reject an invalid target")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "provisionctl ") {
		t.Errorf("version output = %q", out)
	}
}
