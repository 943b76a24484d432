package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestFromSettings(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "", ""
	fromSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2025-03-04T10:00:00Z"},
	})

	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want 0123456-dirty", Commit)
	}
	if Version != "dev-20250304" {
		t.Errorf("Version = %q, want dev-20250304", Version)
	}
}

func TestFromSettings_KeepsLdflags(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	defer func() { Version, Commit = oldVersion, oldCommit }()

	Version, Commit = "v1.0.0", "abc1234"
	fromSettings([]debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffff"}})

	if Version != "v1.0.0" || Commit != "abc1234" {
		t.Errorf("got %s/%s, want ldflags values kept", Version, Commit)
	}
}

func TestFull(t *testing.T) {
	if !strings.Contains(Full(), Version) || !strings.Contains(Full(), "commit: ") {
		t.Errorf("Full() = %q", Full())
	}
}
