package version

import (
	"strings"
	"testing"
)

func TestInitPopulatesFallbacks(t *testing.T) {
	// init has run by the time tests do; whatever the build environment,
	// both values must have fallen back to something non-empty
	if Version == "" {
		t.Error("Version should never be empty after init")
	}
	if Commit == "" {
		t.Error("Commit should never be empty after init")
	}
}

func TestShortHash(t *testing.T) {
	tests := []struct {
		revision string
		want     string
	}{
		{"0123456789abcdef0123456789abcdef01234567", "0123456"},
		{"0123456", "0123456"},
		{"abc", "abc"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := shortHash(tt.revision); got != tt.want {
			t.Errorf("shortHash(%q) = %q, want %q", tt.revision, got, tt.want)
		}
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Version) {
		t.Errorf("Full() = %q, should contain Version %q", full, Version)
	}
	if !strings.Contains(full, Commit) {
		t.Errorf("Full() = %q, should contain Commit %q", full, Commit)
	}
	if !strings.Contains(full, "commit:") {
		t.Errorf("Full() = %q, should carry the commit label", full)
	}
}
