package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if Resolved() == "" {
		t.Error("Resolved() should not be empty")
	}
}

func TestResolvedPrefersLdflags(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v9.9.9"
	if got := Resolved(); got != "v9.9.9" {
		t.Errorf("Resolved() = %q, want v9.9.9", got)
	}
	if !strings.HasPrefix(String(), "docversions v9.9.9 (commit ") {
		t.Errorf("unexpected String(): %q", String())
	}
}

func TestBuildInfo(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}
	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}
