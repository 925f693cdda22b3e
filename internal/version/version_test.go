package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestGet_DefaultValues(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestGet_TrimsAndDefaults(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	}()

	Version = "  "
	GitCommit = " abc123def456 \n"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Get()
	if info.Version != "dev" {
		t.Errorf("Version = %q, want %q", info.Version, "dev")
	}
	if info.GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q, want %q", info.GitCommit, "abc123def456")
	}
	if info.BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("BuildDate = %q, want %q", info.BuildDate, "2024-01-15T10:30:00Z")
	}
}

func TestColored(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	cases := map[string]string{
		"0.1.0-dev":            "0.1.0-dev",
		"1.2.3":                "1.2.3",
		"1.2.3-rc.1+build.123": "1.2.3-rc.1+build.123",
		"dev":                  "dev",
		"1.2":                  "1.2",
	}
	for in, want := range cases {
		if got := Colored(in); got != want {
			t.Errorf("Colored(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestColored_AddsEscapes(t *testing.T) {
	majorColor.EnableColor()
	defer majorColor.DisableColor()
	if got := Colored("1.2.3"); got == "1.2.3" {
		t.Errorf("expected escape codes around the major version, got %q", got)
	}
}
