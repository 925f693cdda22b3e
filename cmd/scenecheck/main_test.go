package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"scenecheck/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if err != nil {
		return -1
	}
	return 0
}

func demoScene(t *testing.T) (dir, scene string) {
	t.Helper()
	dir = t.TempDir()
	if _, err := execute(t, "init", dir); err != nil {
		t.Fatalf("init: %v", err)
	}
	scene = filepath.Join(dir, "reel.yaml")
	if _, err := execute(t, "demo", scene); err != nil {
		t.Fatalf("demo: %v", err)
	}
	return dir, scene
}

func TestCheckReportsAndExitsNonZero(t *testing.T) {
	_, scene := demoScene(t)
	out, err := execute(t, "check", "--suggest", scene)
	if exitCode(err) != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
	for _, want := range []string{"ERROR   Naming: illegal characters (naming)", "fix: Rename to", "ERROR: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCheckOnlyAndJSON(t *testing.T) {
	_, scene := demoScene(t)
	out, err := execute(t, "check", "--format", "json", "--only", "naming", scene)
	if exitCode(err) != 1 {
		t.Fatalf("expected exit status 1, got %v", err)
	}
	var doc struct {
		Aggregate string `json:"aggregate"`
		Counts    struct {
			Checks int `json:"checks"`
			Errors int `json:"errors"`
		} `json:"counts"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if doc.Counts.Checks != 1 || doc.Counts.Errors != 1 {
		t.Fatalf("unexpected counts: %+v", doc.Counts)
	}

	if _, err := execute(t, "check", "--only", "lights", scene); err == nil || exitCode(err) != -1 {
		t.Fatalf("expected an error for an unknown check, got %v", err)
	}
}

func TestFixAllThenCheck(t *testing.T) {
	_, scene := demoScene(t)
	out, err := execute(t, "fix", "--all", scene)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(out, "Applied 4 fix(es):") || !strings.Contains(out, "Skipped fixes:") {
		t.Fatalf("unexpected fix output:\n%s", out)
	}

	if _, err := execute(t, "check", "--skip", "key_range", scene); err != nil {
		t.Fatalf("expected a clean scene after fixes, got %v", err)
	}
}

func TestFixDryRunKeepsScene(t *testing.T) {
	_, scene := demoScene(t)
	out, err := execute(t, "fix", "--dry-run", "--all", scene)
	if err != nil {
		t.Fatalf("fix: %v", err)
	}
	if !strings.Contains(out, "Would apply 4 fix(es):") {
		t.Fatalf("unexpected dry-run output:\n%s", out)
	}
	if _, err := execute(t, "check", "--only", "naming", scene); exitCode(err) != 1 {
		t.Fatalf("dry run must not change the scene, got %v", err)
	}
}

func TestFixFlagConflicts(t *testing.T) {
	_, scene := demoScene(t)
	if _, err := execute(t, "fix", "--all", "--once", scene); err == nil {
		t.Fatalf("expected --all/--once conflict")
	}
	if _, err := execute(t, "fix", "--id", "x", "--all", scene); err == nil {
		t.Fatalf("expected --id/--all conflict")
	}
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, config.FileName) {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := execute(t, "init", dir); err == nil {
		t.Fatalf("second init should fail")
	}
}

func TestListFilter(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "list", "--filter", "camera", dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "camera_clip") || !strings.Contains(out, "image_plane") || strings.Contains(out, "naming") {
		t.Fatalf("unexpected list output:\n%s", out)
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json", "--full")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload.Tool != "scenecheck" || payload.Version == "" || payload.GitCommit == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, "on": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Errorf("expected an error for an invalid mode")
	}
	if _, err := readColor("rainbow"); err == nil {
		t.Errorf("expected an error for an invalid color mode")
	}
}
