package logger

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"Warning": zapcore.WarnLevel,
		"ERROR":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONLoggerWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	log, err := FromStrings("info", "json", &buf)
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	For(log, ComponentSession).Infow("check settled", "check", "naming")
	For(log, ComponentSession).Debugw("hidden")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, `"component":"Session"`) || !strings.Contains(out, `"check":"naming"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be filtered: %s", out)
	}
}

func TestForNilBase(t *testing.T) {
	For(nil, ComponentCLI).Info("discarded")
}
