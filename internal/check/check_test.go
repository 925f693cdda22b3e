package check

import (
	"context"
	"errors"
	"testing"

	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
	"scenecheck/internal/scene/memscene"
)

type stubCheck struct {
	id      string
	fixable bool
	detect  func(sc scene.Accessor) ([]diag.Issue, error)
	fixed   int
}

func (s *stubCheck) ID() string          { return s.id }
func (s *stubCheck) Label() string       { return "stub " + s.id }
func (s *stubCheck) Description() string { return "" }
func (s *stubCheck) SupportsFix() bool   { return s.fixable }

func (s *stubCheck) Detect(sc scene.Accessor) ([]diag.Issue, error) {
	return s.detect(sc)
}

func (s *stubCheck) Fix(scene.Accessor, diag.Issue) (FixResult, error) {
	s.fixed++
	return FixResult{Changed: true}, nil
}

func (s *stubCheck) Select(sc scene.Accessor, is diag.Issue) SelectResult {
	return SelectTargets(sc, is)
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	var seen []Status
	l := NewLifecycle(func(_, to Status) { seen = append(seen, to) })

	if l.Current() != StatusWait {
		t.Fatalf("expected WAIT, got %s", l.Current())
	}
	if err := l.Settle(ctx, StatusOK); err == nil {
		t.Fatalf("expected settle from WAIT to fail")
	}
	if err := l.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := l.Begin(ctx); err == nil {
		t.Fatalf("expected begin while RUNNING to fail")
	}
	if err := l.Settle(ctx, StatusError); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if err := l.Begin(ctx); err != nil {
		t.Fatalf("re-run from ERROR: %v", err)
	}
	if err := l.Settle(ctx, StatusRunning); err == nil {
		t.Fatalf("expected non-terminal settle to fail")
	}
	if err := l.Settle(ctx, StatusFailed); err != nil {
		t.Fatalf("settle failed: %v", err)
	}

	want := []Status{StatusRunning, StatusError, StatusRunning, StatusFailed}
	if len(seen) != len(want) {
		t.Fatalf("expected transitions %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transition %d: want %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestLifecycleSettlesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLifecycle(nil)
	if err := l.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	cancel()
	if err := l.Settle(ctx, StatusOK); err != nil {
		t.Fatalf("settle after cancel: %v", err)
	}
	if l.Current() != StatusOK {
		t.Fatalf("expected OK, got %s", l.Current())
	}
	if err := l.Begin(ctx); err != nil {
		t.Fatalf("begin with a canceled context: %v", err)
	}
	if l.Current() != StatusRunning {
		t.Fatalf("expected RUNNING, got %s", l.Current())
	}
}

func TestAggregate(t *testing.T) {
	cases := []struct {
		in   []Status
		want Status
	}{
		{nil, StatusOK},
		{[]Status{StatusOK, StatusOK}, StatusOK},
		{[]Status{StatusOK, StatusWait}, StatusWait},
		{[]Status{StatusWait, StatusFailed}, StatusError},
		{[]Status{StatusOK, StatusOK, StatusOK, StatusOK, StatusError}, StatusError},
		{[]Status{StatusRunning, StatusOK}, StatusWait},
	}
	for _, tc := range cases {
		if got := Aggregate(tc.in); got != tc.want {
			t.Errorf("Aggregate(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestEvaluateDerivesStatus(t *testing.T) {
	sc := memscene.New()

	ok := &stubCheck{id: "ok", detect: func(scene.Accessor) ([]diag.Issue, error) { return nil, nil }}
	if res := Evaluate(ok, sc); res.Status != StatusOK || len(res.Issues) != 0 {
		t.Fatalf("expected OK without issues, got %+v", res)
	}

	flagged := &stubCheck{id: "flagged", detect: func(scene.Accessor) ([]diag.Issue, error) {
		return []diag.Issue{diag.ReportError(nil, "flagged", "bad", "n1").Issue()}, nil
	}}
	if res := Evaluate(flagged, sc); res.Status != StatusError || len(res.Issues) != 1 {
		t.Fatalf("expected ERROR with one issue, got %+v", res)
	}

	failing := &stubCheck{id: "failing", detect: func(scene.Accessor) ([]diag.Issue, error) {
		return nil, Failf("failing", "no camera in scene")
	}}
	res := Evaluate(failing, sc)
	if res.Status != StatusFailed || res.Reason != "no camera in scene" || len(res.Issues) != 0 {
		t.Fatalf("expected FAILED with reason, got %+v", res)
	}

	panicking := &stubCheck{id: "panicking", detect: func(scene.Accessor) ([]diag.Issue, error) {
		panic("boom")
	}}
	res = Evaluate(panicking, sc)
	if res.Status != StatusFailed || res.Reason == "" {
		t.Fatalf("expected FAILED after panic, got %+v", res)
	}
}

func TestApplyFixRejectsUnfixable(t *testing.T) {
	sc := memscene.New()
	c := &stubCheck{id: "naming", fixable: true}

	manual := diag.ReportError(nil, "naming", "duplicate name", "n1").ManualFix("rename by hand").Issue()
	if _, err := ApplyFix(c, sc, manual); !errors.Is(err, ErrUnfixable) {
		t.Fatalf("expected ErrUnfixable, got %v", err)
	}
	if c.fixed != 0 {
		t.Fatalf("fix must not be called for unfixable issues")
	}

	detectOnly := &stubCheck{id: "keys"}
	is := diag.ReportWarning(nil, "keys", "key outside", "c1").WithFix("trim", "").Issue()
	if _, err := ApplyFix(detectOnly, sc, is); !errors.Is(err, ErrUnfixable) {
		t.Fatalf("expected ErrUnfixable for detect-only check, got %v", err)
	}

	foreign := diag.ReportError(nil, "other", "bad", "n1").WithFix("x", "y").Issue()
	if _, err := ApplyFix(c, sc, foreign); err == nil || errors.Is(err, ErrUnfixable) {
		t.Fatalf("expected ownership error, got %v", err)
	}

	fixable := diag.ReportError(nil, "naming", "bad", "n1").WithFix("rename", "n1_").Issue()
	res, err := ApplyFix(c, sc, fixable)
	if err != nil || !res.Changed || c.fixed != 1 {
		t.Fatalf("expected fix to run, got res=%+v err=%v fixed=%d", res, err, c.fixed)
	}
}

func TestSelectTargetsSkipsDeletedNodes(t *testing.T) {
	sc := memscene.New()
	cube := sc.AddNode("cube", "transform", "", nil)
	sphere := sc.AddNode("sphere", "transform", "", nil)
	if err := sc.Select([]scene.Ref{sphere}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := sc.Delete(cube); err != nil {
		t.Fatalf("delete: %v", err)
	}

	is := diag.ReportError(nil, "naming", "bad", cube).Issue()
	res := SelectTargets(sc, is)
	if len(res.Selected) != 0 || len(res.Missing) != 1 || res.Reason == "" {
		t.Fatalf("expected no-op selection with reason, got %+v", res)
	}
	if sel := sc.Selection(); len(sel) != 1 || sel[0] != sphere {
		t.Fatalf("selection must be left untouched, got %v", sel)
	}
}

func TestRegistry(t *testing.T) {
	a := &stubCheck{id: "a"}
	b := &stubCheck{id: "b"}

	if _, err := NewRegistry(a, b, &stubCheck{id: "a"}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for duplicate id, got %v", err)
	}
	if _, err := NewRegistry(&stubCheck{id: " "}); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for empty id, got %v", err)
	}

	reg, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	if err := reg.Disable("a"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if enabled := reg.Enabled(); len(enabled) != 1 || enabled[0].ID() != "b" {
		t.Fatalf("unexpected enabled set: %v", enabled)
	}
	if reg.Len() != 2 {
		t.Fatalf("disabled checks must stay registered")
	}
	if err := reg.Enable("a"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !reg.IsEnabled("a") {
		t.Fatalf("expected a enabled")
	}
	if err := reg.Disable("missing"); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestOptions(t *testing.T) {
	opts := Options{
		"min":      int64(1),
		"name":     "x",
		"flag":     true,
		"suffixes": []any{"_GEO", "_CTRL"},
		"extra":    1.5,
	}
	if v, err := opts.Float("min"); err != nil || v != 1 {
		t.Fatalf("Float: %v %v", v, err)
	}
	if _, err := opts.Float("name"); err == nil {
		t.Fatalf("expected type error")
	}
	if _, err := opts.String("missing"); err == nil {
		t.Fatalf("expected missing error")
	}
	if v, err := opts.Strings("suffixes"); err != nil || len(v) != 2 || v[1] != "_CTRL" {
		t.Fatalf("Strings: %v %v", v, err)
	}
	if v, err := opts.Bool("flag"); err != nil || !v {
		t.Fatalf("Bool: %v %v", v, err)
	}
	err := RequireKnown("camera_clip", opts, "min", "name", "flag", "suffixes")
	var fe *FailedError
	if !errors.As(err, &fe) || fe.Reason != "unrecognized option(s): extra" {
		t.Fatalf("expected unrecognized option failure, got %v", err)
	}
}
