package session

import (
	"context"
	"testing"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
	"scenecheck/internal/scene/memscene"
)

type okCheck struct {
	id    string
	calls int
}

func (c *okCheck) ID() string          { return c.id }
func (c *okCheck) Label() string       { return c.id }
func (c *okCheck) Description() string { return "" }
func (c *okCheck) SupportsFix() bool   { return false }

func (c *okCheck) Detect(scene.Accessor) ([]diag.Issue, error) {
	c.calls++
	return nil, nil
}

func (c *okCheck) Fix(scene.Accessor, diag.Issue) (check.FixResult, error) {
	return check.FixResult{}, check.ErrUnfixable
}

func (c *okCheck) Select(sc scene.Accessor, is diag.Issue) check.SelectResult {
	return check.SelectTargets(sc, is)
}

func TestRunLockedReportsLifecycleRefusal(t *testing.T) {
	stuck := &okCheck{id: "stuck"}
	other := &okCheck{id: "other"}
	reg, err := check.NewRegistry(stuck, other)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	s, err := New(reg, memscene.New(), Options{})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	ctx := context.Background()
	if err := s.states["stuck"].life.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if _, err := s.RunOne(ctx, "stuck"); err == nil {
		t.Fatalf("expected RunOne to report the refused transition")
	}
	if stuck.calls != 0 {
		t.Fatalf("detect must not run when the check cannot start")
	}

	snap, err := s.RunAll(ctx)
	if err != nil {
		t.Fatalf("RunAll should skip the refused check, got %v", err)
	}
	if cs, _ := snap.Check("other"); cs.Status != check.StatusOK || other.calls != 1 {
		t.Fatalf("other checks must still run: %+v", cs)
	}
	if cs, _ := snap.Check("stuck"); cs.Status != check.StatusRunning || stuck.calls != 0 {
		t.Fatalf("refused check should be untouched: %+v", cs)
	}
}
