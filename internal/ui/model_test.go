package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"scenecheck/internal/check"
	"scenecheck/internal/checks"
	"scenecheck/internal/config"
	"scenecheck/internal/scene/memscene"
	"scenecheck/internal/session"
)

func newTestModel(t *testing.T) (*Model, *session.Session) {
	t.Helper()
	reg, err := checks.Build(config.Default())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	s, err := session.New(reg, memscene.ReelDisaster(), session.Options{})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	m := NewModel(context.Background(), s, nil, Options{Title: "reel"})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, s
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key. When the key starts a session command, the command is
// executed and its result fed back, the way the Bubble Tea runtime would.
func press(t *testing.T, m *Model, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil || m.busy == "" {
		return
	}
	m.Update(cmd())
}

func rowIndex(m *Model, match func(row) bool) int {
	for i, r := range m.rows {
		if match(r) {
			return i
		}
	}
	return -1
}

func TestInitialViewWaits(t *testing.T) {
	m, _ := newTestModel(t)
	if len(m.rows) != 5 {
		t.Fatalf("expected one row per check, got %d", len(m.rows))
	}
	view := m.View()
	if !strings.Contains(view, "reel") || !strings.Contains(view, "WAIT") {
		t.Fatalf("unexpected initial view:\n%s", view)
	}
}

func TestRunAllThenFix(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, runes("r"))
	if m.snap.Aggregate != check.StatusError {
		t.Fatalf("expected ERROR after run, got %s", m.snap.Aggregate)
	}
	if !strings.Contains(m.message, "run finished: ERROR") {
		t.Fatalf("unexpected message %q", m.message)
	}

	idx := rowIndex(m, func(r row) bool { return r.kind == rowIssue && r.check.ID == checks.IDNaming })
	if idx < 0 {
		t.Fatalf("naming issue row missing")
	}
	for m.cursor < idx {
		press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	press(t, m, runes("f"))
	if m.isError || !strings.HasPrefix(m.message, "fixed:") {
		t.Fatalf("expected a fix message, got %q (error=%v)", m.message, m.isError)
	}
	cs, _ := m.snap.Check(checks.IDNaming)
	if cs.Status != check.StatusOK {
		t.Fatalf("naming should be OK after the fix, got %s", cs.Status)
	}
	if !strings.Contains(m.View(), "OK") {
		t.Fatalf("view should show the OK check")
	}
}

func TestFixOnManualIssueShowsRejection(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, runes("r"))
	idx := rowIndex(m, func(r row) bool { return r.kind == rowIssue && r.check.ID == checks.IDKeyRange })
	if idx < 0 {
		t.Fatalf("key range issue row missing")
	}
	m.cursor = idx
	press(t, m, runes("f"))
	if !m.isError || !strings.Contains(m.message, "not fixable") {
		t.Fatalf("expected an unfixable rejection, got %q", m.message)
	}
}

func TestFixRequiresIssueRow(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, runes("r"))
	m.cursor = 0
	press(t, m, runes("f"))
	if m.message != "move to an issue to fix it" {
		t.Fatalf("unexpected message %q", m.message)
	}
}

func TestSelectReportsNodes(t *testing.T) {
	m, s := newTestModel(t)
	press(t, m, runes("r"))
	m.cursor = rowIndex(m, func(r row) bool { return r.kind == rowIssue && r.check.ID == checks.IDCameraClip })
	press(t, m, runes("s"))
	if !strings.HasPrefix(m.message, "selected ") {
		t.Fatalf("unexpected message %q", m.message)
	}
	sc := s.Scene().(*memscene.Scene)
	if len(sc.Selection()) == 0 {
		t.Fatalf("expected nodes selected in the scene")
	}
}

func TestRunOneRerunsCurrentCheck(t *testing.T) {
	m, _ := newTestModel(t)
	m.cursor = rowIndex(m, func(r row) bool { return r.check.ID == checks.IDTimeUnit })
	press(t, m, runes("R"))
	cs, _ := m.snap.Check(checks.IDTimeUnit)
	if cs.Status != check.StatusError || cs.Runs != 1 {
		t.Fatalf("expected one ERROR run, got %s after %d run(s)", cs.Status, cs.Runs)
	}
	other, _ := m.snap.Check(checks.IDNaming)
	if other.Status != check.StatusWait {
		t.Fatalf("other checks must not run, naming is %s", other.Status)
	}
}

func TestFilter(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, runes("r"))
	press(t, m, runes("/"))
	if !m.filtering {
		t.Fatalf("expected filter mode")
	}
	for _, r := range "camera" {
		press(t, m, runes(string(r)))
	}
	press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.filtering {
		t.Fatalf("enter should leave filter mode")
	}
	for _, r := range m.rows {
		if r.check.ID != checks.IDCameraClip && r.check.ID != checks.IDImagePlane {
			t.Fatalf("unexpected row for %s", r.check.ID)
		}
	}
	if rowIndex(m, func(r row) bool { return r.check.ID == checks.IDCameraClip }) < 0 {
		t.Fatalf("camera check should match")
	}

	press(t, m, runes("/"))
	press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.rows) <= 5 {
		t.Fatalf("esc should clear the filter, got %d rows", len(m.rows))
	}
}

func TestSnapshotsFromSinkAreOrdered(t *testing.T) {
	m, _ := newTestModel(t)
	newer := session.Snapshot{Seq: 10, Aggregate: check.StatusOK}
	older := session.Snapshot{Seq: 4, Aggregate: check.StatusError}
	m.Update(snapshotMsg(newer))
	m.Update(snapshotMsg(older))
	if m.snap.Seq != 10 || m.snap.Aggregate != check.StatusOK {
		t.Fatalf("older snapshot replaced a newer one: %+v", m.snap)
	}
}

func TestBusyIgnoresSecondCommand(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(runes("r"))
	if cmd == nil {
		t.Fatalf("expected a run command")
	}
	_, second := m.Update(runes("r"))
	if second != nil || !strings.HasPrefix(m.message, "busy") {
		t.Fatalf("second run should be refused while busy, message %q", m.message)
	}
	m.Update(cmd())
	if m.busy != "" {
		t.Fatalf("busy flag not cleared")
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
