package diag

import (
	"testing"

	"scenecheck/internal/scene"
)

func TestBagCapAndDedup(t *testing.T) {
	bag := NewBag(2)

	ReportError(bag, "naming", "bad a", "a").WithFix("rename", "a_").Emit()
	ReportError(bag, "naming", "bad a", "a").Emit()
	ReportWarning(bag, "naming", "bad b", "b").Emit()
	ReportError(bag, "naming", "bad c", "c").Emit()

	if bag.Len() != 2 {
		t.Fatalf("expected 2 issues, got %d", bag.Len())
	}
	if bag.Dropped() != 1 {
		t.Fatalf("expected 1 dropped issue, got %d", bag.Dropped())
	}
	warnings, errs := bag.Counts()
	if warnings != 1 || errs != 1 {
		t.Fatalf("unexpected counts: warnings=%d errors=%d", warnings, errs)
	}
	if !bag.HasErrors() {
		t.Fatalf("expected HasErrors")
	}
}

func TestBagClampsLargeCap(t *testing.T) {
	bag := NewBag(1 << 20)
	if bag.Cap() != 65535 {
		t.Fatalf("expected clamped cap 65535, got %d", bag.Cap())
	}
	if NewBag(0).Cap() != 0 {
		t.Fatalf("expected unbounded bag")
	}
}

func TestBagItemsAreCopies(t *testing.T) {
	bag := NewBag(0)
	ReportError(bag, "naming", "bad", "a").Emit()

	items := bag.Items()
	items[0].Targets[0] = "mutated"

	if got := bag.Items()[0].Targets[0]; got != "a" {
		t.Fatalf("bag storage was mutated through Items(): %q", got)
	}
}

func TestIssueIDIsDeterministic(t *testing.T) {
	a := IssueID("naming", []scene.Ref{"n1"}, "illegal name")
	b := IssueID("naming", []scene.Ref{"n1"}, "illegal name")
	c := IssueID("naming", []scene.Ref{"n2"}, "illegal name")
	if a != b {
		t.Fatalf("ids differ for identical input: %s vs %s", a, b)
	}
	if a == c {
		t.Fatalf("ids collide for different targets")
	}
}

func TestFormatShort(t *testing.T) {
	issues := []Issue{
		ReportError(nil, "naming", "illegal characters\nin name", "L_arm").WithFix("rename", "L_arm_").Issue(),
		ReportWarning(nil, "key_range", "keys outside range", "curve1", "ctrl").Issue(),
	}
	expected := "error naming L_arm illegal characters in name [fixable]\n" +
		"warning key_range curve1,ctrl keys outside range"
	if got := FormatShort(issues); got != expected {
		t.Fatalf("unexpected short format:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestSeverityText(t *testing.T) {
	var sev Severity
	if err := sev.UnmarshalText([]byte("warning")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sev != SevWarning {
		t.Fatalf("expected SevWarning, got %v", sev)
	}
	if err := sev.UnmarshalText([]byte("fatal")); err == nil {
		t.Fatalf("expected error for unknown severity")
	}
}
