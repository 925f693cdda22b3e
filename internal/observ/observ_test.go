package observ

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTimerMeasure(t *testing.T) {
	timer := NewTimer()
	_ = timer.Measure("load", func() error { return nil })
	err := timer.Measure("save", func() error { return errors.New("disk full") })
	if err == nil {
		t.Fatalf("expected error to pass through")
	}
	phases := timer.Phases()
	if len(phases) != 2 || phases[0].Name != "load" {
		t.Fatalf("unexpected phases %+v", phases)
	}
	if phases[1].Err != "disk full" {
		t.Fatalf("unexpected error text %q", phases[1].Err)
	}
	summary := timer.Summary()
	if !strings.HasPrefix(summary, "timings:\n") || !strings.Contains(summary, "failed: disk full") || !strings.Contains(summary, "total") {
		t.Fatalf("unexpected summary:\n%s", summary)
	}
}

func TestNilTimerAndMetrics(t *testing.T) {
	var timer *Timer
	ran := false
	if err := timer.Measure("x", func() error { ran = true; return nil }); err != nil || !ran {
		t.Fatalf("nil timer must still run the phase")
	}
	if len(timer.Phases()) != 0 || timer.Total() != 0 {
		t.Fatalf("nil timer should record nothing")
	}
	var m *Metrics
	m.RecordRun("naming", "OK", time.Millisecond, 0, 0)
	m.RecordFix("naming", FixApplied)
}

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()
	m.RecordRun("naming", "ERROR", 2*time.Millisecond, 1, 3)
	m.RecordRun("naming", "OK", time.Millisecond, 0, 0)
	m.RecordFix("naming", FixApplied)

	if got := testutil.ToFloat64(m.runs.WithLabelValues("naming", "ERROR")); got != 1 {
		t.Fatalf("expected 1 ERROR run, got %v", got)
	}
	if got := testutil.ToFloat64(m.issues.WithLabelValues("naming", "error")); got != 0 {
		t.Fatalf("issue gauge should reflect the latest run, got %v", got)
	}
	if got := testutil.ToFloat64(m.fixes.WithLabelValues("naming", FixApplied)); got != 1 {
		t.Fatalf("expected 1 applied fix, got %v", got)
	}
}
