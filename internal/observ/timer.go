package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one measured step of a scenecheck command: reading the config,
// loading the scene, running the checks, applying fixes, saving the scene.
type Phase struct {
	Name string
	Dur  time.Duration
	// Err is the error text when the step failed.
	Err string
}

// Timer collects the phases of one command in the order they ran. A nil
// *Timer measures nothing, so callers never branch on --timings. It is safe
// for concurrent use.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

// NewTimer returns an empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 5)} }

// Measure runs fn and records it as the phase name. fn's error is returned unchanged.
func (t *Timer) Measure(name string, fn func() error) error {
	if t == nil {
		return fn()
	}
	start := time.Now()
	err := fn()
	p := Phase{Name: name, Dur: time.Since(start)}
	if err != nil {
		p.Err = err.Error()
	}
	t.mu.Lock()
	t.phases = append(t.phases, p)
	t.mu.Unlock()
	return err
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Phase(nil), t.phases...)
}

// Total is the sum of all phase durations.
func (t *Timer) Total() time.Duration {
	var total time.Duration
	for _, p := range t.Phases() {
		total += p.Dur
	}
	return total
}

// Summary renders one line per phase with its share of the total, e.g.
//
//	timings:
//	  load scene        1.20 ms   12%
//	  run checks        8.10 ms   81%  failed: context canceled
//	  total            10.00 ms
func (t *Timer) Summary() string {
	phases := t.Phases()
	total := t.Total()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range phases {
		share := 0.0
		if total > 0 {
			share = 100 * float64(p.Dur) / float64(total)
		}
		fmt.Fprintf(&b, "  %-14s %8.2f ms %4.0f%%", p.Name, millis(p.Dur), share)
		if p.Err != "" {
			b.WriteString("  failed: " + p.Err)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-14s %8.2f ms\n", "total", millis(total))
	return b.String()
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
