package session

import (
	"time"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
)

// CheckState is the read-only view of one check inside a Snapshot.
type CheckState struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Description string       `json:"description"`
	Status      check.Status `json:"status"`
	Enabled     bool         `json:"enabled"`
	SupportsFix bool         `json:"supports_fix"`
	Issues      []diag.Issue `json:"issues"`
	// Omitted counts issues dropped by the per-check cap.
	Omitted  int           `json:"omitted,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Runs     int           `json:"runs"`
	Duration time.Duration `json:"duration_ns"`
}

// Snapshot is an immutable copy of session state. Seq increases with every
// snapshot published to the sink.
type Snapshot struct {
	Seq       uint64       `json:"seq"`
	Aggregate check.Status `json:"aggregate"`
	Checks    []CheckState `json:"checks"`
}

// Check returns the state of id.
func (s Snapshot) Check(id string) (CheckState, bool) {
	for _, cs := range s.Checks {
		if cs.ID == id {
			return cs, true
		}
	}
	return CheckState{}, false
}

// Issue finds an issue by id.
func (s Snapshot) Issue(id string) (diag.Issue, bool) {
	for _, cs := range s.Checks {
		for _, is := range cs.Issues {
			if is.ID == id {
				return is, true
			}
		}
	}
	return diag.Issue{}, false
}

// Issues returns every stored issue of enabled checks in check order.
func (s Snapshot) Issues() []diag.Issue {
	var out []diag.Issue
	for _, cs := range s.Checks {
		if cs.Enabled {
			out = append(out, cs.Issues...)
		}
	}
	return out
}

// Counts tallies issues of enabled checks by severity, plus the omitted ones.
func (s Snapshot) Counts() (warnings, errs, omitted int) {
	for _, cs := range s.Checks {
		if !cs.Enabled {
			continue
		}
		w, e := diag.CountSeverities(cs.Issues)
		warnings += w
		errs += e
		omitted += cs.Omitted
	}
	return warnings, errs, omitted
}

// Failed returns the enabled checks in FAILED status.
func (s Snapshot) Failed() []CheckState {
	var out []CheckState
	for _, cs := range s.Checks {
		if cs.Enabled && cs.Status == check.StatusFailed {
			out = append(out, cs)
		}
	}
	return out
}
