// Package testkit holds assertions shared by tests of the validation engine.
package testkit

import (
	"fmt"

	"scenecheck/internal/check"
	"scenecheck/internal/session"
)

// CheckSnapshot verifies the status/issue invariants on every check of snap:
// 1) OK <=> no issues; ERROR => at least one issue
// 2) FAILED => no issues and a non-empty reason
// 3) WAIT and RUNNING carry no issues
// 4) every issue belongs to its check and has an id
// 5) the aggregate matches the enabled checks' statuses
func CheckSnapshot(snap session.Snapshot) error {
	var statuses []check.Status
	for _, cs := range snap.Checks {
		if err := checkState(cs); err != nil {
			return fmt.Errorf("check %s: %w", cs.ID, err)
		}
		if cs.Enabled {
			statuses = append(statuses, cs.Status)
		}
	}
	if want := check.Aggregate(statuses); snap.Aggregate != want {
		return fmt.Errorf("aggregate is %s, expected %s", snap.Aggregate, want)
	}
	return nil
}

func checkState(cs session.CheckState) error {
	n := len(cs.Issues) + cs.Omitted
	switch cs.Status {
	case check.StatusOK:
		if n != 0 {
			return fmt.Errorf("OK with %d issue(s)", n)
		}
	case check.StatusError:
		if len(cs.Issues) == 0 {
			return fmt.Errorf("ERROR without issues")
		}
	case check.StatusFailed:
		if n != 0 {
			return fmt.Errorf("FAILED with %d issue(s)", n)
		}
		if cs.Reason == "" {
			return fmt.Errorf("FAILED without a reason")
		}
	case check.StatusWait, check.StatusRunning:
		if n != 0 {
			return fmt.Errorf("%s with %d issue(s)", cs.Status, n)
		}
	default:
		return fmt.Errorf("unknown status %q", cs.Status)
	}
	for i, is := range cs.Issues {
		if is.ID == "" {
			return fmt.Errorf("issue #%d has no id", i)
		}
		if is.CheckID != cs.ID {
			return fmt.Errorf("issue #%d belongs to %q", i, is.CheckID)
		}
	}
	return nil
}
