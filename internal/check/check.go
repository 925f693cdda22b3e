// Package check defines the capability contract shared by every scene check,
// the status lifecycle a check goes through, and the registry that orders the
// checks available to a validation run.
package check

import (
	"errors"
	"fmt"

	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// Check is one pluggable validation unit.
//
// Detect must only read the scene and must be deterministic for a fixed scene
// state. Fix resolves exactly the one issue it is given and must tolerate
// scene changes since detection: when the target is gone or already resolved
// it succeeds without changes (FixResult.Stale). Select only highlights.
type Check interface {
	ID() string
	Label() string
	Description() string
	SupportsFix() bool

	Detect(sc scene.Accessor) ([]diag.Issue, error)
	Fix(sc scene.Accessor, is diag.Issue) (FixResult, error)
	Select(sc scene.Accessor, is diag.Issue) SelectResult
}

// Result is the outcome of one detection pass.
type Result struct {
	Status Status
	Issues []diag.Issue
	// Reason is set for FAILED results.
	Reason string
}

// FixResult reports what a fix did.
type FixResult struct {
	// Changed is true when the scene was mutated.
	Changed bool
	// Stale is true when the issue no longer matched the scene and the fix
	// completed as a no-op.
	Stale    bool
	Message  string
	Warnings []string
}

// SelectResult reports which targets were highlighted.
type SelectResult struct {
	Selected []scene.Ref
	Missing  []scene.Ref
	// Reason explains an empty or partial selection.
	Reason string
}

// Evaluate runs c.Detect and derives a status that honours the invariant
// OK <=> no issues, ERROR => issues, FAILED => no issues and a reason.
// A panicking check is reported as FAILED.
func Evaluate(c Check, sc scene.Accessor) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: StatusFailed, Reason: fmt.Sprintf("check panicked: %v", r)}
		}
	}()

	issues, err := c.Detect(sc)
	if err != nil {
		return Result{Status: StatusFailed, Reason: FailureReason(err)}
	}
	if len(issues) == 0 {
		return Result{Status: StatusOK}
	}
	return Result{Status: StatusError, Issues: issues}
}

// EnsureFixable rejects issues that have no automated remediation.
func EnsureFixable(c Check, is diag.Issue) error {
	if is.CheckID != c.ID() {
		return fmt.Errorf("issue %s belongs to check %q, not %q", is.ID, is.CheckID, c.ID())
	}
	if !c.SupportsFix() {
		return fmt.Errorf("%w: check %q is detect-only", ErrUnfixable, c.ID())
	}
	if !is.Fixable {
		return fmt.Errorf("%w: %s", ErrUnfixable, is.Description)
	}
	return nil
}

// ApplyFix validates is against c and runs c.Fix, converting panics into
// errors. Unfixable issues are rejected before the check is called.
func ApplyFix(c Check, sc scene.Accessor, is diag.Issue) (res FixResult, err error) {
	if err := EnsureFixable(c, is); err != nil {
		return FixResult{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			res = FixResult{}
			err = fmt.Errorf("fix %s panicked: %v", c.ID(), r)
		}
	}()
	return c.Fix(sc, is)
}

// SelectTargets highlights the issue targets that still exist. Missing
// targets are reported rather than treated as errors; when none remain the
// host selection is left untouched.
func SelectTargets(sc scene.Accessor, is diag.Issue) (res SelectResult) {
	defer func() {
		if r := recover(); r != nil {
			res = SelectResult{Missing: is.Targets, Reason: fmt.Sprintf("select panicked: %v", r)}
		}
	}()

	if len(is.Targets) == 0 {
		res.Reason = "issue has no scene targets"
		return res
	}
	for _, ref := range is.Targets {
		if sc.Exists(ref) {
			res.Selected = append(res.Selected, ref)
		} else {
			res.Missing = append(res.Missing, ref)
		}
	}
	if len(res.Selected) == 0 {
		res.Reason = "targets no longer exist"
		return res
	}
	if err := sc.Select(res.Selected); err != nil {
		if errors.Is(err, scene.ErrNotFound) {
			res.Missing = append(res.Missing, res.Selected...)
		}
		res.Reason = fmt.Sprintf("select failed: %v", err)
		res.Selected = nil
		return res
	}
	if len(res.Missing) > 0 {
		res.Reason = fmt.Sprintf("%d target(s) no longer exist", len(res.Missing))
	}
	return res
}
