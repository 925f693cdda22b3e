package fix

import (
	"context"
	"errors"
	"fmt"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/session"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce fixes the first fixable issue.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll fixes every fixable issue, one at a time.
	ApplyModeAll
	// ApplyModeID fixes the issue with TargetID.
	ApplyModeID
)

func (m ApplyMode) String() string {
	switch m {
	case ApplyModeOnce:
		return "once"
	case ApplyModeAll:
		return "all"
	case ApplyModeID:
		return "id"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// CheckID restricts selection to one check.
	CheckID string
	// DryRun lists the selected fixes without applying them.
	DryRun bool
}

// Runner is the part of a session the engine drives.
type Runner interface {
	Snapshot() session.Snapshot
	FixIssue(ctx context.Context, issueID string) (session.FixOutcome, error)
}

// AppliedFix records a fix that completed, including stale no-ops.
type AppliedFix struct {
	ID          string
	CheckID     string
	Title       string
	Description string
	Message     string
	Stale       bool
	Resolved    bool
	Status      check.Status
	Warnings    []string
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID      string
	CheckID string
	Title   string
	Reason  string
}

// ApplyResult aggregates applied and skipped fixes. Planned is only filled
// for dry runs.
type ApplyResult struct {
	Applied  []AppliedFix
	Skipped  []SkippedFix
	Planned  []diag.Issue
	Snapshot session.Snapshot
}

// Changed reports whether any applied fix mutated the scene.
func (r *ApplyResult) Changed() bool {
	if r == nil {
		return false
	}
	for _, a := range r.Applied {
		if !a.Stale {
			return true
		}
	}
	return false
}

// Apply selects issues from the runner's latest snapshot according to opts
// and fixes them one at a time. Each fix is followed by the session's re-run
// of the owning check, and every later candidate is re-resolved against the
// refreshed snapshot before it is applied.
func Apply(ctx context.Context, r Runner, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied: make([]AppliedFix, 0),
		Skipped: make([]SkippedFix, 0),
	}
	if r == nil {
		return result, fmt.Errorf("fix: runner is nil")
	}

	snap := r.Snapshot()
	result.Snapshot = snap
	if opts.CheckID != "" {
		if _, ok := snap.Check(opts.CheckID); !ok {
			return result, fmt.Errorf("fix: %w: %q", session.ErrUnknownCheck, opts.CheckID)
		}
	}

	candidates, gatherSkips := gatherCandidates(snap, opts)
	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, gatherSkips...)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	if opts.DryRun {
		for _, is := range selected {
			result.Planned = append(result.Planned, is.Clone())
		}
		return result, nil
	}

	var rejectErr error
	for _, cand := range selected {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		current, ok := r.Snapshot().Issue(cand.ID)
		if !ok {
			result.Skipped = append(result.Skipped, skipOf(cand, "resolved by an earlier fix"))
			continue
		}
		out, err := r.FixIssue(ctx, current.ID)
		result.Snapshot = out.Snapshot
		switch {
		case errors.Is(err, check.ErrUnfixable):
			result.Skipped = append(result.Skipped, skipOf(current, err.Error()))
			rejectErr = err
			continue
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return result, err
		case err != nil:
			result.Skipped = append(result.Skipped, skipOf(current, err.Error()))
			continue
		}
		result.Applied = append(result.Applied, AppliedFix{
			ID:          current.ID,
			CheckID:     current.CheckID,
			Title:       current.Fix.Title,
			Description: current.Description,
			Message:     out.Result.Message,
			Stale:       out.Result.Stale,
			Resolved:    out.Resolved,
			Status:      out.Status,
			Warnings:    append([]string(nil), out.Result.Warnings...),
		})
	}

	if len(result.Applied) == 0 {
		if rejectErr != nil && opts.Mode == ApplyModeID {
			return result, rejectErr
		}
		return result, ErrNoFixes
	}
	return result, nil
}

// gatherCandidates lists the issues of enabled checks, in snapshot order,
// honouring the check filter.
func gatherCandidates(snap session.Snapshot, opts ApplyOptions) ([]diag.Issue, []SkippedFix) {
	cands := make([]diag.Issue, 0)
	skips := make([]SkippedFix, 0)
	for _, cs := range snap.Checks {
		if opts.CheckID != "" && cs.ID != opts.CheckID {
			continue
		}
		if !cs.Enabled && opts.Mode != ApplyModeID {
			continue
		}
		if cs.Omitted > 0 && opts.Mode == ApplyModeAll {
			skips = append(skips, SkippedFix{
				CheckID: cs.ID,
				Reason:  fmt.Sprintf("%d issue(s) over the cap were not considered; run again", cs.Omitted),
			})
		}
		cands = append(cands, cs.Issues...)
	}
	return cands, skips
}

func selectCandidates(candidates []diag.Issue, opts ApplyOptions) ([]diag.Issue, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.ID == opts.TargetID {
				// Unfixable issues still go to the session so that the
				// rejection is reported by the owning check.
				return []diag.Issue{cand}, nil
			}
		}
		return nil, []SkippedFix{{
			ID:     opts.TargetID,
			Reason: "issue id not found",
		}}
	case ApplyModeAll:
		selected := make([]diag.Issue, 0, len(candidates))
		skipped := make([]SkippedFix, 0)
		for _, cand := range candidates {
			if cand.Fixable {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, skipOf(cand, "manual fix required"))
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.Fixable {
				return []diag.Issue{cand}, nil
			}
		}
		return nil, nil
	default:
		return nil, nil
	}
}

func skipOf(is diag.Issue, reason string) SkippedFix {
	title := is.Fix.Title
	if title == "" {
		title = is.Description
	}
	return SkippedFix{
		ID:      is.ID,
		CheckID: is.CheckID,
		Title:   title,
		Reason:  reason,
	}
}
