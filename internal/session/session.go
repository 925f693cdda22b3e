// Package session orchestrates validation runs: it executes the enabled
// checks of a registry against one scene, keeps each check's status and
// issues, applies single-issue fixes with re-verification, and publishes
// immutable snapshots to a presenter.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/observ"
	"scenecheck/internal/scene"
)

var (
	// ErrUnknownIssue is returned when an issue id is not in the current state.
	ErrUnknownIssue = errors.New("unknown issue")
	// ErrUnknownCheck is returned for check ids missing from the registry.
	ErrUnknownCheck = errors.New("unknown check")
)

// Options configures a Session. The zero value is usable.
type Options struct {
	Logger  *zap.SugaredLogger
	Metrics *observ.Metrics
	Sink    Sink
	// MaxIssues caps the issues stored per check; 0 means unlimited.
	MaxIssues int
}

// FixOutcome reports a fix and the re-verification that followed it.
type FixOutcome struct {
	Issue  diag.Issue
	Result check.FixResult
	// Status is the owning check's status after the re-run.
	Status check.Status
	// Resolved is true when the issue id is absent after the re-run.
	Resolved bool
	Snapshot Snapshot
}

type checkState struct {
	life     *check.Lifecycle
	issues   []diag.Issue
	omitted  int
	reason   string
	runs     int
	duration time.Duration
}

// Session runs checks against one scene. Commands are serialised; Snapshot
// may be called concurrently with them.
type Session struct {
	reg   *check.Registry
	scene scene.Accessor

	log       *zap.SugaredLogger
	metrics   *observ.Metrics
	sink      Sink
	maxIssues int

	cmd *semaphore.Weighted

	mu     sync.RWMutex
	states map[string]*checkState
	seq    uint64
}

// New creates a session with every registered check in WAIT.
func New(reg *check.Registry, sc scene.Accessor, opts Options) (*Session, error) {
	if reg == nil {
		return nil, &check.ConfigError{Reason: "session needs a registry"}
	}
	if sc == nil {
		return nil, &check.ConfigError{Reason: "session needs a scene"}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Session{
		reg:       reg,
		scene:     sc,
		log:       log,
		metrics:   opts.Metrics,
		sink:      opts.Sink,
		maxIssues: opts.MaxIssues,
		cmd:       semaphore.NewWeighted(1),
		states:    make(map[string]*checkState, reg.Len()),
	}
	for _, c := range reg.All() {
		id := c.ID()
		s.states[id] = &checkState{
			life: check.NewLifecycle(func(from, to check.Status) {
				log.Debugw("status transition", "check", id, "from", from, "to", to)
			}),
		}
	}
	return s, nil
}

// Registry returns the session's registry.
func (s *Session) Registry() *check.Registry {
	return s.reg
}

// Scene returns the scene the session validates.
func (s *Session) Scene() scene.Accessor {
	return s.scene
}

func (s *Session) acquire(ctx context.Context) error {
	if err := s.cmd.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("session busy: %w", err)
	}
	return nil
}

func (s *Session) release() {
	s.cmd.Release(1)
}

// RunAll runs every enabled check in registry order. A check that fails is
// recorded as FAILED and the remaining checks still run. The error is only
// non-nil when ctx ends before or between checks.
func (s *Session) RunAll(ctx context.Context) (Snapshot, error) {
	if err := s.acquire(ctx); err != nil {
		return s.Snapshot(), err
	}
	defer s.release()

	for _, c := range s.reg.Enabled() {
		if err := s.runLocked(ctx, c); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return s.Snapshot(), ctxErr
			}
		}
	}
	snap := s.publish()
	warnings, errs, _ := snap.Counts()
	s.log.Infow("run finished", "aggregate", snap.Aggregate, "warnings", warnings, "errors", errs)
	return snap, nil
}

// RunOne re-runs a single check, enabled or not.
func (s *Session) RunOne(ctx context.Context, checkID string) (Snapshot, error) {
	c, ok := s.reg.Lookup(checkID)
	if !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownCheck, checkID)
	}
	if err := s.acquire(ctx); err != nil {
		return s.Snapshot(), err
	}
	defer s.release()

	if err := s.runLocked(ctx, c); err != nil {
		return s.Snapshot(), err
	}
	return s.publish(), nil
}

// runLocked executes one detection pass. The caller holds the command
// semaphore. Once the check is RUNNING it always settles, even if ctx ends.
func (s *Session) runLocked(ctx context.Context, c check.Check) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id := c.ID()
	s.mu.Lock()
	st := s.states[id]
	if err := st.life.Begin(ctx); err != nil {
		s.mu.Unlock()
		s.log.Errorw("cannot start check", "check", id, "error", err)
		return err
	}
	st.issues = nil
	st.omitted = 0
	st.reason = ""
	s.mu.Unlock()
	s.publish()

	start := time.Now()
	res := check.Evaluate(c, s.scene)
	elapsed := time.Since(start)

	bag := diag.NewBag(s.maxIssues)
	bag.AddAll(res.Issues)

	s.mu.Lock()
	st.issues = bag.Items()
	st.omitted = bag.Dropped()
	st.reason = res.Reason
	st.runs++
	st.duration = elapsed
	err := st.life.Settle(ctx, res.Status)
	s.mu.Unlock()
	if err != nil {
		s.log.Errorw("cannot settle check", "check", id, "error", err)
		return err
	}

	warnings, errs := diag.CountSeverities(res.Issues)
	s.metrics.RecordRun(id, string(res.Status), elapsed, warnings, errs)
	switch res.Status {
	case check.StatusFailed:
		s.log.Warnw("check failed", "check", id, "reason", res.Reason)
	default:
		s.log.Debugw("check settled", "check", id, "status", res.Status,
			"issues", len(res.Issues), "omitted", bag.Dropped(), "duration", elapsed)
	}
	s.publish()
	return nil
}

// FixIssue applies the fix of one issue and re-runs its check. Unfixable
// issues are rejected with check.ErrUnfixable before the scene is touched.
func (s *Session) FixIssue(ctx context.Context, issueID string) (FixOutcome, error) {
	if err := s.acquire(ctx); err != nil {
		return FixOutcome{Snapshot: s.Snapshot()}, err
	}
	defer s.release()

	is, c, err := s.lookupIssue(issueID)
	if err != nil {
		return FixOutcome{Snapshot: s.Snapshot()}, err
	}
	out := FixOutcome{Issue: is}

	res, fixErr := check.ApplyFix(c, s.scene, is)
	if errors.Is(fixErr, check.ErrUnfixable) {
		s.metrics.RecordFix(c.ID(), observ.FixRejected)
		s.log.Infow("fix rejected", "check", c.ID(), "issue", is.ID, "error", fixErr)
		out.Snapshot = s.Snapshot()
		out.Status = s.statusOf(c.ID())
		return out, fixErr
	}
	out.Result = res

	switch {
	case fixErr != nil:
		s.metrics.RecordFix(c.ID(), observ.FixFailed)
		s.log.Warnw("fix failed", "check", c.ID(), "issue", is.ID, "error", fixErr)
	case res.Stale:
		s.metrics.RecordFix(c.ID(), observ.FixStale)
		s.log.Infow("fix was stale", "check", c.ID(), "issue", is.ID, "message", res.Message)
	default:
		s.metrics.RecordFix(c.ID(), observ.FixApplied)
		s.log.Infow("fix applied", "check", c.ID(), "issue", is.ID, "message", res.Message)
	}
	for _, w := range res.Warnings {
		s.log.Warnw("fix warning", "check", c.ID(), "issue", is.ID, "warning", w)
	}

	// The re-run is authoritative even when the fix reported an error, and it
	// runs even if ctx ended after the scene was touched.
	rerunErr := s.runLocked(context.WithoutCancel(ctx), c)
	out.Snapshot = s.Snapshot()
	if cs, ok := out.Snapshot.Check(c.ID()); ok {
		out.Status = cs.Status
	}
	_, stillThere := out.Snapshot.Issue(is.ID)
	out.Resolved = !stillThere
	if fixErr != nil {
		return out, fmt.Errorf("fix %s: %w", is.ID, fixErr)
	}
	if rerunErr != nil {
		return out, fmt.Errorf("re-run %s after fix: %w", c.ID(), rerunErr)
	}
	return out, nil
}

// SelectIssue highlights the targets of an issue. Vanished targets are
// reported in the result, not as an error.
func (s *Session) SelectIssue(ctx context.Context, issueID string) (check.SelectResult, error) {
	if err := s.acquire(ctx); err != nil {
		return check.SelectResult{}, err
	}
	defer s.release()

	is, c, err := s.lookupIssue(issueID)
	if err != nil {
		return check.SelectResult{}, err
	}
	res := safeSelect(c, s.scene, is)
	if res.Reason != "" {
		s.log.Infow("selection incomplete", "check", c.ID(), "issue", is.ID, "reason", res.Reason)
	}
	s.publish()
	return res, nil
}

func safeSelect(c check.Check, sc scene.Accessor, is diag.Issue) (res check.SelectResult) {
	defer func() {
		if r := recover(); r != nil {
			res = check.SelectResult{Missing: is.Targets, Reason: fmt.Sprintf("select panicked: %v", r)}
		}
	}()
	return c.Select(sc, is)
}

// SetEnabled toggles participation of a check in RunAll. Its last status is kept.
func (s *Session) SetEnabled(ctx context.Context, checkID string, enabled bool) (Snapshot, error) {
	if _, ok := s.reg.Lookup(checkID); !ok {
		return s.Snapshot(), fmt.Errorf("%w: %q", ErrUnknownCheck, checkID)
	}
	if err := s.acquire(ctx); err != nil {
		return s.Snapshot(), err
	}
	defer s.release()

	var err error
	if enabled {
		err = s.reg.Enable(checkID)
	} else {
		err = s.reg.Disable(checkID)
	}
	if err != nil {
		return s.Snapshot(), err
	}
	return s.publish(), nil
}

func (s *Session) lookupIssue(issueID string) (diag.Issue, check.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.reg.All() {
		for _, is := range s.states[c.ID()].issues {
			if is.ID == issueID {
				return is.Clone(), c, nil
			}
		}
	}
	return diag.Issue{}, nil, fmt.Errorf("%w: %q", ErrUnknownIssue, issueID)
}

func (s *Session) statusOf(checkID string) check.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[checkID]; ok {
		return st.life.Current()
	}
	return check.StatusWait
}

// Snapshot returns a copy of the current state without publishing it.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) publish() Snapshot {
	s.mu.Lock()
	s.seq++
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnSnapshot(snap)
	}
	return snap
}

func (s *Session) snapshotLocked() Snapshot {
	all := s.reg.All()
	snap := Snapshot{Seq: s.seq, Checks: make([]CheckState, 0, len(all))}
	var statuses []check.Status
	for _, c := range all {
		st := s.states[c.ID()]
		cs := CheckState{
			ID:          c.ID(),
			Label:       c.Label(),
			Description: c.Description(),
			Status:      st.life.Current(),
			Enabled:     s.reg.IsEnabled(c.ID()),
			SupportsFix: c.SupportsFix(),
			Omitted:     st.omitted,
			Reason:      st.reason,
			Runs:        st.runs,
			Duration:    st.duration,
		}
		if err := deepcopy.Copy(&cs.Issues, &st.issues); err != nil {
			cs.Issues = make([]diag.Issue, len(st.issues))
			for i, is := range st.issues {
				cs.Issues[i] = is.Clone()
			}
		}
		if cs.Issues == nil {
			cs.Issues = []diag.Issue{}
		}
		if cs.Enabled {
			statuses = append(statuses, cs.Status)
		}
		snap.Checks = append(snap.Checks, cs)
	}
	snap.Aggregate = check.Aggregate(statuses)
	return snap
}
