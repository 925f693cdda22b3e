package check

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

const (
	eventRun  = "run"
	eventPass = "pass"
	eventFlag = "flag"
	eventFail = "fail"
)

// Lifecycle tracks the status of one check:
//
//	WAIT -run-> RUNNING -pass|flag|fail-> OK | ERROR | FAILED
//
// Every settled state can be re-entered into RUNNING by another run.
type Lifecycle struct {
	fsm     *fsm.FSM
	onEnter func(from, to Status)
}

// NewLifecycle returns a lifecycle in WAIT. onEnter, when non-nil, is called
// after every transition.
func NewLifecycle(onEnter func(from, to Status)) *Lifecycle {
	l := &Lifecycle{onEnter: onEnter}
	settled := []string{string(StatusWait), string(StatusOK), string(StatusError), string(StatusFailed)}
	l.fsm = fsm.NewFSM(
		string(StatusWait),
		fsm.Events{
			{Name: eventRun, Src: settled, Dst: string(StatusRunning)},
			{Name: eventPass, Src: []string{string(StatusRunning)}, Dst: string(StatusOK)},
			{Name: eventFlag, Src: []string{string(StatusRunning)}, Dst: string(StatusError)},
			{Name: eventFail, Src: []string{string(StatusRunning)}, Dst: string(StatusFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if l.onEnter != nil {
					l.onEnter(Status(e.Src), Status(e.Dst))
				}
			},
		},
	)
	return l
}

// Current returns the current status.
func (l *Lifecycle) Current() Status {
	return Status(l.fsm.Current())
}

// Begin moves a settled (or waiting) check into RUNNING. Transitions ignore
// cancellation of ctx, so a run that has begun can always be settled.
func (l *Lifecycle) Begin(ctx context.Context) error {
	if err := l.fsm.Event(context.WithoutCancel(ctx), eventRun); err != nil {
		return fmt.Errorf("begin run from %s: %w", l.Current(), err)
	}
	return nil
}

// Settle moves a RUNNING check into the terminal status st.
func (l *Lifecycle) Settle(ctx context.Context, st Status) error {
	var event string
	switch st {
	case StatusOK:
		event = eventPass
	case StatusError:
		event = eventFlag
	case StatusFailed:
		event = eventFail
	default:
		return fmt.Errorf("settle: %s is not a terminal status", st)
	}
	if err := l.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		return fmt.Errorf("settle %s from %s: %w", st, l.Current(), err)
	}
	return nil
}
