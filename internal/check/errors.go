package check

import (
	"errors"
	"fmt"
)

// ErrUnfixable rejects a fix request for an issue or check without an
// automated remediation. It is returned before any scene mutation.
var ErrUnfixable = errors.New("issue is not fixable")

// ErrConfig marks configuration errors that prevent building a registry.
var ErrConfig = errors.New("invalid check configuration")

// FailedError reports that a check could not evaluate the scene in its
// current state (missing prerequisite, malformed options).
type FailedError struct {
	CheckID string
	Reason  string
}

func (e *FailedError) Error() string {
	if e.CheckID == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.CheckID, e.Reason)
}

// Failf builds a FailedError.
func Failf(checkID, format string, args ...any) error {
	return &FailedError{CheckID: checkID, Reason: fmt.Sprintf(format, args...)}
}

// ConfigError describes one configuration problem.
type ConfigError struct {
	CheckID string
	Reason  string
}

func (e *ConfigError) Error() string {
	if e.CheckID == "" {
		return fmt.Sprintf("configuration: %s", e.Reason)
	}
	return fmt.Sprintf("configuration: check %q: %s", e.CheckID, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfig }

// FailureReason extracts the human readable reason from a detection error.
func FailureReason(err error) string {
	var fe *FailedError
	if errors.As(err, &fe) && fe.Reason != "" {
		return fe.Reason
	}
	if err == nil || err.Error() == "" {
		return "check failed without a reason"
	}
	return err.Error()
}
