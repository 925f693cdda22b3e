package check

// Status is the lifecycle state of a check, and of a session as a whole.
type Status string

const (
	// StatusWait means the check has not run yet.
	StatusWait Status = "WAIT"
	// StatusRunning is transient and only observed while detection executes.
	StatusRunning Status = "RUNNING"
	// StatusOK means detection found no issues.
	StatusOK Status = "OK"
	// StatusError means detection found at least one issue.
	StatusError Status = "ERROR"
	// StatusFailed means the check could not evaluate the scene.
	StatusFailed Status = "FAILED"
)

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether s is a settled run outcome.
func (s Status) Terminal() bool {
	switch s {
	case StatusOK, StatusError, StatusFailed:
		return true
	}
	return false
}

// Aggregate rolls up per-check statuses:
// ERROR if any check is ERROR or FAILED, otherwise WAIT if any check has not
// settled, otherwise OK. An empty set is OK.
func Aggregate(statuses []Status) Status {
	pending := false
	for _, st := range statuses {
		switch st {
		case StatusError, StatusFailed:
			return StatusError
		case StatusWait, StatusRunning:
			pending = true
		}
	}
	if pending {
		return StatusWait
	}
	return StatusOK
}
