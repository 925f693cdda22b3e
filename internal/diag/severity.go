package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of an issue.
type Severity uint8

const (
	// SevWarning is for problems that should be reviewed but do not break a shot.
	SevWarning Severity = iota + 1
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// MarshalText renders the severity by name so reports stay readable.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses WARNING or ERROR, case-insensitively.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToUpper(strings.TrimSpace(string(text))) {
	case "WARNING":
		*s = SevWarning
	case "ERROR":
		*s = SevError
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}
