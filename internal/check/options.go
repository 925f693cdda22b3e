package check

import (
	"fmt"
	"sort"
	"strings"

	"scenecheck/internal/scene"
)

// Options holds the tunables of one check as decoded from configuration.
// Getters fail for missing or mistyped keys; there are no implicit defaults.
type Options map[string]any

// Clone returns a shallow copy; list values are copied.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		switch vals := v.(type) {
		case []string:
			out[k] = append([]string(nil), vals...)
		case []any:
			out[k] = append([]any(nil), vals...)
		default:
			out[k] = v
		}
	}
	return out
}

func (o Options) lookup(key string) (any, error) {
	v, ok := o[key]
	if !ok {
		return nil, fmt.Errorf("option %q is missing", key)
	}
	return v, nil
}

// Float returns a numeric option.
func (o Options) Float(key string) (float64, error) {
	v, err := o.lookup(key)
	if err != nil {
		return 0, err
	}
	f, ok := scene.ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("option %q: expected number, got %T", key, v)
	}
	return f, nil
}

// String returns a string option.
func (o Options) String(key string) (string, error) {
	v, err := o.lookup(key)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("option %q: expected string, got %T", key, v)
	}
	return s, nil
}

// Bool returns a boolean option.
func (o Options) Bool(key string) (bool, error) {
	v, err := o.lookup(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("option %q: expected bool, got %T", key, v)
	}
	return b, nil
}

// Strings returns a string list option.
func (o Options) Strings(key string) ([]string, error) {
	v, err := o.lookup(key)
	if err != nil {
		return nil, err
	}
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...), nil
	case []any:
		out := make([]string, 0, len(vals))
		for i, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("option %q[%d]: expected string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("option %q: expected string list, got %T", key, v)
	}
}

// Unknown returns the sorted keys not listed in known.
func (o Options) Unknown(known ...string) []string {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	var out []string
	for k := range o {
		if !allowed[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// RequireKnown fails the check when o carries unrecognised keys.
func RequireKnown(checkID string, o Options, known ...string) error {
	if unknown := o.Unknown(known...); len(unknown) > 0 {
		return Failf(checkID, "unrecognized option(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}
