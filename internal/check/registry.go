package check

import (
	"fmt"
	"strings"
	"sync"
)

// Registry is the ordered set of checks available to a session.
// Disabling a check keeps it registered; it is skipped by full runs.
type Registry struct {
	mu       sync.RWMutex
	checks   []Check
	index    map[string]int
	disabled map[string]bool
}

// NewRegistry validates ids and keeps checks in the given order.
// Empty or duplicate ids are configuration errors.
func NewRegistry(checks ...Check) (*Registry, error) {
	r := &Registry{
		checks:   make([]Check, 0, len(checks)),
		index:    make(map[string]int, len(checks)),
		disabled: make(map[string]bool),
	}
	for i, c := range checks {
		if c == nil {
			return nil, &ConfigError{Reason: fmt.Sprintf("check #%d is nil", i)}
		}
		id := c.ID()
		if strings.TrimSpace(id) == "" {
			return nil, &ConfigError{Reason: fmt.Sprintf("check #%d (%s) has an empty id", i, c.Label())}
		}
		if _, dup := r.index[id]; dup {
			return nil, &ConfigError{CheckID: id, Reason: "duplicate check id"}
		}
		r.index[id] = len(r.checks)
		r.checks = append(r.checks, c)
	}
	return r, nil
}

// All returns every check in registry order.
func (r *Registry) All() []Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Check(nil), r.checks...)
}

// Enabled returns the enabled checks in registry order.
func (r *Registry) Enabled() []Check {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Check, 0, len(r.checks))
	for _, c := range r.checks {
		if !r.disabled[c.ID()] {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a check by id.
func (r *Registry) Lookup(id string) (Check, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.checks[i], true
}

// IsEnabled reports whether id is registered and enabled.
func (r *Registry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[id]
	return ok && !r.disabled[id]
}

func (r *Registry) Enable(id string) error {
	return r.toggle(id, false)
}

func (r *Registry) Disable(id string) error {
	return r.toggle(id, true)
}

func (r *Registry) toggle(id string, disabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[id]; !ok {
		return fmt.Errorf("unknown check %q", id)
	}
	if disabled {
		r.disabled[id] = true
	} else {
		delete(r.disabled, id)
	}
	return nil
}

// Len returns the number of registered checks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.checks)
}
