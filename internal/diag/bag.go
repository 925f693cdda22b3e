package diag

import (
	"math"

	"fortio.org/safecast"
)

// Bag collects issues in detection order, up to an optional cap.
type Bag struct {
	items   []Issue
	seen    map[string]bool
	max     uint16
	dropped int
}

// NewBag returns a bag holding at most max issues; max <= 0 means unbounded.
// Values above the uint16 range are clamped.
func NewBag(max int) *Bag {
	b := &Bag{seen: make(map[string]bool)}
	if max <= 0 {
		return b
	}
	capped, err := safecast.Conv[uint16](max)
	if err != nil {
		capped = math.MaxUint16
	}
	b.max = capped
	b.items = make([]Issue, 0, capped)
	return b
}

// Add appends an issue. Issues whose id is already present are ignored.
// Returns false when the issue was not stored (duplicate or over the cap).
func (b *Bag) Add(is Issue) bool {
	if is.ID != "" && b.seen[is.ID] {
		return false
	}
	if b.max > 0 && len(b.items) >= int(b.max) {
		b.dropped++
		return false
	}
	if is.ID != "" {
		b.seen[is.ID] = true
	}
	b.items = append(b.items, is.Clone())
	return true
}

// AddAll adds issues in order.
func (b *Bag) AddAll(issues []Issue) {
	for _, is := range issues {
		b.Add(is)
	}
}

// Cap returns the configured cap, 0 when unbounded.
func (b *Bag) Cap() uint16 {
	return b.max
}

// Dropped reports how many issues were rejected by the cap.
func (b *Bag) Dropped() int {
	return b.dropped
}

func (b *Bag) Len() int {
	return len(b.items)
}

// HasErrors reports whether any stored issue is SevError.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// Counts returns the number of warnings and errors.
func (b *Bag) Counts() (warnings, errs int) {
	return CountSeverities(b.items)
}

// Items returns copies of the stored issues.
func (b *Bag) Items() []Issue {
	out := make([]Issue, len(b.items))
	for i, is := range b.items {
		out[i] = is.Clone()
	}
	return out
}

// CountSeverities tallies warnings and errors in issues.
func CountSeverities(issues []Issue) (warnings, errs int) {
	for _, is := range issues {
		switch is.Severity {
		case SevWarning:
			warnings++
		case SevError:
			errs++
		}
	}
	return warnings, errs
}
