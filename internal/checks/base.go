// Package checks holds the stock scene checks and builds the default registry.
package checks

import (
	"fmt"
	"strconv"
	"strings"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/scene"
)

// base carries identity and options shared by every stock check.
type base struct {
	id          string
	label       string
	description string
	opts        check.Options
}

func (b *base) ID() string          { return b.id }
func (b *base) Label() string       { return b.label }
func (b *base) Description() string { return b.description }

func (b *base) Select(sc scene.Accessor, is diag.Issue) check.SelectResult {
	return check.SelectTargets(sc, is)
}

func (b *base) fail(format string, args ...any) error {
	return check.Failf(b.id, format, args...)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatFrames(frames []float64, limit int) string {
	parts := make([]string, 0, len(frames))
	for i, f := range frames {
		if limit > 0 && i == limit {
			parts = append(parts, fmt.Sprintf("... (+%d)", len(frames)-limit))
			break
		}
		parts = append(parts, formatFloat(f))
	}
	return strings.Join(parts, ", ")
}

// parentOf returns the transform above a shape, or "" when there is none.
func parentOf(sc scene.Accessor, ref scene.Ref) scene.Ref {
	info, err := sc.Node(ref)
	if err != nil || info.Parent == "" || !sc.Exists(info.Parent) {
		return ""
	}
	return info.Parent
}

func withParent(sc scene.Accessor, ref scene.Ref) []scene.Ref {
	if p := parentOf(sc, ref); p != "" {
		return []scene.Ref{ref, p}
	}
	return []scene.Ref{ref}
}
