package report

import (
	"io"

	json "github.com/goccy/go-json"

	"scenecheck/internal/check"
	"scenecheck/internal/session"
)

// CountsJSON summarises issues across enabled checks.
type CountsJSON struct {
	Checks   int `json:"checks"`
	Failed   int `json:"failed"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Omitted  int `json:"omitted,omitempty"`
}

// Output is the root of the JSON report.
type Output struct {
	Scene     string               `json:"scene,omitempty"`
	Seq       uint64               `json:"seq"`
	Aggregate check.Status         `json:"aggregate"`
	Counts    CountsJSON           `json:"counts"`
	Checks    []session.CheckState `json:"checks"`
}

// BuildOutput shapes snap for JSON without serialising it.
func BuildOutput(snap session.Snapshot, opts JSONOpts) Output {
	warnings, errs, omitted := snap.Counts()
	out := Output{
		Scene:     opts.Scene,
		Seq:       snap.Seq,
		Aggregate: snap.Aggregate,
		Counts: CountsJSON{
			Failed:   len(snap.Failed()),
			Errors:   errs,
			Warnings: warnings,
			Omitted:  omitted,
		},
		Checks: make([]session.CheckState, 0, len(snap.Checks)),
	}
	for _, cs := range snap.Checks {
		if cs.Enabled {
			out.Counts.Checks++
		}
		if opts.Max > 0 && len(cs.Issues) > opts.Max {
			cs.Omitted += len(cs.Issues) - opts.Max
			cs.Issues = cs.Issues[:opts.Max]
		}
		out.Checks = append(out.Checks, cs)
	}
	return out
}

// JSON writes the snapshot as a JSON document.
func JSON(w io.Writer, snap session.Snapshot, opts JSONOpts) error {
	out := BuildOutput(snap, opts)
	enc := json.NewEncoder(w)
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
