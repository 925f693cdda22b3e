package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/session"
)

type palette struct {
	title   *color.Color
	ok      *color.Color
	err     *color.Color
	failed  *color.Color
	wait    *color.Color
	warning *color.Color
	dim     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		title:   color.New(color.Bold),
		ok:      color.New(color.FgGreen, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		failed:  color.New(color.FgYellow, color.Bold),
		wait:    color.New(color.FgHiBlack),
		warning: color.New(color.FgYellow),
		dim:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.title, p.ok, p.err, p.failed, p.wait, p.warning, p.dim} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) status(st check.Status) *color.Color {
	switch st {
	case check.StatusOK:
		return p.ok
	case check.StatusError:
		return p.err
	case check.StatusFailed:
		return p.failed
	default:
		return p.wait
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	if sev == diag.SevWarning {
		return p.warning
	}
	return p.err
}

// Pretty writes a per-check report:
//
//	<STATUS> <label> (<id>)
//	    <severity> <targets>: <description>
//	        note: ...
//	        fix: ...
//
// followed by a summary line with the aggregate status.
func Pretty(w io.Writer, snap session.Snapshot, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder

	if opts.Scene != "" {
		b.WriteString(p.title.Sprint("scene: " + opts.Scene))
		b.WriteByte('\n')
	}

	for _, cs := range snap.Checks {
		if !cs.Enabled && !opts.ShowHidden {
			continue
		}
		if cs.Status == check.StatusOK && !opts.ShowOK {
			continue
		}
		head := fmt.Sprintf("%-7s", cs.Status)
		line := fmt.Sprintf("%s %s (%s)", p.status(cs.Status).Sprint(head), cs.Label, cs.ID)
		if !cs.Enabled {
			line += p.dim.Sprint(" [disabled]")
		}
		b.WriteString(line)
		b.WriteByte('\n')

		if cs.Status == check.StatusFailed {
			writeIndented(&b, 4, p.failed.Sprint("reason: ")+oneLine(cs.Reason), opts.Width)
			continue
		}
		for _, is := range cs.Issues {
			sev := p.severity(is.Severity).Sprint(strings.ToLower(is.Severity.String()))
			writeIndented(&b, 4, fmt.Sprintf("%s %s: %s", sev, targetList(is), oneLine(is.Description)), opts.Width)
			if opts.ShowNotes {
				for _, n := range is.Notes {
					writeIndented(&b, 8, p.dim.Sprint("note: ")+noteText(n), opts.Width)
				}
			}
			if opts.ShowFixes {
				switch {
				case is.Fixable:
					writeIndented(&b, 8, p.ok.Sprint("fix: ")+is.Fix.Title+p.dim.Sprintf(" [%s]", is.ID), opts.Width)
				case is.Fix.Title != "":
					writeIndented(&b, 8, p.dim.Sprint("manual: ")+is.Fix.Title, opts.Width)
				}
			}
		}
		if cs.Omitted > 0 {
			writeIndented(&b, 4, p.dim.Sprintf("... %d more issue(s) not shown", cs.Omitted), opts.Width)
		}
	}

	warnings, errs, omitted := snap.Counts()
	summary := fmt.Sprintf("%s: %s, %s, %d failed check(s)",
		p.status(snap.Aggregate).Sprint(snap.Aggregate),
		plural(errs, "error"), plural(warnings, "warning"), len(snap.Failed()))
	if omitted > 0 {
		summary += fmt.Sprintf(", %d omitted", omitted)
	}
	b.WriteString(summary)
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func writeIndented(b *strings.Builder, indent int, text string, width int) {
	if width > 0 {
		text = truncate(text, width-indent)
	}
	b.WriteString(strings.Repeat(" ", indent))
	b.WriteString(text)
	b.WriteByte('\n')
}

func targetList(is diag.Issue) string {
	if len(is.Targets) == 0 {
		return "scene"
	}
	parts := make([]string, len(is.Targets))
	for i, t := range is.Targets {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

func noteText(n diag.Note) string {
	if n.Target == "" {
		return oneLine(n.Msg)
	}
	return fmt.Sprintf("%s: %s", n.Target, oneLine(n.Msg))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// truncate cuts value to at most width display cells. Escape sequences are
// counted as text.
func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
