package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b"))
	fixStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
)

func statusStyle(st check.Status) lipgloss.Style {
	switch st {
	case check.StatusOK:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e"))
	case check.StatusError:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ef4444"))
	case check.StatusFailed:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b"))
	case check.StatusRunning:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#4b5563"))
	}
}

func severityStyle(sev diag.Severity) lipgloss.Style {
	if sev == diag.SevWarning {
		return warningStyle
	}
	return errorStyle
}

func (m *Model) View() string {
	var b strings.Builder

	header := fmt.Sprintf("%s  %s", m.opts.Title, statusStyle(m.snap.Aggregate).Render(string(m.snap.Aggregate)))
	warnings, errs, omitted := m.snap.Counts()
	header += dimStyle.Render(fmt.Sprintf("  %d error(s), %d warning(s)", errs, warnings))
	if omitted > 0 {
		header += dimStyle.Render(fmt.Sprintf(", %d omitted", omitted))
	}
	if m.busy != "" {
		header = fmt.Sprintf("%s %s  %s", m.spinner.View(), header, dimStyle.Render(m.busy+"..."))
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.filter.Value() != "" {
			b.WriteString(dimStyle.Render("  nothing matches the filter"))
		} else {
			b.WriteString(dimStyle.Render("  no checks"))
		}
		b.WriteString("\n")
	}

	for i, r := range m.rows {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		switch r.kind {
		case rowCheck:
			b.WriteString(marker + m.checkLine(r))
			b.WriteString("\n")
			if r.check.Status == check.StatusFailed {
				b.WriteString("      " + warningStyle.Render("reason: ") + truncate(r.check.Reason, m.width-14))
				b.WriteString("\n")
			}
			if m.details && r.check.Omitted > 0 {
				b.WriteString("      " + dimStyle.Render(fmt.Sprintf("%d more issue(s) not shown", r.check.Omitted)))
				b.WriteString("\n")
			}
		case rowIssue:
			b.WriteString(marker + m.issueLine(r))
			b.WriteString("\n")
			if m.details {
				for _, n := range r.issue.Notes {
					text := n.Msg
					if n.Target != "" {
						text = string(n.Target) + ": " + n.Msg
					}
					b.WriteString("        " + dimStyle.Render("note: "+truncate(text, m.width-16)))
					b.WriteString("\n")
				}
			}
		}
	}

	b.WriteString("\n")
	if m.message != "" {
		style := dimStyle
		if m.isError {
			style = errorStyle
		}
		b.WriteString(style.Render(truncate(m.message, m.width)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) checkLine(r row) string {
	cs := r.check
	status := statusStyle(cs.Status).Render(fmt.Sprintf("%-7s", cs.Status))
	labelWidth := max(m.width-12, 20)
	line := fmt.Sprintf("%s %s", status, truncate(cs.Label, labelWidth))
	if !cs.Enabled {
		line += dimStyle.Render(" [off]")
	}
	if m.details {
		line += dimStyle.Render(fmt.Sprintf("  %s, %d run(s)", cs.ID, cs.Runs))
	}
	return line
}

func (m *Model) issueLine(r row) string {
	is := r.issue
	sev := severityStyle(is.Severity).Render(strings.ToLower(is.Severity.String()))
	target := "scene"
	if len(is.Targets) > 0 {
		target = string(is.Targets[0])
	}
	tag := ""
	if is.Fixable {
		tag = fixStyle.Render(" [fix]")
	}
	textWidth := max(m.width-20, 20)
	return fmt.Sprintf("  %s %s", sev, truncate(target+": "+is.Description, textWidth)) + tag
}

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
