package diag

import (
	"fmt"
	"strings"

	"scenecheck/internal/scene"
)

// FormatShort renders issues into a stable single-line-per-entry form:
//
//	<severity> <check> <target[,target...]> <description>
//
// Lines keep the input order. The result is empty when issues is empty.
func FormatShort(issues []Issue) string {
	var b strings.Builder
	for i, is := range issues {
		fmt.Fprintf(&b, "%s %s %s %s", strings.ToLower(is.Severity.String()), is.CheckID, joinTargets(is.Targets), sanitizeMessage(is.Description))
		if is.Fixable {
			b.WriteString(" [fixable]")
		}
		if i < len(issues)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func joinTargets(targets []scene.Ref) string {
	if len(targets) == 0 {
		return "-"
	}
	parts := make([]string, len(targets))
	for i, t := range targets {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
