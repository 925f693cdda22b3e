package report

import (
	"fmt"
	"io"

	"scenecheck/internal/diag"
	"scenecheck/internal/session"
)

// Short writes one line per issue of every enabled check, followed by one
// line per FAILED check:
//
//	failed <check> - <reason>
func Short(w io.Writer, snap session.Snapshot) error {
	if issues := snap.Issues(); len(issues) > 0 {
		if _, err := fmt.Fprintln(w, diag.FormatShort(issues)); err != nil {
			return err
		}
	}
	for _, cs := range snap.Failed() {
		if _, err := fmt.Fprintf(w, "failed %s - %s\n", cs.ID, oneLine(cs.Reason)); err != nil {
			return err
		}
	}
	return nil
}
