package fix

import (
	"errors"
	"fmt"
	"io"
)

// WriteSummary prints what Apply did. ErrNoFixes with nothing applied is
// reported as a message, not returned.
func WriteSummary(w io.Writer, res *ApplyResult, applyErr error) error {
	if res == nil {
		return applyErr
	}
	if err := writeSummary(w, res); err != nil {
		return err
	}

	if applyErr != nil {
		if errors.Is(applyErr, ErrNoFixes) && len(res.Applied) == 0 {
			_, err := fmt.Fprintln(w, "No applicable fixes found.")
			return err
		}
		return applyErr
	}
	if len(res.Applied) == 0 && len(res.Planned) == 0 {
		_, err := fmt.Fprintln(w, "No fixes applied.")
		return err
	}
	return nil
}

func writeSummary(w io.Writer, res *ApplyResult) error {
	if len(res.Planned) > 0 {
		if _, err := fmt.Fprintf(w, "Would apply %d fix(es):\n", len(res.Planned)); err != nil {
			return err
		}
		for _, is := range res.Planned {
			if _, err := fmt.Fprintf(w, "  %s [%s] - %s: %s\n", is.Fix.Title, is.ID, is.CheckID, is.Description); err != nil {
				return err
			}
		}
	}

	if len(res.Applied) > 0 {
		if _, err := fmt.Fprintf(w, "Applied %d fix(es):\n", len(res.Applied)); err != nil {
			return err
		}
		for _, item := range res.Applied {
			state := "resolved"
			switch {
			case item.Stale:
				state = "already resolved"
			case !item.Resolved:
				state = "still reported"
			}
			if _, err := fmt.Fprintf(w, "  %s [%s] - %s (%s, check %s)\n", item.Title, item.ID, item.CheckID, state, item.Status); err != nil {
				return err
			}
			if item.Message != "" {
				if _, err := fmt.Fprintf(w, "      %s\n", item.Message); err != nil {
					return err
				}
			}
			for _, warn := range item.Warnings {
				if _, err := fmt.Fprintf(w, "      warning: %s\n", warn); err != nil {
					return err
				}
			}
		}
	}

	if len(res.Skipped) > 0 {
		if _, err := fmt.Fprintln(w, "Skipped fixes:"); err != nil {
			return err
		}
		for _, skip := range res.Skipped {
			id := skip.ID
			if id == "" {
				id = skip.CheckID
			}
			var err error
			if skip.Title != "" {
				_, err = fmt.Fprintf(w, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				_, err = fmt.Fprintf(w, "  [%s]: %s\n", id, skip.Reason)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
