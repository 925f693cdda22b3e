// Package report renders session snapshots for terminals and tools.
package report

// PrettyOpts configures the human-readable report.
type PrettyOpts struct {
	Color bool
	// Width is the maximum line width, 0 means unlimited.
	Width int
	// Scene is printed in the header when set.
	Scene      string
	ShowNotes  bool
	ShowFixes  bool
	ShowOK     bool
	ShowHidden bool
}

// JSONOpts configures JSON output.
type JSONOpts struct {
	Scene  string
	Indent bool
	// Max trims the issues listed per check, 0 keeps all.
	Max int
}
