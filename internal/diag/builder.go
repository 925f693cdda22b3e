package diag

import "scenecheck/internal/scene"

// IssueBuilder accumulates issue details before handing the issue to a Bag.
type IssueBuilder struct {
	bag   *Bag
	issue Issue
	added bool
}

// NewIssue constructs a builder bound to bag. A nil bag is allowed; use
// Issue() to obtain the result without adding it anywhere.
func NewIssue(bag *Bag, sev Severity, checkID, msg string, targets ...scene.Ref) *IssueBuilder {
	return &IssueBuilder{
		bag: bag,
		issue: Issue{
			CheckID:     checkID,
			Targets:     append([]scene.Ref(nil), targets...),
			Description: msg,
			Severity:    sev,
		},
	}
}

// ReportError is a shortcut for SevError issues.
func ReportError(bag *Bag, checkID, msg string, targets ...scene.Ref) *IssueBuilder {
	return NewIssue(bag, SevError, checkID, msg, targets...)
}

// ReportWarning is a shortcut for SevWarning issues.
func ReportWarning(bag *Bag, checkID, msg string, targets ...scene.Ref) *IssueBuilder {
	return NewIssue(bag, SevWarning, checkID, msg, targets...)
}

// WithNote appends a note.
func (b *IssueBuilder) WithNote(target scene.Ref, msg string) *IssueBuilder {
	if b == nil {
		return nil
	}
	b.issue.Notes = append(b.issue.Notes, Note{Target: target, Msg: msg})
	return b
}

// WithFix marks the issue fixable with the given plan.
func (b *IssueBuilder) WithFix(title, value string) *IssueBuilder {
	if b == nil {
		return nil
	}
	b.issue.Fixable = true
	b.issue.Fix = FixPlan{Title: title, Value: value}
	return b
}

// ManualFix records a suggested manual remediation; the issue stays unfixable.
func (b *IssueBuilder) ManualFix(title string) *IssueBuilder {
	if b == nil {
		return nil
	}
	b.issue.Fixable = false
	b.issue.Fix = FixPlan{Title: title}
	return b
}

// Issue returns the accumulated issue with its id assigned.
func (b *IssueBuilder) Issue() Issue {
	if b == nil {
		return Issue{}
	}
	out := b.issue.Clone()
	out.ID = IssueID(out.CheckID, out.Targets, out.Description)
	return out
}

// Emit adds the issue to the bound bag exactly once.
func (b *IssueBuilder) Emit() {
	if b == nil || b.added {
		return
	}
	if b.bag != nil {
		b.bag.Add(b.Issue())
	}
	b.added = true
}
