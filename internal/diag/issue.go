package diag

import (
	"strings"

	"github.com/google/uuid"

	"scenecheck/internal/scene"
)

var issueNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("scenecheck/issue"))

// Note adds context to an issue, optionally pointing at another node.
type Note struct {
	Target scene.Ref `json:"target,omitempty"`
	Msg    string    `json:"msg"`
}

// FixPlan describes the automated remediation a check would perform.
// Value is the proposed new value (a sanitised name, a clip distance, ...).
type FixPlan struct {
	Title string `json:"title"`
	Value string `json:"value,omitempty"`
}

// Issue is one detected problem. Issues are values: they are created by a
// check's detection pass and replaced wholesale by the next one.
type Issue struct {
	ID          string      `json:"id"`
	CheckID     string      `json:"check_id"`
	Targets     []scene.Ref `json:"targets"`
	Description string      `json:"description"`
	Severity    Severity    `json:"severity"`
	Fixable     bool        `json:"fixable"`
	Fix         FixPlan     `json:"fix"`
	Notes       []Note      `json:"notes,omitempty"`
}

// Clone returns a copy that shares no slices with i.
func (i Issue) Clone() Issue {
	out := i
	out.Targets = append([]scene.Ref(nil), i.Targets...)
	if i.Notes != nil {
		out.Notes = append([]Note(nil), i.Notes...)
	}
	return out
}

// IssueID derives a stable identifier from what an issue is about, so that
// repeated detection over an unchanged scene yields identical ids.
func IssueID(checkID string, targets []scene.Ref, description string) string {
	var b strings.Builder
	b.WriteString(checkID)
	for _, t := range targets {
		b.WriteByte(0)
		b.WriteString(string(t))
	}
	b.WriteByte(0)
	b.WriteString(description)
	return uuid.NewSHA1(issueNamespace, []byte(b.String())).String()
}
