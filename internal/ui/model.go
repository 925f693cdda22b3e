// Package ui is the interactive terminal presenter. It renders session
// snapshots and drives the session only through its public commands.
package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"scenecheck/internal/check"
	"scenecheck/internal/diag"
	"scenecheck/internal/session"
)

// Commands is the part of a session the presenter may drive.
type Commands interface {
	Snapshot() session.Snapshot
	RunAll(ctx context.Context) (session.Snapshot, error)
	RunOne(ctx context.Context, checkID string) (session.Snapshot, error)
	FixIssue(ctx context.Context, issueID string) (session.FixOutcome, error)
	SelectIssue(ctx context.Context, issueID string) (check.SelectResult, error)
}

// Options configures the presenter.
type Options struct {
	Title string
	// RunOnStart triggers a full run as soon as the program starts.
	RunOnStart bool
}

type rowKind uint8

const (
	rowCheck rowKind = iota
	rowIssue
)

type row struct {
	kind  rowKind
	check session.CheckState
	issue diag.Issue
}

func (r row) key() string {
	if r.kind == rowIssue {
		return r.check.ID + "/" + r.issue.ID
	}
	return r.check.ID
}

type snapshotMsg session.Snapshot
type eventsClosedMsg struct{}

type opDoneMsg struct {
	op   string
	snap session.Snapshot
	note string
	err  error
}

// Model is the Bubble Tea model of the presenter.
type Model struct {
	ctx    context.Context
	cmds   Commands
	events <-chan session.Snapshot
	opts   Options

	snap   session.Snapshot
	rows   []row
	cursor int

	spinner   spinner.Model
	filter    textinput.Model
	filtering bool
	help      help.Model
	keys      keyMap
	details   bool

	busy    string
	message string
	isError bool
	width   int
}

// NewModel returns a presenter over cmds. events may be nil; when set, the
// model renders every snapshot published on it, including RUNNING states.
func NewModel(ctx context.Context, cmds Commands, events <-chan session.Snapshot, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Title == "" {
		opts.Title = "scenecheck"
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	fi := textinput.New()
	fi.Prompt = "/"
	fi.Placeholder = "filter checks and issues"
	fi.CharLimit = 64

	m := &Model{
		ctx:     ctx,
		cmds:    cmds,
		events:  events,
		opts:    opts,
		spinner: sp,
		filter:  fi,
		help:    help.New(),
		keys:    defaultKeys(),
		width:   80,
	}
	m.applySnapshot(cmds.Snapshot())
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.listen()}
	if m.opts.RunOnStart {
		m.busy = "running checks"
		cmds = append(cmds, m.runAll())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.help.Width = msg.Width
		}
		return m, nil
	case snapshotMsg:
		m.applySnapshot(session.Snapshot(msg))
		return m, m.listen()
	case eventsClosedMsg:
		return m, nil
	case opDoneMsg:
		m.busy = ""
		if len(msg.snap.Checks) > 0 {
			m.applySnapshot(msg.snap)
		}
		if msg.err != nil {
			m.message = fmt.Sprintf("%s: %v", msg.op, msg.err)
			m.isError = true
		} else {
			m.message = msg.note
			m.isError = false
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.filtering {
			return m, m.updateFilter(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.rebuild()
		return nil
	case tea.KeyEnter:
		m.filtering = false
		m.filter.Blur()
		return nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.rebuild()
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Details):
		m.details = !m.details
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		return m.filter.Focus()
	case key.Matches(msg, m.keys.RunAll):
		if m.begin("running checks") {
			return m.runAll()
		}
	case key.Matches(msg, m.keys.RunOne):
		r, ok := m.current()
		if !ok {
			return nil
		}
		if m.begin("running " + r.check.ID) {
			return m.runOne(r.check.ID)
		}
	case key.Matches(msg, m.keys.Fix):
		r, ok := m.current()
		if !ok || r.kind != rowIssue {
			m.note("move to an issue to fix it")
			return nil
		}
		if m.begin("fixing") {
			return m.fixIssue(r.issue)
		}
	case key.Matches(msg, m.keys.Select):
		r, ok := m.current()
		if !ok || r.kind != rowIssue {
			m.note("move to an issue to select its nodes")
			return nil
		}
		if m.begin("selecting") {
			return m.selectIssue(r.issue)
		}
	}
	return nil
}

func (m *Model) begin(op string) bool {
	if m.busy != "" {
		m.note("busy: " + m.busy)
		return false
	}
	m.busy = op
	return true
}

func (m *Model) note(msg string) {
	m.message = msg
	m.isError = false
}

func (m *Model) current() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) listen() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		snap, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) runAll() tea.Cmd {
	ctx, cmds := m.ctx, m.cmds
	return func() tea.Msg {
		snap, err := cmds.RunAll(ctx)
		return opDoneMsg{op: "run", snap: snap, err: err, note: runNote(snap)}
	}
}

func (m *Model) runOne(checkID string) tea.Cmd {
	ctx, cmds := m.ctx, m.cmds
	return func() tea.Msg {
		snap, err := cmds.RunOne(ctx, checkID)
		note := ""
		if cs, ok := snap.Check(checkID); ok {
			note = fmt.Sprintf("%s: %s", cs.ID, cs.Status)
		}
		return opDoneMsg{op: "run " + checkID, snap: snap, err: err, note: note}
	}
}

func (m *Model) fixIssue(is diag.Issue) tea.Cmd {
	ctx, cmds := m.ctx, m.cmds
	return func() tea.Msg {
		out, err := cmds.FixIssue(ctx, is.ID)
		return opDoneMsg{op: "fix", snap: out.Snapshot, err: err, note: fixNote(is, out)}
	}
}

func (m *Model) selectIssue(is diag.Issue) tea.Cmd {
	ctx, cmds := m.ctx, m.cmds
	return func() tea.Msg {
		res, err := cmds.SelectIssue(ctx, is.ID)
		return opDoneMsg{op: "select", snap: cmds.Snapshot(), err: err, note: selectNote(res)}
	}
}

func runNote(snap session.Snapshot) string {
	warnings, errs, _ := snap.Counts()
	return fmt.Sprintf("run finished: %s (%d error(s), %d warning(s), %d failed)", snap.Aggregate, errs, warnings, len(snap.Failed()))
}

func fixNote(is diag.Issue, out session.FixOutcome) string {
	var b strings.Builder
	switch {
	case out.Result.Stale:
		b.WriteString("already resolved: " + is.Description)
	case out.Resolved:
		b.WriteString("fixed: " + is.Fix.Title)
	default:
		b.WriteString("fix applied, issue still reported")
	}
	for _, w := range out.Result.Warnings {
		b.WriteString("; warning: " + w)
	}
	return b.String()
}

func selectNote(res check.SelectResult) string {
	if len(res.Selected) == 0 {
		if res.Reason != "" {
			return "nothing selected: " + res.Reason
		}
		return "nothing selected"
	}
	note := fmt.Sprintf("selected %d node(s)", len(res.Selected))
	if len(res.Missing) > 0 {
		note += fmt.Sprintf(", %d missing", len(res.Missing))
	}
	return note
}

// applySnapshot keeps the newest snapshot; sink deliveries may arrive after
// the command that produced them has returned.
func (m *Model) applySnapshot(snap session.Snapshot) {
	if snap.Seq < m.snap.Seq {
		return
	}
	m.snap = snap
	m.rebuild()
}

func (m *Model) rebuild() {
	prev := ""
	if r, ok := m.current(); ok {
		prev = r.key()
	}
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))

	rows := make([]row, 0, len(m.rows))
	for _, cs := range m.snap.Checks {
		checkHit := query == "" || matchCheck(cs, query)
		var issues []row
		for _, is := range cs.Issues {
			if checkHit || matchIssue(is, query) {
				issues = append(issues, row{kind: rowIssue, check: cs, issue: is})
			}
		}
		if !checkHit && len(issues) == 0 {
			continue
		}
		rows = append(rows, row{kind: rowCheck, check: cs})
		rows = append(rows, issues...)
	}
	m.rows = rows

	m.cursor = min(m.cursor, max(len(rows)-1, 0))
	for i, r := range rows {
		if r.key() == prev {
			m.cursor = i
			break
		}
	}
}

func matchCheck(cs session.CheckState, q string) bool {
	return strings.Contains(strings.ToLower(cs.ID), q) ||
		strings.Contains(strings.ToLower(cs.Label), q) ||
		strings.Contains(strings.ToLower(cs.Description), q)
}

func matchIssue(is diag.Issue, q string) bool {
	if strings.Contains(strings.ToLower(is.Description), q) {
		return true
	}
	for _, t := range is.Targets {
		if strings.Contains(strings.ToLower(string(t)), q) {
			return true
		}
	}
	return false
}

// Snapshot returns the snapshot currently rendered.
func (m *Model) Snapshot() session.Snapshot {
	return m.snap
}
