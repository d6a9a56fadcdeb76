// Package teaui is the Bubble Tea front end: a note list, an editor and a
// sign-in form over a state.Workspace.
package teaui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/state"
	"tableflip.dev/notes/pkg/tui/components/authform"
	"tableflip.dev/notes/pkg/tui/components/editor"
	"tableflip.dev/notes/pkg/tui/components/help"
	"tableflip.dev/notes/pkg/tui/components/sidebar"
	"tableflip.dev/notes/pkg/tui/theme"
)

const checkingText = "Checking session…"

// Model is the root Bubble Tea model.
type Model struct {
	ws    *state.Workspace
	theme theme.Theme

	sidebar *sidebar.Model
	editor  *editor.Model
	auth    *authform.Model
	help    *help.Model

	width  int
	height int

	// confirming is set while the delete prompt is showing.
	confirming bool
	// pending labels the commit the active note is waiting on.
	pending string

	// Last observed workspace counters; a change means the view buffers
	// must follow.
	epoch   uint64
	version uint64
	session state.SessionState
}

// New constructs the root model over ws.
func New(ws *state.Workspace) *Model {
	th := theme.Default()
	m := &Model{
		ws:      ws,
		theme:   th,
		sidebar: sidebar.New(th.Sidebar),
		editor:  editor.New(th.Editor),
		auth:    authform.New(th.Modal, th.Banner),
	}
	m.sidebar.Focus()
	return m
}

// Run launches the Bubble Tea program and blocks until it exits.
func Run(ctx context.Context, ws *state.Workspace) error {
	p := tea.NewProgram(New(ws), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init resolves the stored session and subscribes to session changes.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.ws.Start(), m.ws.Watch())
}

// Update routes Bubble Tea messages to the workspace and the components.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.noteEvent(msg)

	var cmds []tea.Cmd
	switch v := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
	case authform.SubmitMsg:
		cmds = append(cmds, m.submit(v))
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(v))
	default:
		cmds = append(cmds, m.ws.Update(msg), m.forward(msg))
	}

	cmds = append(cmds, m.sync())
	m.layout()
	return m, tea.Batch(cmds...)
}

func (m *Model) noteEvent(msg tea.Msg) {
	if d, ok := msg.(state.Describer); ok {
		log.Debug("tui: event", "msg", d.Describe())
	}
}

// forward hands non-key messages, such as cursor blinks, to whichever
// component owns the keyboard.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	if m.help != nil {
		return m.help.Update(msg)
	}
	switch {
	case m.ws.Session.State() == state.SessionSignedOut:
		return m.auth.Update(msg)
	case m.sidebar.Searching():
		cmd, _ := m.sidebar.Update(msg)
		return cmd
	case m.editor.Focused():
		return m.editor.Update(msg)
	}
	return nil
}

// sync brings the view buffers in line with the workspace after it changed.
func (m *Model) sync() tea.Cmd {
	var cmd tea.Cmd
	if st := m.ws.Session.State(); st != m.session {
		m.session = st
		m.confirming = false
		m.help = nil
		if st == state.SessionSignedOut {
			m.auth.Reset()
			cmd = m.auth.Init()
		}
	}
	if e := m.ws.Epoch(); e != m.epoch {
		m.epoch = e
		m.sidebar.Reset()
		m.editor.Clear()
		m.focusList()
	}
	if v := m.ws.Active.Version(); v != m.version {
		m.version = v
		if d, ok := m.ws.Active.Current(); ok {
			m.editor.Load(d)
		} else {
			m.editor.Clear()
			if m.editor.Focused() {
				m.focusList()
			}
		}
	}
	if m.ws.Active.Activity().Status != state.Committing {
		m.pending = ""
	}
	return cmd
}

func (m *Model) submit(msg authform.SubmitMsg) tea.Cmd {
	if msg.Mode == authform.SignUp {
		return m.ws.SignUp(msg.Email, msg.Password)
	}
	return m.ws.SignIn(msg.Email, msg.Password)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" {
		return tea.Quit
	}

	if m.help != nil {
		switch key {
		case "?", "esc", "q":
			m.help = nil
			return nil
		}
		return m.help.Update(msg)
	}

	switch m.ws.Session.State() {
	case state.SessionUnknown:
		if key == "q" {
			return tea.Quit
		}
		return nil
	case state.SessionSignedOut:
		return m.auth.Update(msg)
	}

	if m.confirming {
		switch key {
		case "y", "Y":
			m.confirming = false
			m.pending = "Deleting…"
			return m.ws.Delete()
		case "n", "N", "esc":
			m.confirming = false
		}
		return nil
	}

	switch key {
	case "ctrl+n":
		return m.ws.Create()
	case "ctrl+s":
		return m.save()
	case "ctrl+d":
		m.askDelete()
		return nil
	case "ctrl+l":
		return m.ws.SignOut()
	}

	switch {
	case m.sidebar.Searching():
		return m.handleSearchKey(msg)
	case m.editor.Focused():
		return m.handleEditorKey(msg)
	}
	return m.handleListKey(msg)
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter", "down", "tab":
		m.focusList()
		return nil
	}
	cmd, changed := m.sidebar.Update(msg)
	if !changed {
		return cmd
	}
	return tea.Batch(cmd, m.ws.Search(m.sidebar.Term()))
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.focusList()
		return nil
	case "tab":
		return m.editor.NextField()
	}
	return m.editor.Update(msg)
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "?":
		m.help = help.New(m.width, m.height)
	case "/":
		m.editor.Blur()
		return m.sidebar.FocusSearch()
	case "n":
		return m.ws.Create()
	case "up", "k":
		return m.move(-1)
	case "down", "j":
		return m.move(1)
	case "enter", "tab", "e":
		if m.editor.Loaded() {
			m.sidebar.Blur()
			return m.editor.Focus()
		}
	case "d", "delete":
		m.askDelete()
	case "esc":
		m.ws.DismissError()
	}
	return nil
}

func (m *Model) move(delta int) tea.Cmd {
	items := m.ws.Notes.Items()
	if len(items) == 0 {
		return nil
	}
	selected, _ := m.ws.Selection.Current()
	idx := note.Index(items, selected) + delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(items) {
		idx = len(items) - 1
	}
	return m.ws.Select(items[idx].ID)
}

func (m *Model) save() tea.Cmd {
	title, content := m.editor.Values()
	if !m.ws.CanSave(title, content) {
		return nil
	}
	m.pending = "Saving…"
	return m.ws.Save(title, content)
}

func (m *Model) askDelete() {
	if _, ok := m.ws.Selection.Current(); ok && m.ws.Active.Activity().Status != state.Committing {
		m.confirming = true
	}
}

func (m *Model) focusList() {
	m.editor.Blur()
	m.sidebar.Focus()
}

func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyHeight := m.height - 2
	if m.ws.Error() != "" {
		bodyHeight--
	}
	bodyHeight = max(bodyHeight, 3)
	sideWidth := sidebar.Width(m.width)
	m.sidebar.SetSize(sideWidth, bodyHeight)
	m.editor.SetSize(max(m.width-sideWidth, 10), bodyHeight)
	m.auth.SetWidth(min(m.width-8, 48))
	if m.help != nil {
		m.help.SetSize(m.width, m.height)
	}
}

// View renders the screen for the current session state.
func (m *Model) View() (string, *tea.Cursor) {
	if m.width <= 0 || m.height <= 0 {
		return "initializing…", nil
	}

	switch m.ws.Session.State() {
	case state.SessionUnknown:
		return editor.Placeholder(m.theme.Editor, m.width, m.height, checkingText), nil
	case state.SessionSignedOut:
		return m.viewAuth()
	}
	if m.help != nil {
		return m.help.View(), nil
	}

	rows := []string{m.viewHeader()}
	if banner := m.viewBanner(); banner != "" {
		rows = append(rows, banner)
	}
	top := len(rows)

	selected, _ := m.ws.Selection.Current()
	loading := m.ws.Notes.Activity().Status == state.Loading
	side, sideCursor := m.sidebar.View(m.ws.Notes.Items(), selected, loading)
	ed, edCursor := m.editor.View(m.editorStatus())
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, side, ed), m.viewFooter())

	cursor := sideCursor
	if edCursor != nil {
		cursor = edCursor
		cursor.Position.X += lipgloss.Width(side)
	}
	if cursor != nil {
		cursor.Position.Y += top
	}
	return strings.Join(rows, "\n"), cursor
}

func (m *Model) editorStatus() editor.Status {
	title, content := m.editor.Values()
	st := editor.Status{CanSave: m.ws.CanSave(title, content)}
	switch m.ws.Active.Activity().Status {
	case state.Committing:
		st.Busy = true
		st.Label = m.pending
		if st.Label == "" {
			st.Label = "Working…"
		}
	case state.Loading:
		if !m.editor.Loaded() {
			st.Busy = true
			st.Label = "Loading…"
		}
	}
	return st
}

func (m *Model) viewAuth() (string, *tea.Cursor) {
	act := m.ws.Session.Activity()
	form, cursor := m.auth.View(authform.Status{
		Busy:   act.Status == state.Committing,
		Error:  m.ws.Session.Reason(),
		Notice: m.ws.Session.Notice(),
	})
	placed := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
	if cursor != nil {
		cursor.Position.X += max((m.width-lipgloss.Width(form))/2, 0)
		cursor.Position.Y += max((m.height-lipgloss.Height(form))/2, 0)
	}
	return placed, cursor
}

func (m *Model) viewHeader() string {
	th := m.theme.Header
	left := th.Title.Render("Notes")
	if id := m.ws.Session.Current(); id != nil {
		left += "  Signed in as " + th.User.Render(id.Email)
	}
	right := th.Hint.Render("ctrl+l log out · ? help")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m *Model) viewBanner() string {
	msg := m.ws.Error()
	if msg == "" {
		return ""
	}
	const hint = "  (esc to dismiss)"
	text := truncate.StringWithTail(msg, uint(max(m.width-len(hint)-2, 8)), "…")
	return m.theme.Banner.Error.Width(m.width).Render(text + hint)
}

func (m *Model) viewFooter() string {
	th := m.theme.Footer
	if m.confirming {
		title := note.Untitled
		if d, ok := m.ws.Active.Current(); ok {
			title = note.DisplayTitle(d.Title)
		}
		return th.Confirm.Render("Delete \"" + title + "\"? (y/n)")
	}
	var hint string
	switch {
	case m.sidebar.Searching():
		hint = "type to filter · enter/esc back to list"
	case m.editor.Focused():
		hint = "tab switch field · ctrl+s save · esc back"
	default:
		hint = "↑/↓ select · / search · n new · enter edit · d delete · q quit"
	}
	if status := m.ws.Notes.Activity(); status.Status == state.Failed {
		hint += th.Status.Render("  " + status.String())
	}
	return th.Help.Render(hint)
}
