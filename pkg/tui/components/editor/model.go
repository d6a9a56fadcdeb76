// Package editor renders the title and content fields of the active note.
package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/textarea"
	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/tui/theme"
)

// EmptyText is shown when no note is active.
const EmptyText = "Select a note or create a new one."

type field int

const (
	fieldTitle field = iota
	fieldContent
)

// Status describes what the footer of the pane should say.
type Status struct {
	// CanSave enables the save button.
	CanSave bool
	// Busy replaces the save button with Label.
	Busy  bool
	Label string
}

// Model edits one note. It holds local, unsaved buffers; Load replaces them
// with a stored record.
type Model struct {
	theme   theme.EditorTheme
	title   textinput.Model
	content textarea.Model

	id      string
	loaded  bool
	focused bool
	focus   field

	width  int
	height int
}

// New constructs an empty editor.
func New(th theme.EditorTheme) *Model {
	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.Prompt = ""
	ti.CharLimit = 512

	ta := textarea.New()
	ta.Placeholder = "Write your note…"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0

	return &Model{theme: th, title: ti, content: ta}
}

// SetSize sets the outer size of the pane, border included.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	inner := max(width-m.theme.Frame.GetHorizontalFrameSize(), 1)
	m.title.SetWidth(max(inner-1, 1))
	m.content.SetWidth(inner)
	// label, title, blank, label, ..., blank, button
	m.content.SetHeight(max(height-m.theme.Frame.GetVerticalFrameSize()-6, 1))
}

// Load replaces the buffers with d.
func (m *Model) Load(d note.Detail) {
	m.id = d.ID
	m.loaded = true
	m.title.SetValue(d.Title)
	m.content.SetValue(d.Content)
	m.title.CursorEnd()
}

// Clear drops the buffers and shows the placeholder text.
func (m *Model) Clear() {
	m.id = ""
	m.loaded = false
	m.title.SetValue("")
	m.content.SetValue("")
}

// NoteID is the id of the note in the buffers, or "".
func (m *Model) NoteID() string { return m.id }

// Loaded reports whether a note is in the buffers.
func (m *Model) Loaded() bool { return m.loaded }

// Values returns the current buffers.
func (m *Model) Values() (title, content string) {
	return m.title.Value(), m.content.Value()
}

// Focused reports whether the pane owns the keyboard.
func (m *Model) Focused() bool { return m.focused }

// Focus hands the keyboard to the title field.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	m.focus = fieldTitle
	return m.updateInputFocus()
}

// Blur releases the keyboard.
func (m *Model) Blur() {
	m.focused = false
	m.title.Blur()
	m.content.Blur()
}

// NextField moves between the title and the content.
func (m *Model) NextField() tea.Cmd {
	if m.focus == fieldTitle {
		m.focus = fieldContent
	} else {
		m.focus = fieldTitle
	}
	return m.updateInputFocus()
}

func (m *Model) updateInputFocus() tea.Cmd {
	if !m.focused {
		m.title.Blur()
		m.content.Blur()
		return nil
	}
	if m.focus == fieldTitle {
		m.content.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	return m.content.Focus()
}

// Update forwards msg to the focused field.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if !m.loaded {
		return nil
	}
	var cmd tea.Cmd
	switch m.focus {
	case fieldTitle:
		// Enter in the title moves on to the body.
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			return m.NextField()
		}
		m.title, cmd = m.title.Update(msg)
	case fieldContent:
		m.content, cmd = m.content.Update(msg)
	}
	return cmd
}

// View renders the pane.
func (m *Model) View(st Status) (string, *tea.Cursor) {
	frame := m.theme.Frame
	if m.focused {
		frame = m.theme.FocusFrame
	}
	frame = frame.Width(m.width).Height(m.height)

	if !m.loaded {
		body := m.theme.Empty.Render(EmptyText)
		if st.Busy {
			body = m.theme.Empty.Render(st.Label)
		}
		return frame.Render(body), nil
	}

	button := m.theme.Button.Render("[ Save  ctrl+s ]")
	if !st.CanSave {
		button = m.theme.Disabled.Render("[ Save  ctrl+s ]")
	}
	if st.Busy {
		button = m.theme.Disabled.Render(st.Label)
	}

	lines := []string{
		m.theme.Label.Render("Title"),
		m.title.View(),
		"",
		m.theme.Label.Render("Content"),
		m.content.View(),
		"",
		button,
	}
	box := frame.Render(strings.Join(lines, "\n"))

	var cursor *tea.Cursor
	if m.focused && m.focus == fieldTitle {
		if c := m.title.Cursor(); c != nil {
			clone := *c
			clone.Position.X += frame.GetBorderLeftSize() + frame.GetPaddingLeft()
			clone.Position.Y += frame.GetBorderTopSize() + frame.GetPaddingTop() + 1
			cursor = &clone
		}
	}
	return box, cursor
}

// Placeholder renders text centred in an empty pane, used while the
// session is still being checked.
func Placeholder(th theme.EditorTheme, width, height int, text string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, th.Empty.Render(text))
}
