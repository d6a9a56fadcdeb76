// Package sidebar renders the search box and the note list.
package sidebar

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/tui/theme"
)

const (
	emptyText   = "No notes found."
	loadingText = "Loading…"
)

// Model holds the search input and the pane geometry. The notes themselves
// are passed to View so the list never drifts from the collection.
type Model struct {
	theme  theme.SidebarTheme
	search textinput.Model

	width  int
	height int

	focused bool
	offset  int
}

// New constructs a sidebar using th.
func New(th theme.SidebarTheme) *Model {
	ti := textinput.New()
	ti.Placeholder = "Search notes…"
	ti.Prompt = "/ "
	ti.CharLimit = 256
	return &Model{theme: th, search: ti}
}

// SetSize sets the outer size of the pane, border included.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.SetWidth(max(m.innerWidth()-len(m.search.Prompt)-1, 1))
}

// Focused reports whether the pane owns the keyboard.
func (m *Model) Focused() bool { return m.focused }

// Searching reports whether keys go to the search box.
func (m *Model) Searching() bool { return m.search.Focused() }

// Focus hands the keyboard to the list.
func (m *Model) Focus() {
	m.focused = true
	m.search.Blur()
}

// FocusSearch hands the keyboard to the search box.
func (m *Model) FocusSearch() tea.Cmd {
	m.focused = true
	return m.search.Focus()
}

// Blur releases the keyboard.
func (m *Model) Blur() {
	m.focused = false
	m.search.Blur()
}

// Term is the current search text.
func (m *Model) Term() string { return m.search.Value() }

// Reset empties the search box and scroll position.
func (m *Model) Reset() {
	m.search.SetValue("")
	m.offset = 0
}

// Update forwards msg to the search box and reports whether the term changed.
func (m *Model) Update(msg tea.Msg) (tea.Cmd, bool) {
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd, m.search.Value() != before
}

// View renders the pane for notes with selected highlighted.
func (m *Model) View(notes []note.Summary, selected string, loading bool) (string, *tea.Cursor) {
	width := m.innerWidth()
	rows := []string{m.search.View(), ""}

	listHeight := max(m.innerHeight()-len(rows), 1)
	switch {
	case loading && len(notes) == 0:
		rows = append(rows, m.theme.Placeholder.Render(loadingText))
	case len(notes) == 0:
		rows = append(rows, m.theme.Placeholder.Render(emptyText))
	default:
		if loading {
			rows[1] = m.theme.Placeholder.Render(loadingText)
		}
		rows = append(rows, m.renderList(notes, selected, width, listHeight)...)
	}

	frame := m.theme.Frame
	if m.focused {
		frame = m.theme.FocusFrame
	}
	box := frame.Width(m.width).Height(m.height).Render(strings.Join(rows, "\n"))

	var cursor *tea.Cursor
	if m.search.Focused() {
		if c := m.search.Cursor(); c != nil {
			clone := *c
			clone.Position.X += frame.GetBorderLeftSize() + frame.GetPaddingLeft()
			clone.Position.Y += frame.GetBorderTopSize() + frame.GetPaddingTop()
			cursor = &clone
		}
	}
	return box, cursor
}

// renderList draws two lines per note, scrolled so the selection is
// visible.
func (m *Model) renderList(notes []note.Summary, selected string, width, height int) []string {
	perPage := max(height/2, 1)
	idx := note.Index(notes, selected)
	if idx >= 0 {
		if idx < m.offset {
			m.offset = idx
		}
		if idx >= m.offset+perPage {
			m.offset = idx - perPage + 1
		}
	}
	if m.offset > len(notes)-1 {
		m.offset = max(len(notes)-perPage, 0)
	}

	var rows []string
	for i := m.offset; i < len(notes) && i < m.offset+perPage; i++ {
		n := notes[i]
		title := truncate.StringWithTail(note.DisplayTitle(n.Title), uint(max(width-2, 1)), "…")
		style := m.theme.Item
		marker := "  "
		if n.ID == selected {
			style = m.theme.Selected
			marker = "› "
		}
		rows = append(rows,
			style.Render(marker+title),
			"  "+m.theme.Timestamp.Render(note.LocalTime(n.UpdatedAt)),
		)
	}
	return rows
}

func (m *Model) innerWidth() int {
	return max(m.width-m.theme.Frame.GetHorizontalFrameSize(), 1)
}

func (m *Model) innerHeight() int {
	return max(m.height-m.theme.Frame.GetVerticalFrameSize(), 1)
}

// Width is the pane width for a terminal total columns wide.
func Width(total int) int {
	return clamp(total/3, 24, 40)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
