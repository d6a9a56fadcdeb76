// Package help renders the key reference as a scrollable overlay.
package help

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss/v2"
)

//go:embed help.md
var helpMarkdown string

// Model renders the Glamour-based help overlay inside a bordered viewport.
type Model struct {
	viewport viewport.Model
	width    int
	height   int

	frame lipgloss.Style
	err   error
}

// New constructs a help overlay model sized to the provided bounds.
func New(width, height int) *Model {
	vp := viewport.New(
		viewport.WithWidth(max(width, 1)),
		viewport.WithHeight(max(height, 1)),
	)
	vp.MouseWheelEnabled = true
	m := &Model{
		viewport: vp,
		frame:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()),
	}
	m.SetSize(width, height)
	return m
}

// Update forwards scrolling to the viewport.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	vp, cmd := m.viewport.Update(msg)
	m.viewport = vp
	return cmd
}

// View renders the help content inside a rounded frame.
func (m *Model) View() string {
	body := m.viewport.View()
	if body == "" && m.err != nil {
		body = "help unavailable: " + m.err.Error()
	}
	return m.frame.Width(m.width).Height(m.height).Render(body)
}

// SetSize configures the overlay dimensions and re-renders the markdown to fit.
func (m *Model) SetSize(width, height int) {
	width = max(width, 32)
	height = max(height, 8)
	if m.width == width && m.height == height {
		return
	}
	m.width = width
	m.height = height

	innerWidth := max(width-m.frame.GetHorizontalFrameSize(), 1)
	innerHeight := max(height-m.frame.GetVerticalFrameSize(), 1)
	m.viewport.SetWidth(innerWidth)
	m.viewport.SetHeight(innerHeight)
	m.render(innerWidth)
}

func (m *Model) render(wrap int) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(wrap, 10)),
	)
	if err == nil {
		var content string
		if content, err = renderer.Render(strings.TrimSpace(helpMarkdown)); err == nil {
			m.err = nil
			m.viewport.SetContent(stripANSI(content))
			m.viewport.SetYOffset(0)
			return
		}
	}
	m.err = err
	m.viewport.SetContent("help unavailable: " + err.Error())
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;:]*[A-Za-z~]`)

// stripANSI drops glamour's colours; the viewport is drawn inside a lipgloss
// frame that applies its own.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
