// Package authform renders the email/password form shown while signed out.
package authform

import (
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/muesli/reflow/wordwrap"

	"tableflip.dev/notes/pkg/tui/theme"
)

// Mode selects what submitting the form does.
type Mode int

const (
	SignIn Mode = iota
	SignUp
)

func (m Mode) String() string {
	if m == SignUp {
		return "Sign Up"
	}
	return "Sign In"
}

// SubmitMsg is emitted when the user submits the form.
type SubmitMsg struct {
	Mode     Mode
	Email    string
	Password string
}

// Describe implements the logging hook used by the app.
func (m SubmitMsg) Describe() string {
	return "authform: submit " + m.Mode.String() + " " + m.Email
}

// Status is what the session reports back to the form.
type Status struct {
	Busy   bool
	Error  string
	Notice string
}

// Model owns the two inputs and the sign-in/sign-up toggle.
type Model struct {
	theme    theme.ModalTheme
	banner   theme.BannerTheme
	email    textinput.Model
	password textinput.Model
	mode     Mode
	focus    int

	width int
}

// New constructs a form in sign-in mode with the email field focused.
func New(modal theme.ModalTheme, banner theme.BannerTheme) *Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = ""
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &Model{theme: modal, banner: banner, email: email, password: password}
}

// Init focuses the email field.
func (m *Model) Init() tea.Cmd {
	m.focus = 0
	return m.updateInputFocus()
}

// Mode is the current action.
func (m *Model) Mode() Mode { return m.mode }

// SetWidth sets the width of the form body.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.email.SetWidth(max(width-1, 8))
	m.password.SetWidth(max(width-1, 8))
}

// Reset clears the password and returns to sign-in mode. The email is kept
// so a failed or signed-out user can retry quickly.
func (m *Model) Reset() {
	m.password.SetValue("")
	m.mode = SignIn
	m.focus = 0
}

func (m *Model) updateInputFocus() tea.Cmd {
	if m.focus == 0 {
		m.password.Blur()
		return m.email.Focus()
	}
	m.email.Blur()
	return m.password.Focus()
}

// Update handles keys. Enter on the email field moves to the password;
// enter on the password submits.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+t":
			if m.mode == SignIn {
				m.mode = SignUp
			} else {
				m.mode = SignIn
			}
			return nil
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			return m.updateInputFocus()
		case "enter":
			if m.focus == 0 {
				m.focus = 1
				return m.updateInputFocus()
			}
			submit := SubmitMsg{
				Mode:     m.mode,
				Email:    strings.TrimSpace(m.email.Value()),
				Password: m.password.Value(),
			}
			return func() tea.Msg { return submit }
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return cmd
}

// View renders the form as a modal box.
func (m *Model) View(st Status) (string, *tea.Cursor) {
	width := max(m.width, 24)
	lines := []string{
		m.theme.Title.Render(m.mode.String()),
		"",
		"Email",
		m.email.View(),
		"",
		"Password",
		m.password.View(),
		"",
	}
	switch {
	case st.Busy:
		lines = append(lines, "Working…")
	case st.Error != "":
		lines = append(lines, m.banner.Error.Render(wordwrap.String(st.Error, width-2)))
	case st.Notice != "":
		lines = append(lines, m.banner.Notice.Render(wordwrap.String(st.Notice, width-2)))
	default:
		lines = append(lines, "")
	}
	toggle := "Need an account? ctrl+t to sign up"
	if m.mode == SignUp {
		toggle = "Have an account? ctrl+t to sign in"
	}
	lines = append(lines, "", m.theme.Body.Render(toggle))

	body := lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
	box := m.theme.Frame.Render(body)

	input, row := m.email, 3
	if m.focus == 1 {
		input, row = m.password, 6
	}
	var cursor *tea.Cursor
	if c := input.Cursor(); c != nil {
		clone := *c
		clone.Position.X += m.theme.Frame.GetBorderLeftSize() + m.theme.Frame.GetPaddingLeft()
		clone.Position.Y += m.theme.Frame.GetBorderTopSize() + m.theme.Frame.GetPaddingTop() + row
		cursor = &clone
	}
	return box, cursor
}
