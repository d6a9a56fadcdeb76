package theme

import "github.com/charmbracelet/lipgloss/v2"

// Theme centralizes Lip Gloss styles for the Bubble Tea UI.
type Theme struct {
	Header  HeaderTheme
	Sidebar SidebarTheme
	Editor  EditorTheme
	Banner  BannerTheme
	Footer  FooterTheme
	Modal   ModalTheme
}

// HeaderTheme styles the signed-in bar at the top of the screen.
type HeaderTheme struct {
	Title lipgloss.Style
	User  lipgloss.Style
	Hint  lipgloss.Style
}

// SidebarTheme styles the search box and note list.
type SidebarTheme struct {
	Frame       lipgloss.Style
	FocusFrame  lipgloss.Style
	Item        lipgloss.Style
	Selected    lipgloss.Style
	Timestamp   lipgloss.Style
	Placeholder lipgloss.Style
}

// EditorTheme styles the editor pane.
type EditorTheme struct {
	Frame      lipgloss.Style
	FocusFrame lipgloss.Style
	Label      lipgloss.Style
	Empty      lipgloss.Style
	Button     lipgloss.Style
	Disabled   lipgloss.Style
}

// BannerTheme styles the error and notice banners.
type BannerTheme struct {
	Error  lipgloss.Style
	Notice lipgloss.Style
}

// FooterTheme groups styles used by the bottom status bar.
type FooterTheme struct {
	Help    lipgloss.Style
	Status  lipgloss.Style
	Confirm lipgloss.Style
}

// ModalTheme styles centered modal overlays (e.g., the sign-in form).
type ModalTheme struct {
	Frame lipgloss.Style
	Title lipgloss.Style
	Body  lipgloss.Style
}

// Default returns the built-in theme used across the UI.
func Default() Theme {
	accent := lipgloss.Color("212")
	muted := lipgloss.Color("244")

	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
	focusFrame := frame.BorderForeground(accent)

	return Theme{
		Header: HeaderTheme{
			Title: lipgloss.NewStyle().Foreground(accent).Bold(true),
			User:  lipgloss.NewStyle().Bold(true),
			Hint:  lipgloss.NewStyle().Foreground(muted),
		},
		Sidebar: SidebarTheme{
			Frame:       frame,
			FocusFrame:  focusFrame,
			Item:        lipgloss.NewStyle(),
			Selected:    lipgloss.NewStyle().Foreground(accent).Bold(true),
			Timestamp:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
			Placeholder: lipgloss.NewStyle().Foreground(muted).Italic(true),
		},
		Editor: EditorTheme{
			Frame:      frame,
			FocusFrame: focusFrame,
			Label:      lipgloss.NewStyle().Foreground(muted),
			Empty:      lipgloss.NewStyle().Foreground(muted).Italic(true),
			Button:     lipgloss.NewStyle().Foreground(accent).Bold(true),
			Disabled:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		},
		Banner: BannerTheme{
			Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")).Padding(0, 1),
			Notice: lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Padding(0, 1),
		},
		Footer: FooterTheme{
			Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			Status:  lipgloss.NewStyle().Foreground(muted),
			Confirm: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		},
		Modal: ModalTheme{
			Frame: lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(1, 2),
			Title: lipgloss.NewStyle().Bold(true),
			Body:  lipgloss.NewStyle(),
		},
	}
}
