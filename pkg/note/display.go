package note

import "strings"

// Untitled is shown in place of a blank title.
const Untitled = "(Untitled)"

// DisplayTitle returns the title to show for a note in lists.
func DisplayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return Untitled
	}
	return title
}

// Preview returns the first non-blank line of content.
func Preview(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
