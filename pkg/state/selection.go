package state

import "tableflip.dev/notes/pkg/note"

// Selection holds at most one note id.
type Selection struct {
	id string
}

// Current returns the selected id.
func (s *Selection) Current() (string, bool) {
	return s.id, s.id != ""
}

// Select points the selection at id. An empty id clears it.
func (s *Selection) Select(id string) {
	s.id = id
}

// Clear unselects.
func (s *Selection) Clear() {
	s.id = ""
}

// Repair keeps the selection pointing into items: an id missing from items is
// replaced by the first item, or cleared when items is empty. It reports
// whether the selection changed.
func (s *Selection) Repair(items []note.Summary) bool {
	if s.id != "" && note.Index(items, s.id) >= 0 {
		return false
	}
	prev := s.id
	s.id = ""
	if len(items) > 0 {
		s.id = items[0].ID
	}
	return s.id != prev
}
