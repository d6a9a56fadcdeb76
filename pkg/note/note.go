// Package note defines the records the notes client mirrors from its backend.
package note

import (
	"sort"
	"strings"
	"time"
)

// DefaultTitle is the title given to freshly created notes.
const DefaultTitle = "New Note"

// Identity is the authenticated principal a session belongs to. A nil
// *Identity means nobody is signed in.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Same reports whether a and b denote the same principal. Two nil identities
// are the same; a nil and a non-nil identity are not.
func Same(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}

func (i *Identity) String() string {
	if i == nil {
		return "(anonymous)"
	}
	if i.Email != "" {
		return i.Email
	}
	return i.ID
}

// Fields are the writable parts of a note record.
type Fields struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Empty reports whether the fields carry nothing worth persisting.
func (f Fields) Empty() bool {
	return strings.TrimSpace(f.Title) == "" && f.Content == ""
}

// Summary is the list-view projection of a note.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Detail is a fully loaded note record.
type Detail struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary projects the detail into its list-view form.
func (d Detail) Summary() Summary {
	return Summary{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		UpdatedAt: d.UpdatedAt,
	}
}

// MatchesFilter reports whether title contains term, ignoring case. An empty
// or blank term matches everything.
func MatchesFilter(title, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(term))
}

// SortByUpdated orders summaries newest first. Ties keep their relative order.
func SortByUpdated(notes []Summary) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}

// Index returns the position of id within notes, or -1.
func Index(notes []Summary, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}
