package state

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

var errNotSignedIn = errors.New("not signed in")

// Collection owns the filtered note list for the current identity.
type Collection struct {
	gw gateway.Records

	filter   string
	items    []note.Summary
	activity Activity

	// seq tags refreshes; token tags creates. Clear bumps both so results
	// from before a reset are never applied.
	seq   uint64
	token uint64
	// creating is set from Create until its result is applied. Refreshes
	// leave it alone.
	creating bool
}

// NewCollection returns an empty collection.
func NewCollection(gw gateway.Records) *Collection {
	return &Collection{gw: gw}
}

// Items returns a copy of the current list.
func (c *Collection) Items() []note.Summary {
	out := make([]note.Summary, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Collection) Len() int { return len(c.items) }

func (c *Collection) Filter() string { return c.filter }

func (c *Collection) Activity() Activity { return c.activity }

// Creating reports whether a create is waiting for the gateway.
func (c *Collection) Creating() bool { return c.creating }

// Refresh lists the owner's notes matching filter. With no identity the list
// is emptied and no request is made.
func (c *Collection) Refresh(ctx context.Context, owner *note.Identity, filter string) tea.Cmd {
	c.seq++
	c.filter = filter
	if owner == nil {
		c.items = nil
		c.activity = idle()
		return nil
	}
	o := *owner
	c.activity = loading()

	seq, gw := c.seq, c.gw
	return func() tea.Msg {
		notes, err := gw.ListRecords(ctx, o, filter)
		return NotesLoadedMsg{Seq: seq, Owner: o, Filter: filter, Notes: notes, Err: err}
	}
}

// ApplyLoaded installs a refresh result if it answers the latest Refresh. A
// failed refresh keeps the previous list.
func (c *Collection) ApplyLoaded(msg NotesLoadedMsg) bool {
	if msg.Seq != c.seq {
		log.Debug("state: dropping stale list", "seq", msg.Seq, "latest", c.seq)
		return false
	}
	if msg.Err != nil {
		c.activity = failed(gateway.Reason(msg.Err))
		return true
	}
	items := make([]note.Summary, 0, len(msg.Notes))
	for _, n := range msg.Notes {
		if note.MatchesFilter(n.Title, msg.Filter) {
			items = append(items, n)
		}
	}
	note.SortByUpdated(items)
	c.items = items
	c.activity = idle()
	return true
}

// Create persists a new note with the default title. It fails locally when
// nobody is signed in or another create is still in flight.
func (c *Collection) Create(ctx context.Context, owner *note.Identity, now time.Time) (tea.Cmd, error) {
	const op = "create"
	if owner == nil {
		return nil, gateway.Wrap(gateway.KindValidation, op, errNotSignedIn)
	}
	if c.creating {
		return nil, gateway.Errorf(gateway.KindValidation, op, "a note is already being created")
	}
	c.token++
	c.creating = true

	o, token, gw := *owner, c.token, c.gw
	fields := note.Fields{Title: note.DefaultTitle, UpdatedAt: now}
	return func() tea.Msg {
		d, err := gw.CreateRecord(ctx, o, fields)
		return NoteCreatedMsg{Token: token, Owner: o, Note: d, Err: err}
	}, nil
}

// ApplyCreated prepends the gateway's record. It reports false for results
// issued before the last Clear.
func (c *Collection) ApplyCreated(msg NoteCreatedMsg) bool {
	if msg.Token != c.token {
		return false
	}
	c.creating = false
	if msg.Err != nil {
		return true
	}
	items := make([]note.Summary, 0, len(c.items)+1)
	items = append(items, msg.Note.Summary())
	for _, n := range c.items {
		if n.ID != msg.Note.ID {
			items = append(items, n)
		}
	}
	c.items = items
	return true
}

// ApplyUpdate replaces the entry with the same id in place. The list is not
// re-sorted until the next Refresh.
func (c *Collection) ApplyUpdate(s note.Summary) {
	if i := note.Index(c.items, s.ID); i >= 0 {
		c.items[i] = s
	}
}

// ApplyDelete removes the entry with the given id.
func (c *Collection) ApplyDelete(id string) {
	if i := note.Index(c.items, id); i >= 0 {
		c.items = append(c.items[:i:i], c.items[i+1:]...)
	}
}

// Clear forgets the list, the filter and every outstanding request.
func (c *Collection) Clear() {
	c.seq++
	c.token++
	c.creating = false
	c.filter = ""
	c.items = nil
	c.activity = idle()
}
