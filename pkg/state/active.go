package state

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

// Active owns the one fully loaded note.
type Active struct {
	gw gateway.Records

	target   string
	note     *note.Detail
	activity Activity

	// version increases whenever the held note is replaced, so editors know
	// when to reset their buffers.
	version uint64

	seq         uint64
	loadPending bool
	token       uint64
}

// NewActive returns a controller holding no note.
func NewActive(gw gateway.Records) *Active {
	return &Active{gw: gw}
}

// Current returns the loaded note.
func (a *Active) Current() (note.Detail, bool) {
	if a.note == nil {
		return note.Detail{}, false
	}
	return *a.note, true
}

// Target is the id being shown or loaded, or "".
func (a *Active) Target() string { return a.target }

func (a *Active) Activity() Activity { return a.activity }

func (a *Active) Version() uint64 { return a.version }

// Load fetches the note id for owner. With no owner or no id the active note
// is cleared without a request.
func (a *Active) Load(ctx context.Context, owner *note.Identity, id string) tea.Cmd {
	a.seq++
	a.target = id
	a.loadPending = false
	if owner == nil || id == "" {
		a.target = ""
		a.set(nil)
		a.activity = idle()
		return nil
	}
	if a.note != nil && a.note.ID != id {
		a.set(nil)
	}
	if a.activity.Status != Committing {
		a.activity = loading()
	}
	a.loadPending = true

	o, seq, gw := *owner, a.seq, a.gw
	return func() tea.Msg {
		d, err := gw.GetRecord(ctx, id, o)
		return NoteLoadedMsg{Seq: seq, Owner: o, ID: id, Note: d, Err: err}
	}
}

// ApplyLoaded installs the result of the latest Load. A missing or foreign
// note clears the active note rather than leaving stale content visible.
func (a *Active) ApplyLoaded(msg NoteLoadedMsg) bool {
	if msg.Seq != a.seq {
		log.Debug("state: dropping stale note", "id", msg.ID, "seq", msg.Seq, "latest", a.seq)
		return false
	}
	a.loadPending = false
	if msg.Err != nil {
		a.set(nil)
		if a.activity.Status != Committing {
			a.activity = failed(gateway.Reason(msg.Err))
		}
		return true
	}
	d := msg.Note
	a.set(&d)
	if a.activity.Status == Loading {
		a.activity = idle()
	}
	return true
}

// Save writes title and content to the active note. Empty notes, notes that
// are not loaded and overlapping commits are rejected without a request.
func (a *Active) Save(ctx context.Context, owner *note.Identity, id, title, content string, now time.Time) (tea.Cmd, error) {
	const op = "save"
	if err := a.guard(op, owner, id); err != nil {
		return nil, err
	}
	if a.note == nil || a.note.ID != id {
		return nil, gateway.Errorf(gateway.KindValidation, op, "note %s is not loaded", id)
	}
	fields := note.Fields{Title: strings.TrimSpace(title), Content: content, UpdatedAt: now}
	if fields.Empty() {
		return nil, gateway.Errorf(gateway.KindValidation, op, "cannot save an empty note")
	}

	a.token++
	a.activity = committing()
	o, token, gw := *owner, a.token, a.gw
	return func() tea.Msg {
		d, err := gw.UpdateRecord(ctx, id, o, fields)
		return NoteSavedMsg{Token: token, Owner: o, ID: id, Note: d, Err: err}
	}, nil
}

// ApplySaved replaces the active note with the stored record. It reports
// false for results issued before the last Clear.
func (a *Active) ApplySaved(msg NoteSavedMsg) bool {
	if msg.Token != a.token {
		return false
	}
	a.settle(msg.Err)
	if msg.Err != nil {
		return true
	}
	if a.note != nil && a.note.ID == msg.Note.ID {
		d := msg.Note
		a.set(&d)
	}
	return true
}

// Delete removes the note id. Confirmation is the caller's job.
func (a *Active) Delete(ctx context.Context, owner *note.Identity, id string) (tea.Cmd, error) {
	const op = "delete"
	if err := a.guard(op, owner, id); err != nil {
		return nil, err
	}

	a.token++
	a.activity = committing()
	o, token, gw := *owner, a.token, a.gw
	return func() tea.Msg {
		return NoteDeletedMsg{Token: token, Owner: o, ID: id, Err: gw.DeleteRecord(ctx, id, o)}
	}, nil
}

// ApplyDeleted clears the active note if it was the one deleted.
func (a *Active) ApplyDeleted(msg NoteDeletedMsg) bool {
	if msg.Token != a.token {
		return false
	}
	a.settle(msg.Err)
	if msg.Err != nil {
		return true
	}
	if a.target == msg.ID {
		a.seq++
		a.loadPending = false
		a.target = ""
		a.set(nil)
		a.activity = idle()
	}
	return true
}

// Clear drops the active note and every outstanding request.
func (a *Active) Clear() {
	a.seq++
	a.token++
	a.loadPending = false
	a.target = ""
	a.set(nil)
	a.activity = idle()
}

func (a *Active) guard(op string, owner *note.Identity, id string) error {
	switch {
	case owner == nil:
		return gateway.Wrap(gateway.KindValidation, op, errNotSignedIn)
	case id == "":
		return gateway.Errorf(gateway.KindValidation, op, "no note selected")
	case a.activity.Status == Committing:
		return gateway.Errorf(gateway.KindValidation, op, "another change is still being saved")
	}
	return nil
}

// settle ends a commit. A load issued during the commit is still pending.
func (a *Active) settle(err error) {
	switch {
	case err != nil:
		a.activity = failed(gateway.Reason(err))
	case a.loadPending:
		a.activity = loading()
	default:
		a.activity = idle()
	}
}

func (a *Active) set(d *note.Detail) {
	if a.note == nil && d == nil {
		return
	}
	a.note = d
	a.version++
}
