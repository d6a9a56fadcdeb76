package state

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

// Option customises a Workspace.
type Option func(*Workspace)

// WithClock sets the clock used to timestamp creates and saves.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		if now != nil {
			w.now = now
		}
	}
}

// WithRedirect sets the address confirmation emails link back to.
func WithRedirect(url string) Option {
	return func(w *Workspace) {
		w.redirect = url
	}
}

// Workspace wires the session, collection, active note and selection
// together and owns the error banner. All methods must be called from the
// goroutine that runs Update.
type Workspace struct {
	ctx      context.Context
	now      func() time.Time
	redirect string

	Session   *Session
	Notes     *Collection
	Active    *Active
	Selection *Selection

	banner string
	// epoch counts identity resets; views compare it to drop their buffers.
	epoch uint64
}

// New builds a workspace over gw. ctx bounds every request it issues.
func New(ctx context.Context, gw gateway.Gateway, opts ...Option) *Workspace {
	w := &Workspace{
		ctx:       ctx,
		now:       time.Now,
		Session:   NewSession(gw),
		Notes:     NewCollection(gw),
		Active:    NewActive(gw),
		Selection: &Selection{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.Session.OnIdentityChanged(w.identityChanged)
	return w
}

// Start resolves the stored session.
func (w *Workspace) Start() tea.Cmd {
	return w.Session.Resolve(w.ctx)
}

// Watch subscribes to provider-pushed session changes.
func (w *Workspace) Watch() tea.Cmd {
	return w.Session.Watch(w.ctx)
}

// identityChanged resets every identity-scoped controller before the new
// identity's list is requested.
func (w *Workspace) identityChanged(prev, next *note.Identity) tea.Cmd {
	log.Info("state: identity changed, resetting", "from", prev.String(), "to", next.String())
	w.Selection.Clear()
	w.Active.Clear()
	w.Notes.Clear()
	w.banner = ""
	w.epoch++
	return w.Notes.Refresh(w.ctx, next, "")
}

// Update applies a completion message and returns any follow-up request.
// Messages this package does not own are ignored.
func (w *Workspace) Update(msg tea.Msg) tea.Cmd {
	if d, ok := msg.(Describer); ok {
		log.Debug("state: update", "msg", d.Describe())
	}
	switch msg := msg.(type) {
	case SessionResolvedMsg:
		return w.Session.ApplyResolved(msg)
	case SessionWatchMsg:
		return w.Session.ApplyWatch(msg)
	case SessionEventMsg:
		return w.Session.ApplyEvent(msg)
	case AuthResultMsg:
		return w.Session.ApplyAuth(msg)

	case NotesLoadedMsg:
		if !w.Notes.ApplyLoaded(msg) {
			return nil
		}
		if msg.Err != nil {
			w.fail("Could not load notes", msg.Err)
		}
		return w.repair()

	case NoteCreatedMsg:
		if !w.owns(msg.Owner) || !w.Notes.ApplyCreated(msg) {
			return nil
		}
		if msg.Err != nil {
			w.fail("Could not create a new note", msg.Err)
			return nil
		}
		w.Selection.Select(msg.Note.ID)
		return w.syncActive()

	case NoteLoadedMsg:
		if !w.Active.ApplyLoaded(msg) {
			return nil
		}
		if msg.Err != nil {
			w.fail("Could not open the note", msg.Err)
		}
		return nil

	case NoteSavedMsg:
		if !w.owns(msg.Owner) || !w.Active.ApplySaved(msg) {
			return nil
		}
		if msg.Err != nil {
			w.fail("Could not save the note", msg.Err)
			return nil
		}
		w.Notes.ApplyUpdate(msg.Note.Summary())
		return nil

	case NoteDeletedMsg:
		if !w.owns(msg.Owner) || !w.Active.ApplyDeleted(msg) {
			return nil
		}
		if msg.Err != nil {
			w.fail("Could not delete the note", msg.Err)
			return nil
		}
		w.Notes.ApplyDelete(msg.ID)
		if id, _ := w.Selection.Current(); id == msg.ID {
			w.Selection.Clear()
		}
		return w.repair()
	}
	return nil
}

// owns reports whether a mutation issued for owner still belongs to the
// signed-in identity.
func (w *Workspace) owns(owner note.Identity) bool {
	if note.Same(&owner, w.Session.Current()) {
		return true
	}
	log.Debug("state: dropping result for previous identity", "owner", owner.ID)
	return false
}

// repair fixes the selection against the list and loads whatever it points
// at.
func (w *Workspace) repair() tea.Cmd {
	w.Selection.Repair(w.Notes.Items())
	return w.syncActive()
}

// syncActive makes the active note follow the selection.
func (w *Workspace) syncActive() tea.Cmd {
	id, _ := w.Selection.Current()
	if id == w.Active.Target() {
		return nil
	}
	return w.Active.Load(w.ctx, w.Session.Current(), id)
}

func (w *Workspace) fail(action string, err error) {
	w.banner = action + ": " + gateway.Reason(err)
	log.Warn("state: "+action, "err", err)
}

// Error is the banner text for the most recent failure, or "".
func (w *Workspace) Error() string { return w.banner }

// DismissError hides the banner.
func (w *Workspace) DismissError() { w.banner = "" }

// Epoch increases on every identity reset.
func (w *Workspace) Epoch() uint64 { return w.epoch }

// Search re-lists the notes whose title contains term.
func (w *Workspace) Search(term string) tea.Cmd {
	w.banner = ""
	return w.Notes.Refresh(w.ctx, w.Session.Current(), term)
}

// Select picks a listed note and loads it. Ids not in the list are ignored.
func (w *Workspace) Select(id string) tea.Cmd {
	if note.Index(w.Notes.Items(), id) < 0 {
		return nil
	}
	w.banner = ""
	w.Selection.Select(id)
	return w.syncActive()
}

// Create adds a "New Note" and selects it once stored.
func (w *Workspace) Create() tea.Cmd {
	w.banner = ""
	cmd, err := w.Notes.Create(w.ctx, w.Session.Current(), w.now())
	if err != nil {
		w.fail("Could not create a new note", err)
		return nil
	}
	return cmd
}

// Save writes title and content to the selected note.
func (w *Workspace) Save(title, content string) tea.Cmd {
	w.banner = ""
	id, _ := w.Selection.Current()
	cmd, err := w.Active.Save(w.ctx, w.Session.Current(), id, title, content, w.now())
	if err != nil {
		w.fail("Could not save the note", err)
		return nil
	}
	return cmd
}

// CanSave reports whether Save would issue a request for these values.
func (w *Workspace) CanSave(title, content string) bool {
	id, ok := w.Selection.Current()
	cur, loaded := w.Active.Current()
	return ok && loaded && cur.ID == id &&
		w.Active.Activity().Status != Committing &&
		!note.Fields{Title: title, Content: content}.Empty()
}

// Delete removes the selected note. Callers confirm with the user first.
func (w *Workspace) Delete() tea.Cmd {
	w.banner = ""
	id, _ := w.Selection.Current()
	cmd, err := w.Active.Delete(w.ctx, w.Session.Current(), id)
	if err != nil {
		w.fail("Could not delete the note", err)
		return nil
	}
	return cmd
}

func (w *Workspace) SignIn(email, password string) tea.Cmd {
	return w.Session.SignIn(w.ctx, email, password)
}

func (w *Workspace) SignUp(email, password string) tea.Cmd {
	return w.Session.SignUp(w.ctx, email, password, w.redirect)
}

func (w *Workspace) SignOut() tea.Cmd {
	w.banner = ""
	return w.Session.SignOut(w.ctx)
}
