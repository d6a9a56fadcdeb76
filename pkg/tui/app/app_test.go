package teaui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"

	"tableflip.dev/notes/pkg/gateway/memory"
	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/state"
	"tableflip.dev/notes/pkg/tui/components/editor"
)

var t0 = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	gw    *memory.Gateway
	ws    *state.Workspace
	m     *Model
	alice note.Identity
}

// newHarness builds a model over a memory gateway holding three notes for
// alice. When signedIn is false the model starts at the sign-in form.
func newHarness(t *testing.T, signedIn bool) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	gw := memory.New(memory.WithClock(func() time.Time { return t0.Add(24 * time.Hour) }))
	alice, err := gw.AddAccount("alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	gw.Seed(*alice,
		note.Fields{Title: "Project kickoff", Content: "agenda", UpdatedAt: t0.Add(2 * time.Hour)},
		note.Fields{Title: "Groceries", Content: "eggs", UpdatedAt: t0.Add(time.Hour)},
		note.Fields{Title: "", Content: "scratch", UpdatedAt: t0},
	)
	if signedIn {
		if err := gw.SignIn(ctx, "alice@example.com", "secret1"); err != nil {
			t.Fatalf("sign in: %v", err)
		}
	}

	ws := state.New(ctx, gw)
	m := New(ws)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	h := &harness{gw: gw, ws: ws, m: m, alice: *alice}
	h.drain(t, ws.Start())
	return h
}

// drain runs cmds and feeds their results back through the model. Commands
// that do not finish promptly, like cursor blinks, are dropped, as are
// messages the app does not route.
func (h *harness) drain(t *testing.T, cmds ...tea.Cmd) {
	t.Helper()
	queue := append([]tea.Cmd(nil), cmds...)
	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		msg, ok := runCmd(cmd)
		if !ok {
			continue
		}
		switch v := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, []tea.Cmd(v)...)
		case state.Describer:
			_, next := h.m.Update(v)
			if next != nil {
				queue = append(queue, next)
			}
		}
	}
}

func runCmd(cmd tea.Cmd) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func (h *harness) press(t *testing.T, keys ...tea.KeyPressMsg) {
	t.Helper()
	for _, k := range keys {
		_, cmd := h.m.Update(k)
		h.drain(t, cmd)
	}
}

func (h *harness) typeText(t *testing.T, s string) {
	t.Helper()
	for _, r := range s {
		h.press(t, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func (h *harness) view() string {
	v, _ := h.m.View()
	return v
}

func keyRune(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Text: string(r)} }

func ctrl(r rune) tea.KeyPressMsg { return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl} }

var (
	keyDown  = tea.KeyPressMsg{Code: tea.KeyDown}
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyTab   = tea.KeyPressMsg{Code: tea.KeyTab}
	keyEsc   = tea.KeyPressMsg{Code: tea.KeyEscape}
)

func TestSignedOutShowsFormAndSignsIn(t *testing.T) {
	h := newHarness(t, false)

	if v := h.view(); !strings.Contains(v, "Sign In") || !strings.Contains(v, "Email") {
		t.Fatalf("expected sign-in form, got:\n%s", v)
	}

	h.typeText(t, "alice@example.com")
	h.press(t, keyEnter)
	h.typeText(t, "secret1")
	h.press(t, keyEnter)

	if h.ws.Session.State() != state.SessionSignedIn {
		t.Fatalf("expected signed in, got %v (%s)", h.ws.Session.State(), h.ws.Session.Reason())
	}
	v := h.view()
	if !strings.Contains(v, "Signed in as") || !strings.Contains(v, "alice@example.com") {
		t.Fatalf("expected signed-in header, got:\n%s", v)
	}
	if !strings.Contains(v, "Project kickoff") || !strings.Contains(v, note.Untitled) {
		t.Fatalf("expected note list, got:\n%s", v)
	}
}

func TestSignInFailureShownOnForm(t *testing.T) {
	h := newHarness(t, false)

	h.typeText(t, "alice@example.com")
	h.press(t, keyTab)
	h.typeText(t, "wrong-password")
	h.press(t, keyEnter)

	if h.ws.Session.State() != state.SessionSignedOut {
		t.Fatalf("failed sign-in changed state to %v", h.ws.Session.State())
	}
	if v := h.view(); !strings.Contains(v, "Invalid login credentials") {
		t.Fatalf("expected failure on the form, got:\n%s", v)
	}
}

func TestSignUpToggleShowsConfirmNotice(t *testing.T) {
	h := newHarness(t, false)
	h.gw.AutoConfirm = false

	h.press(t, ctrl('t'))
	if v := h.view(); !strings.Contains(v, "Sign Up") {
		t.Fatalf("expected sign-up mode, got:\n%s", v)
	}
	h.typeText(t, "new@example.com")
	h.press(t, keyEnter)
	h.typeText(t, "secret9")
	h.press(t, keyEnter)

	if v := h.view(); !strings.Contains(v, "Check your email") {
		t.Fatalf("expected confirmation notice, got:\n%s", v)
	}
	if h.ws.Session.Current() != nil {
		t.Fatalf("sign-up without confirmation must not sign in")
	}
}

func TestListNavigationFollowsSelection(t *testing.T) {
	h := newHarness(t, true)

	if !h.m.editor.Loaded() {
		t.Fatalf("expected first note to be opened after sign in")
	}
	if title, _ := h.m.editor.Values(); title != "Project kickoff" {
		t.Fatalf("editor title = %q, want Project kickoff", title)
	}

	h.press(t, keyDown)
	if title, content := h.m.editor.Values(); title != "Groceries" || content != "eggs" {
		t.Fatalf("editor = %q/%q after moving down", title, content)
	}

	h.press(t, keyRune('j'), keyRune('j'))
	id, _ := h.ws.Selection.Current()
	items := h.ws.Notes.Items()
	if id != items[len(items)-1].ID {
		t.Fatalf("selection should stop at the last note, got %s", id)
	}

	h.press(t, keyRune('k'))
	if id, _ := h.ws.Selection.Current(); id != items[1].ID {
		t.Fatalf("selection should move up, got %s", id)
	}
}

func TestSearchFiltersAsYouType(t *testing.T) {
	h := newHarness(t, true)

	h.press(t, keyRune('/'))
	if !h.m.sidebar.Searching() {
		t.Fatalf("expected search box focus")
	}
	h.typeText(t, "GRO")

	items := h.ws.Notes.Items()
	if len(items) != 1 || items[0].Title != "Groceries" {
		t.Fatalf("filtered items = %+v", items)
	}
	if h.ws.Notes.Filter() != "GRO" {
		t.Fatalf("filter = %q", h.ws.Notes.Filter())
	}
	if id, _ := h.ws.Selection.Current(); id != items[0].ID {
		t.Fatalf("selection not repaired onto the filtered list")
	}

	h.typeText(t, "zzz")
	if v := h.view(); !strings.Contains(v, "No notes found.") {
		t.Fatalf("expected empty placeholder, got:\n%s", v)
	}
	if !strings.Contains(h.view(), editor.EmptyText) {
		t.Fatalf("expected editor placeholder with nothing selected")
	}

	h.press(t, keyEsc)
	if h.m.sidebar.Searching() {
		t.Fatalf("esc should leave the search box")
	}
}

func TestEditAndSave(t *testing.T) {
	h := newHarness(t, true)
	id, _ := h.ws.Selection.Current()

	h.press(t, keyEnter)
	if !h.m.editor.Focused() {
		t.Fatalf("enter should focus the editor")
	}
	h.typeText(t, " v2")
	h.press(t, ctrl('s'))

	rec, err := h.gw.GetRecord(context.Background(), id, h.alice)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Title != "Project kickoff v2" || rec.Content != "agenda" {
		t.Fatalf("stored record = %+v", rec)
	}
	if got := h.ws.Notes.Items()[0]; got.ID != id || got.Title != "Project kickoff v2" {
		t.Fatalf("list not updated in place: %+v", got)
	}
	if h.ws.Error() != "" {
		t.Fatalf("unexpected banner %q", h.ws.Error())
	}
}

func TestEmptyNoteCannotBeSaved(t *testing.T) {
	h := newHarness(t, true)
	h.press(t, ctrl('n'))
	if title, _ := h.m.editor.Values(); title != note.DefaultTitle {
		t.Fatalf("new note not opened, editor title %q", title)
	}

	h.press(t, keyEnter)
	for range note.DefaultTitle {
		h.press(t, tea.KeyPressMsg{Code: tea.KeyBackspace})
	}
	if title, _ := h.m.editor.Values(); title != "" {
		t.Fatalf("title not cleared: %q", title)
	}
	h.press(t, ctrl('s'))
	if got := h.gw.Calls(memory.OpUpdate); got != 0 {
		t.Fatalf("empty note reached the gateway %d times", got)
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	h := newHarness(t, true)
	id, _ := h.ws.Selection.Current()

	h.press(t, keyRune('d'))
	if v := h.view(); !strings.Contains(v, `Delete "Project kickoff"? (y/n)`) {
		t.Fatalf("expected confirmation prompt, got:\n%s", v)
	}
	h.press(t, keyRune('n'))
	if got := h.gw.Calls(memory.OpDelete); got != 0 {
		t.Fatalf("declined delete reached the gateway")
	}

	h.press(t, keyRune('d'), keyRune('y'))
	if got := h.gw.Calls(memory.OpDelete); got != 1 {
		t.Fatalf("delete calls = %d, want 1", got)
	}
	if note.Index(h.ws.Notes.Items(), id) >= 0 {
		t.Fatalf("deleted note still listed")
	}
	next, ok := h.ws.Selection.Current()
	if !ok || next != h.ws.Notes.Items()[0].ID {
		t.Fatalf("selection not repaired after delete: %q", next)
	}
}

func TestBannerShowsAndDismisses(t *testing.T) {
	h := newHarness(t, true)
	h.gw.FailNext(memory.OpCreate, errors.New("offline"))

	h.press(t, keyRune('n'))
	if v := h.view(); !strings.Contains(v, "Could not create a new note: offline") {
		t.Fatalf("expected banner, got:\n%s", v)
	}
	if h.ws.Notes.Len() != 3 {
		t.Fatalf("failed create changed the list")
	}

	h.press(t, keyEsc)
	if h.ws.Error() != "" || strings.Contains(h.view(), "offline") {
		t.Fatalf("esc should dismiss the banner")
	}
}

func TestLogOutReturnsToForm(t *testing.T) {
	h := newHarness(t, true)

	h.press(t, ctrl('l'))
	if h.ws.Session.State() != state.SessionSignedOut {
		t.Fatalf("expected signed out")
	}
	if h.m.editor.Loaded() || h.ws.Notes.Len() != 0 {
		t.Fatalf("identity-scoped state survived sign out")
	}
	if v := h.view(); !strings.Contains(v, "Sign In") || strings.Contains(v, "Project kickoff") {
		t.Fatalf("expected bare sign-in form, got:\n%s", v)
	}
}

func TestHelpOverlay(t *testing.T) {
	h := newHarness(t, true)

	h.press(t, keyRune('?'))
	if v := h.view(); !strings.Contains(v, "Notes list") {
		t.Fatalf("expected help overlay, got:\n%s", v)
	}
	h.press(t, keyEsc)
	if h.m.help != nil {
		t.Fatalf("esc should close help")
	}
}

func TestCheckingSessionPlaceholder(t *testing.T) {
	ws := state.New(context.Background(), memory.New())
	m := New(ws)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	if v, _ := m.View(); !strings.Contains(v, checkingText) {
		t.Fatalf("expected %q before the session resolves, got:\n%s", checkingText, v)
	}
}
