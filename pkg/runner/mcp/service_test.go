package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/gateway/memory"
	"tableflip.dev/notes/pkg/note"
)

var t0 = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

func newSignedInService(t *testing.T) (*Service, *memory.Gateway, note.Identity) {
	t.Helper()
	gw := memory.New()
	owner, err := gw.AddAccount("alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	if err := gw.SignIn(context.Background(), "alice@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	gw.Seed(*owner,
		note.Fields{Title: "Project kickoff", Content: "\n  agenda\nmore", UpdatedAt: t0.Add(time.Hour)},
		note.Fields{Title: "Groceries", Content: "eggs", UpdatedAt: t0},
	)
	svc := NewService(gw)
	svc.Now = func() time.Time { return t0.Add(48 * time.Hour) }
	return svc, gw, *owner
}

func TestServiceRequiresSession(t *testing.T) {
	svc := NewService(memory.New())
	if _, err := svc.ListNotes(context.Background(), ""); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestServiceListNotes(t *testing.T) {
	svc, _, _ := newSignedInService(t)

	notes, err := svc.ListNotes(context.Background(), "")
	if err != nil {
		t.Fatalf("ListNotes failed: %v", err)
	}
	if len(notes) != 2 || notes[0].Title != "Project kickoff" {
		t.Fatalf("unexpected notes %+v", notes)
	}
	if notes[0].Preview != "agenda" {
		t.Fatalf("preview = %q, want agenda", notes[0].Preview)
	}
	if notes[0].Content != "" {
		t.Fatalf("list should not carry full content")
	}

	filtered, err := svc.ListNotes(context.Background(), "  GROC ")
	if err != nil {
		t.Fatalf("ListNotes filtered failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "Groceries" {
		t.Fatalf("unexpected filtered notes %+v", filtered)
	}
}

func TestServiceCreateDefaultsTitle(t *testing.T) {
	svc, _, _ := newSignedInService(t)

	dto, err := svc.CreateNote(context.Background(), "   ", "")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if dto.ID == "" || dto.Title != note.DefaultTitle {
		t.Fatalf("unexpected dto %+v", dto)
	}
	if dto.UpdatedUnix != t0.Add(48*time.Hour).Unix() {
		t.Fatalf("timestamp not taken from clock: %s", dto.UpdatedISO)
	}
}

func TestServiceUpdateKeepsOmittedFields(t *testing.T) {
	svc, gw, owner := newSignedInService(t)
	ctx := context.Background()
	list, _ := svc.ListNotes(ctx, "groc")
	id := list[0].ID

	title := "  Shopping  "
	dto, err := svc.UpdateNote(ctx, UpdateNoteOptions{ID: id, Title: &title})
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}
	if dto.Title != "Shopping" || dto.Content != "eggs" {
		t.Fatalf("unexpected dto %+v", dto)
	}
	stored, err := gw.GetRecord(ctx, id, owner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.UpdatedAt.Equal(t0.Add(48 * time.Hour)) {
		t.Fatalf("update not stamped: %v", stored.UpdatedAt)
	}
}

func TestServiceUpdateRejectsEmpty(t *testing.T) {
	svc, gw, _ := newSignedInService(t)
	ctx := context.Background()
	list, _ := svc.ListNotes(ctx, "groc")

	blank, empty := " ", ""
	_, err := svc.UpdateNote(ctx, UpdateNoteOptions{ID: list[0].ID, Title: &blank, Content: &empty})
	if gateway.KindOf(err) != gateway.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := gw.Calls(memory.OpUpdate); got != 0 {
		t.Fatalf("empty update reached the gateway %d times", got)
	}
}

func TestServiceDeleteAndMissing(t *testing.T) {
	svc, _, _ := newSignedInService(t)
	ctx := context.Background()
	list, _ := svc.ListNotes(ctx, "groc")

	if err := svc.DeleteNote(ctx, list[0].ID); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if _, err := svc.GetNote(ctx, list[0].ID); !gateway.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestServerToolCall(t *testing.T) {
	svc, _, _ := newSignedInService(t)
	srv := newServer("notes", "test", svc)

	req := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_notes","arguments":{"filter":"kick"}}}`
	resp := srv.HandleMessage(context.Background(), json.RawMessage(req))
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "Project kickoff") || strings.Contains(out, "Groceries") {
		t.Fatalf("unexpected tool response: %s", out)
	}
}
