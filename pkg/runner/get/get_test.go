package get

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/notes/pkg/gateway/memory"
	"tableflip.dev/notes/pkg/note"
)

var t0 = time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)

func seeded(t *testing.T, signIn bool) (*memory.Gateway, []note.Detail) {
	t.Helper()
	gw := memory.New()
	owner, err := gw.AddAccount("alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("add account: %v", err)
	}
	notes := gw.Seed(*owner,
		note.Fields{Title: "Project kickoff", Content: "agenda", UpdatedAt: t0.Add(time.Hour)},
		note.Fields{Title: "Groceries", Content: "eggs\nmilk", UpdatedAt: t0},
	)
	if signIn {
		if err := gw.SignIn(context.Background(), "alice@example.com", "secret1"); err != nil {
			t.Fatalf("sign in: %v", err)
		}
	}
	return gw, notes
}

func TestGetRequiresSession(t *testing.T) {
	gw, _ := seeded(t, false)
	g := &Get{Gateway: gw, Out: &bytes.Buffer{}}
	if err := g.Do(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestGetListsFiltered(t *testing.T) {
	color.NoColor = true
	gw, _ := seeded(t, true)
	var buf bytes.Buffer
	g := &Get{Gateway: gw, Filter: "GROC", Out: &buf}
	if err := g.Do(context.Background()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Groceries") || strings.Contains(out, "Project kickoff") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, `Notes matching "GROC" - 1 note`) {
		t.Fatalf("missing heading:\n%s", out)
	}
}

func TestGetListJSON(t *testing.T) {
	gw, _ := seeded(t, true)
	var buf bytes.Buffer
	g := &Get{Gateway: gw, JSON: true, Out: &buf}
	if err := g.Do(context.Background()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	var items []note.Summary
	if err := json.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if len(items) != 2 || items[0].Title != "Project kickoff" {
		t.Fatalf("unexpected items %+v", items)
	}
}

func TestGetSingleNote(t *testing.T) {
	color.NoColor = true
	gw, notes := seeded(t, true)
	var buf bytes.Buffer
	g := &Get{Gateway: gw, ID: notes[1].ID, Out: &buf}
	if err := g.Do(context.Background()); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "Groceries") || !strings.Contains(out, "milk") {
		t.Fatalf("unexpected output:\n%s", out)
	}

	g = &Get{Gateway: gw, ID: "missing", Out: &bytes.Buffer{}}
	if err := g.Do(context.Background()); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetSurfacesGatewayFailure(t *testing.T) {
	gw, _ := seeded(t, true)
	gw.FailNext(memory.OpList, errors.New("connection refused"))
	g := &Get{Gateway: gw, Out: &bytes.Buffer{}}
	err := g.Do(context.Background())
	if err == nil || err.Error() != "Could not load notes: connection refused" {
		t.Fatalf("unexpected error %v", err)
	}
}
