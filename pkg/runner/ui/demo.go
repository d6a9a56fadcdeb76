package ui

import (
	"context"
	"time"

	"tableflip.dev/notes/pkg/gateway/memory"
	"tableflip.dev/notes/pkg/note"
)

// Demo account credentials, shown by `notes ui --demo`.
const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "demo1234"
)

// DemoGateway returns an in-memory backend with a signed-in demo account
// and a handful of notes.
func DemoGateway(ctx context.Context) (*memory.Gateway, error) {
	gw := memory.New()
	owner, err := gw.AddAccount(DemoEmail, DemoPassword)
	if err != nil {
		return nil, err
	}
	if _, err := gw.AddAccount("guest@example.com", "guest1234"); err != nil {
		return nil, err
	}

	now := time.Now()
	gw.Seed(*owner,
		note.Fields{Title: "Welcome", Content: "Press ? for keys.\nEverything here lives in memory and is gone when you quit.", UpdatedAt: now},
		note.Fields{Title: "Groceries", Content: "eggs\nmilk\ncoffee", UpdatedAt: now.Add(-2 * time.Hour)},
		note.Fields{Title: "Project kickoff", Content: "agenda:\n- scope\n- owners\n- dates", UpdatedAt: now.Add(-26 * time.Hour)},
		note.Fields{Title: "", Content: "an untitled scratch note", UpdatedAt: now.Add(-72 * time.Hour)},
	)
	if err := gw.SignIn(ctx, DemoEmail, DemoPassword); err != nil {
		return nil, err
	}
	return gw, nil
}
