// Package get prints notes without the interactive UI.
package get

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/printers"
	"tableflip.dev/notes/pkg/state"
)

// ErrNotSignedIn is returned when there is no stored session.
var ErrNotSignedIn = errors.New("not signed in; run `notes login` first")

type Get struct {
	Gateway gateway.Gateway
	// Filter limits the list to titles containing it.
	Filter string
	// ID prints a single note instead of the list.
	ID     string
	ShowID bool
	JSON   bool
	// Out defaults to color.Output.
	Out io.Writer
}

func (g *Get) Do(ctx context.Context) error {
	if g.Gateway == nil {
		return errors.New("can not get, no gateway")
	}
	ws := state.New(ctx, g.Gateway)
	state.Settle(ws, ws.Start())
	if ws.Session.Current() == nil {
		if reason := ws.Session.Reason(); reason != "" {
			return errors.New(reason)
		}
		return ErrNotSignedIn
	}
	if g.Filter != "" {
		state.Settle(ws, ws.Search(g.Filter))
	}
	if msg := ws.Error(); msg != "" {
		return errors.New(msg)
	}

	if g.ID == "" {
		return g.printList(ws.Notes.Items())
	}

	if note.Index(ws.Notes.Items(), g.ID) < 0 {
		return fmt.Errorf("note %s not found", g.ID)
	}
	state.Settle(ws, ws.Select(g.ID))
	if msg := ws.Error(); msg != "" {
		return errors.New(msg)
	}
	d, ok := ws.Active.Current()
	if !ok {
		return fmt.Errorf("note %s not found", g.ID)
	}
	return g.printNote(d)
}

func (g *Get) out() io.Writer {
	if g.Out == nil {
		return color.Output
	}
	return g.Out
}

func (g *Get) printList(items []note.Summary) error {
	if g.JSON {
		return g.encode(items)
	}
	pp := printers.PrettyPrint{ShowID: g.ShowID, Out: g.out()}
	title := "Notes"
	if g.Filter != "" {
		title = fmt.Sprintf("Notes matching %q", g.Filter)
	}
	pp.TitleWithCount(title, len(items))
	pp.Notes(items...)
	return nil
}

func (g *Get) printNote(d note.Detail) error {
	if g.JSON {
		return g.encode(d)
	}
	pp := printers.PrettyPrint{ShowID: g.ShowID, Out: g.out()}
	pp.Note(d)
	return nil
}

func (g *Get) encode(v any) error {
	enc := json.NewEncoder(g.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
