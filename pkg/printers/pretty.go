// Package printers renders notes for the terminal.
package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/muesli/reflow/truncate"

	"tableflip.dev/notes/pkg/note"
)

// titleWidth caps the title column so previews stay on one line.
const titleWidth = 48

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " note")
	default:
		_, _ = c.Fprintln(pp.out(), " notes")
	}
}

// Notes prints one row per note, newest first as given.
func (pp *PrettyPrint) Notes(notes ...note.Summary) {
	if len(notes) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, n := range notes {
		title := truncate.StringWithTail(note.DisplayTitle(n.Title), titleWidth, "…")
		row := []interface{}{faint.Sprint(note.LocalTime(n.UpdatedAt)), title}
		if pp.ShowID {
			row = append([]interface{}{y.Sprint(n.ID)}, row...)
		}
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	_, _ = fmt.Fprintln(pp.out(), "")
}

// Note prints a single note with its full content.
func (pp *PrettyPrint) Note(d note.Detail) {
	t := color.New(color.Bold, color.Underline)
	faint := color.New(color.Faint)

	_, _ = t.Fprintln(pp.out(), note.DisplayTitle(d.Title))
	if pp.ShowID {
		_, _ = faint.Fprintf(pp.out(), "%s  ", d.ID)
	}
	_, _ = faint.Fprintln(pp.out(), note.LocalTime(d.UpdatedAt))
	_, _ = fmt.Fprintln(pp.out(), "")
	if strings.TrimSpace(d.Content) != "" {
		_, _ = fmt.Fprintln(pp.out(), d.Content)
	}
}
