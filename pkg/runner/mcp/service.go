// Package mcp exposes the signed-in user's notes over the Model Context
// Protocol.
package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

var (
	// ErrNotSignedIn is returned when no stored session is available.
	ErrNotSignedIn = errors.New("not signed in; run `notes login` first")
	// ErrSessionChanged is returned once a different account signs in
	// while the server is running.
	ErrSessionChanged = errors.New("the signed-in account changed; restart `notes mcp`")
)

// Service runs note operations as the current session's identity.
type Service struct {
	Gateway gateway.Gateway
	Now     func() time.Time
	// Owner pins the service to one account. Nil follows whoever is signed
	// in.
	Owner *note.Identity
}

// NoteDTO is a transport-friendly projection of a note.
type NoteDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Display     string `json:"display"`
	Preview     string `json:"preview,omitempty"`
	Content     string `json:"content,omitempty"`
	UpdatedISO  string `json:"updated"`
	UpdatedUnix int64  `json:"updatedUnix"`
}

// UpdateNoteOptions carries the fields to change. Nil fields keep their
// stored value.
type UpdateNoteOptions struct {
	ID      string
	Title   *string
	Content *string
}

// NewService builds a service over gw.
func NewService(gw gateway.Gateway) *Service {
	return &Service{Gateway: gw, Now: time.Now}
}

func (s *Service) owner(ctx context.Context) (note.Identity, error) {
	if s.Gateway == nil {
		return note.Identity{}, errors.New("gateway is not configured")
	}
	id, err := s.Gateway.CurrentSession(ctx)
	if err != nil {
		return note.Identity{}, err
	}
	if id == nil {
		return note.Identity{}, ErrNotSignedIn
	}
	if s.Owner != nil && !note.Same(s.Owner, id) {
		return note.Identity{}, ErrSessionChanged
	}
	return *id, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// ListNotes returns summaries whose title contains filter, newest first.
func (s *Service) ListNotes(ctx context.Context, filter string) ([]NoteDTO, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.Gateway.ListRecords(ctx, owner, strings.TrimSpace(filter))
	if err != nil {
		return nil, err
	}
	out := make([]NoteDTO, 0, len(items))
	for _, it := range items {
		out = append(out, summaryDTO(it))
	}
	return out, nil
}

// GetNote returns a note with its content.
func (s *Service) GetNote(ctx context.Context, id string) (NoteDTO, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return NoteDTO{}, err
	}
	d, err := s.Gateway.GetRecord(ctx, strings.TrimSpace(id), owner)
	if err != nil {
		return NoteDTO{}, err
	}
	return detailDTO(d), nil
}

// CreateNote stores a note. A blank title becomes the default title.
func (s *Service) CreateNote(ctx context.Context, title, content string) (NoteDTO, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return NoteDTO{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = note.DefaultTitle
	}
	d, err := s.Gateway.CreateRecord(ctx, owner, note.Fields{Title: title, Content: content, UpdatedAt: s.now()})
	if err != nil {
		return NoteDTO{}, err
	}
	return detailDTO(d), nil
}

// UpdateNote changes the given fields and stamps the note. A note left with
// a blank title and no content is rejected without writing.
func (s *Service) UpdateNote(ctx context.Context, opts UpdateNoteOptions) (NoteDTO, error) {
	owner, err := s.owner(ctx)
	if err != nil {
		return NoteDTO{}, err
	}
	current, err := s.Gateway.GetRecord(ctx, opts.ID, owner)
	if err != nil {
		return NoteDTO{}, err
	}
	fields := note.Fields{Title: current.Title, Content: current.Content, UpdatedAt: s.now()}
	if opts.Title != nil {
		fields.Title = *opts.Title
	}
	if opts.Content != nil {
		fields.Content = *opts.Content
	}
	fields.Title = strings.TrimSpace(fields.Title)
	if fields.Empty() {
		return NoteDTO{}, gateway.Errorf(gateway.KindValidation, "update", "cannot save an empty note")
	}
	d, err := s.Gateway.UpdateRecord(ctx, opts.ID, owner, fields)
	if err != nil {
		return NoteDTO{}, err
	}
	return detailDTO(d), nil
}

// DeleteNote removes a note.
func (s *Service) DeleteNote(ctx context.Context, id string) error {
	owner, err := s.owner(ctx)
	if err != nil {
		return err
	}
	return s.Gateway.DeleteRecord(ctx, strings.TrimSpace(id), owner)
}

func summaryDTO(n note.Summary) NoteDTO {
	return NoteDTO{
		ID:          n.ID,
		Title:       n.Title,
		Display:     note.DisplayTitle(n.Title),
		Preview:     note.Preview(n.Content),
		UpdatedISO:  note.FormatTime(n.UpdatedAt),
		UpdatedUnix: n.UpdatedAt.Unix(),
	}
}

func detailDTO(d note.Detail) NoteDTO {
	dto := summaryDTO(d.Summary())
	dto.Content = d.Content
	return dto
}
