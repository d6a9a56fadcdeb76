// Package gateway describes the hosted data and auth service the notes client
// talks to. Implementations live in the subpackages.
package gateway

import (
	"context"
	"fmt"

	"tableflip.dev/notes/pkg/note"
)

// Records is the record CRUD half of the backend. Every call is scoped to an
// owner; records belonging to anyone else behave as if they do not exist.
type Records interface {
	// ListRecords returns the owner's notes whose title contains titleFilter
	// (case-insensitive), newest first. An empty filter lists everything.
	ListRecords(ctx context.Context, owner note.Identity, titleFilter string) ([]note.Summary, error)
	// GetRecord fetches one note. Missing or foreign records yield an
	// Error of KindNotFound.
	GetRecord(ctx context.Context, id string, owner note.Identity) (note.Detail, error)
	// CreateRecord persists a new note and returns it with its
	// server-assigned id.
	CreateRecord(ctx context.Context, owner note.Identity, fields note.Fields) (note.Detail, error)
	// UpdateRecord overwrites title, content and timestamp and returns the
	// stored record.
	UpdateRecord(ctx context.Context, id string, owner note.Identity, fields note.Fields) (note.Detail, error)
	// DeleteRecord removes a note.
	DeleteRecord(ctx context.Context, id string, owner note.Identity) error
}

// Auth is the session and identity half of the backend.
type Auth interface {
	// CurrentSession resolves the identity of a previously established
	// session, or nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*note.Identity, error)
	// SubscribeSessionChanges streams every sign-in, sign-out and token
	// refresh until ctx is done, then closes the channel.
	SubscribeSessionChanges(ctx context.Context) (<-chan SessionEvent, error)
	SignIn(ctx context.Context, email, password string) error
	// SignUp registers an account. redirectTo is where confirmation emails
	// send the user back to; it may be empty.
	SignUp(ctx context.Context, email, password, redirectTo string) error
	SignOut(ctx context.Context) error
}

// Gateway is the full backend surface.
type Gateway interface {
	Records
	Auth
}

// SessionEventType describes why a session event was emitted.
type SessionEventType int

const (
	// SignedIn is emitted when a principal signs in.
	SignedIn SessionEventType = iota
	// SignedOut is emitted when the session ends.
	SignedOut
	// TokenRefreshed is emitted when credentials rotate.
	TokenRefreshed
)

func (t SessionEventType) String() string {
	switch t {
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	case TokenRefreshed:
		return "token-refreshed"
	default:
		return fmt.Sprintf("session-event(%d)", int(t))
	}
}

// SessionEvent is pushed by Auth.SubscribeSessionChanges. Identity is nil
// for sign-outs.
type SessionEvent struct {
	Type     SessionEventType
	Identity *note.Identity
}
