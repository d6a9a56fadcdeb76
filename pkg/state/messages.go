package state

import (
	"fmt"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

// Describer is implemented by every message in this package so callers can
// log them uniformly.
type Describer interface {
	Describe() string
}

// SessionResolvedMsg carries the result of the startup session check.
type SessionResolvedMsg struct {
	Identity *note.Identity
	Err      error
}

// Describe renders the message for logs.
func (m SessionResolvedMsg) Describe() string {
	return fmt.Sprintf(`identity:%q err:%v`, m.Identity.String(), m.Err)
}

// SessionWatchMsg reports that the session subscription is established.
type SessionWatchMsg struct {
	events <-chan gateway.SessionEvent
	Err    error
}

// Describe renders the message for logs.
func (m SessionWatchMsg) Describe() string {
	return fmt.Sprintf(`subscribed:%t err:%v`, m.events != nil, m.Err)
}

// SessionEventMsg wraps one provider-pushed session change.
type SessionEventMsg struct {
	Event gateway.SessionEvent
}

// Describe renders the message for logs.
func (m SessionEventMsg) Describe() string {
	return fmt.Sprintf(`type:%q identity:%q`, m.Event.Type, m.Event.Identity.String())
}

// AuthAction names a user-initiated authentication request.
type AuthAction string

const (
	AuthSignIn  AuthAction = "sign-in"
	AuthSignUp  AuthAction = "sign-up"
	AuthSignOut AuthAction = "sign-out"
)

// AuthResultMsg carries the outcome of SignIn, SignUp or SignOut. Identity is
// the session the provider reports after the call.
type AuthResultMsg struct {
	Seq      uint64
	Action   AuthAction
	Identity *note.Identity
	Err      error
}

// Describe renders the message for logs.
func (m AuthResultMsg) Describe() string {
	return fmt.Sprintf(`seq:%d action:%q identity:%q err:%v`, m.Seq, m.Action, m.Identity.String(), m.Err)
}

// NotesLoadedMsg carries a list refresh result for (Owner, Filter).
type NotesLoadedMsg struct {
	Seq    uint64
	Owner  note.Identity
	Filter string
	Notes  []note.Summary
	Err    error
}

// Describe renders the message for logs.
func (m NotesLoadedMsg) Describe() string {
	return fmt.Sprintf(`seq:%d owner:%q filter:%q count:%d err:%v`, m.Seq, m.Owner.ID, m.Filter, len(m.Notes), m.Err)
}

// NoteCreatedMsg carries the record the gateway stored for a create.
type NoteCreatedMsg struct {
	Token uint64
	Owner note.Identity
	Note  note.Detail
	Err   error
}

// Describe renders the message for logs.
func (m NoteCreatedMsg) Describe() string {
	return fmt.Sprintf(`token:%d owner:%q id:%q err:%v`, m.Token, m.Owner.ID, m.Note.ID, m.Err)
}

// NoteLoadedMsg carries the detail fetched for the selected note.
type NoteLoadedMsg struct {
	Seq   uint64
	Owner note.Identity
	ID    string
	Note  note.Detail
	Err   error
}

// Describe renders the message for logs.
func (m NoteLoadedMsg) Describe() string {
	return fmt.Sprintf(`seq:%d owner:%q id:%q err:%v`, m.Seq, m.Owner.ID, m.ID, m.Err)
}

// NoteSavedMsg carries the record the gateway stored for a save.
type NoteSavedMsg struct {
	Token uint64
	Owner note.Identity
	ID    string
	Note  note.Detail
	Err   error
}

// Describe renders the message for logs.
func (m NoteSavedMsg) Describe() string {
	return fmt.Sprintf(`token:%d owner:%q id:%q err:%v`, m.Token, m.Owner.ID, m.ID, m.Err)
}

// NoteDeletedMsg reports the outcome of a delete.
type NoteDeletedMsg struct {
	Token uint64
	Owner note.Identity
	ID    string
	Err   error
}

// Describe renders the message for logs.
func (m NoteDeletedMsg) Describe() string {
	return fmt.Sprintf(`token:%d owner:%q id:%q err:%v`, m.Token, m.Owner.ID, m.ID, m.Err)
}
