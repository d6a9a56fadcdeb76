package state

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

// SessionState distinguishes "not yet known" from "known to be signed out"
// so a login form is never flashed before the startup check completes.
type SessionState int

const (
	SessionUnknown SessionState = iota
	SessionSignedOut
	SessionSignedIn
)

func (s SessionState) String() string {
	switch s {
	case SessionSignedOut:
		return "signed-out"
	case SessionSignedIn:
		return "signed-in"
	default:
		return "unknown"
	}
}

// IdentityListener is called synchronously whenever the principal changes.
// The returned command, if any, is issued after every listener has run.
type IdentityListener func(prev, next *note.Identity) tea.Cmd

// ConfirmEmailNotice is shown after a sign-up that did not start a session.
const ConfirmEmailNotice = "Check your email for the confirmation link."

// Session owns the current identity.
type Session struct {
	gw gateway.Auth

	state    SessionState
	identity *note.Identity
	activity Activity
	notice   string

	seq       uint64
	events    <-chan gateway.SessionEvent
	listeners []IdentityListener
}

// NewSession returns a session in the Unknown state.
func NewSession(gw gateway.Auth) *Session {
	return &Session{gw: gw}
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *note.Identity {
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Session) State() SessionState { return s.state }

func (s *Session) Activity() Activity { return s.activity }

// Reason is the message of the last failed authentication request.
func (s *Session) Reason() string { return s.activity.Reason }

// Notice is an informational message, such as the email confirmation hint.
func (s *Session) Notice() string { return s.notice }

// OnIdentityChanged registers fn. Listeners run in registration order.
func (s *Session) OnIdentityChanged(fn IdentityListener) {
	s.listeners = append(s.listeners, fn)
}

// Resolve asks the gateway for a previously established session.
func (s *Session) Resolve(ctx context.Context) tea.Cmd {
	if s.state == SessionUnknown {
		s.activity = loading()
	}
	gw := s.gw
	return func() tea.Msg {
		id, err := gw.CurrentSession(ctx)
		return SessionResolvedMsg{Identity: id, Err: err}
	}
}

// ApplyResolved settles the Unknown state. It is ignored once the state is
// known, since anything learned later is newer than the startup check.
func (s *Session) ApplyResolved(msg SessionResolvedMsg) tea.Cmd {
	if s.state != SessionUnknown {
		return nil
	}
	if msg.Err != nil {
		log.Warn("state: session check failed", "err", msg.Err)
		s.activity = failed("Could not check the session: " + gateway.Reason(msg.Err))
		return s.setIdentity(nil)
	}
	s.activity = idle()
	return s.setIdentity(msg.Identity)
}

// Watch subscribes to provider-pushed session changes. The subscription lives
// until ctx is done.
func (s *Session) Watch(ctx context.Context) tea.Cmd {
	gw := s.gw
	return func() tea.Msg {
		events, err := gw.SubscribeSessionChanges(ctx)
		return SessionWatchMsg{events: events, Err: err}
	}
}

// ApplyWatch stores the subscription and starts waiting for its first event.
func (s *Session) ApplyWatch(msg SessionWatchMsg) tea.Cmd {
	if msg.Err != nil {
		log.Warn("state: session subscription failed", "err", msg.Err)
		return nil
	}
	s.events = msg.events
	return s.next()
}

// next blocks on the subscription for one event.
func (s *Session) next() tea.Cmd {
	events := s.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return SessionEventMsg{Event: ev}
	}
}

// ApplyEvent applies a pushed session change and keeps listening.
func (s *Session) ApplyEvent(msg SessionEventMsg) tea.Cmd {
	var cmd tea.Cmd
	switch msg.Event.Type {
	case gateway.SignedOut:
		cmd = s.setIdentity(nil)
	default:
		cmd = s.setIdentity(msg.Event.Identity)
	}
	return tea.Batch(cmd, s.next())
}

// SignIn starts a password sign-in. Blank credentials fail locally.
func (s *Session) SignIn(ctx context.Context, email, password string) tea.Cmd {
	return s.authenticate(ctx, AuthSignIn, email, password, "")
}

// SignUp registers an account; redirectTo is where the confirmation email
// sends the user.
func (s *Session) SignUp(ctx context.Context, email, password, redirectTo string) tea.Cmd {
	return s.authenticate(ctx, AuthSignUp, email, password, redirectTo)
}

func (s *Session) authenticate(ctx context.Context, action AuthAction, email, password, redirectTo string) tea.Cmd {
	s.notice = ""
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.activity = failed("Email and password are required.")
		return nil
	}
	s.seq++
	s.activity = committing()
	seq, gw := s.seq, s.gw
	return func() tea.Msg {
		var err error
		if action == AuthSignUp {
			err = gw.SignUp(ctx, email, password, redirectTo)
		} else {
			err = gw.SignIn(ctx, email, password)
		}
		if err != nil {
			return AuthResultMsg{Seq: seq, Action: action, Err: err}
		}
		id, err := gw.CurrentSession(ctx)
		return AuthResultMsg{Seq: seq, Action: action, Identity: id, Err: err}
	}
}

// SignOut ends the session.
func (s *Session) SignOut(ctx context.Context) tea.Cmd {
	s.notice = ""
	s.seq++
	s.activity = committing()
	seq, gw := s.seq, s.gw
	return func() tea.Msg {
		return AuthResultMsg{Seq: seq, Action: AuthSignOut, Err: gw.SignOut(ctx)}
	}
}

// ApplyAuth applies the latest authentication result. Failures are reported
// through Reason and leave the identity untouched.
func (s *Session) ApplyAuth(msg AuthResultMsg) tea.Cmd {
	if msg.Seq != s.seq {
		log.Debug("state: dropping stale auth result", "seq", msg.Seq, "latest", s.seq)
		return nil
	}
	if msg.Err != nil {
		s.activity = failed(gateway.Reason(msg.Err))
		return nil
	}
	s.activity = idle()
	switch msg.Action {
	case AuthSignOut:
		return s.setIdentity(nil)
	case AuthSignUp:
		if msg.Identity == nil {
			s.notice = ConfirmEmailNotice
			return nil
		}
	}
	return s.setIdentity(msg.Identity)
}

// setIdentity records next and notifies listeners if the principal changed.
// The first resolution always notifies.
func (s *Session) setIdentity(next *note.Identity) tea.Cmd {
	first := s.state == SessionUnknown
	prev := s.identity
	if next != nil {
		id := *next
		next = &id
	}
	s.identity = next
	if next == nil {
		s.state = SessionSignedOut
	} else {
		s.state = SessionSignedIn
	}
	if !first && note.Same(prev, next) {
		return nil
	}
	log.Debug("state: identity changed", "from", prev.String(), "to", next.String())
	cmds := make([]tea.Cmd, 0, len(s.listeners))
	for _, fn := range s.listeners {
		cmds = append(cmds, fn(prev, next))
	}
	return tea.Batch(cmds...)
}
