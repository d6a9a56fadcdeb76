package memory

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

func (g *Gateway) CurrentSession(ctx context.Context) (*note.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpSession); err != nil {
		return nil, err
	}
	return cloneIdentity(g.current), nil
}

func (g *Gateway) SubscribeSessionChanges(ctx context.Context) (<-chan gateway.SessionEvent, error) {
	ch := make(chan gateway.SessionEvent, 16)
	g.mu.Lock()
	g.subscribers[ch] = struct{}{}
	g.mu.Unlock()

	go func() {
		<-ctx.Done()
		g.mu.Lock()
		delete(g.subscribers, ch)
		close(ch)
		g.mu.Unlock()
	}()
	return ch, nil
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpSignIn); err != nil {
		return err
	}
	acct, ok := g.accounts[strings.ToLower(strings.TrimSpace(email))]
	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(password)) != nil {
		return gateway.Errorf(gateway.KindAuth, OpSignIn, "Invalid login credentials")
	}
	g.setSessionLocked(gateway.SignedIn, &acct.identity)
	return nil
}

func (g *Gateway) SignUp(ctx context.Context, email, password, redirectTo string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpSignUp); err != nil {
		return err
	}
	acct, err := g.addAccountLocked(email, password)
	if err != nil {
		return err
	}
	if g.AutoConfirm {
		g.setSessionLocked(gateway.SignedIn, &acct.identity)
	}
	return nil
}

func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpSignOut); err != nil {
		return err
	}
	g.setSessionLocked(gateway.SignedOut, nil)
	return nil
}

// RefreshSession simulates the provider rotating the current session's token.
func (g *Gateway) RefreshSession() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current != nil {
		g.publishLocked(gateway.SessionEvent{Type: gateway.TokenRefreshed, Identity: cloneIdentity(g.current)})
	}
}

func (g *Gateway) setSessionLocked(typ gateway.SessionEventType, id *note.Identity) {
	g.current = cloneIdentity(id)
	g.publishLocked(gateway.SessionEvent{Type: typ, Identity: cloneIdentity(id)})
}

func (g *Gateway) publishLocked(ev gateway.SessionEvent) {
	for ch := range g.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscribers miss events; CurrentSession stays authoritative.
		}
	}
}

func cloneIdentity(id *note.Identity) *note.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
