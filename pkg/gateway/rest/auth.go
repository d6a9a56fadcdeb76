package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/store"
)

const (
	tokenPath  = "/auth/v1/token"
	signupPath = "/auth/v1/signup"
	logoutPath = "/auth/v1/logout"
)

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// tokenResponse covers both the token grant response and the sign-up
// response, which is a bare user when email confirmation is pending.
type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
	ID           string        `json:"id"`
	Email        string        `json:"email"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) sessionFrom(resp *tokenResponse) (*store.Session, error) {
	if resp.AccessToken == "" {
		return nil, nil
	}
	s := &store.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
	if resp.User != nil {
		s.User = note.Identity{ID: resp.User.ID, Email: resp.User.Email}
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}

	claims, err := parseAccessToken(resp.AccessToken)
	if err != nil {
		if s.User.ID == "" {
			return nil, err
		}
		log.Debug("rest: access token is not a readable JWT", "err", err)
		return s, nil
	}
	if s.User.ID == "" {
		s.User.ID = claims.Subject
	}
	if s.User.Email == "" {
		s.User.Email = claims.Email
	}
	if s.ExpiresAt.IsZero() {
		s.ExpiresAt = claims.ExpiresAt
	}
	if s.User.ID == "" {
		return nil, errors.New("access token has no subject")
	}
	return s, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) error {
	const op = "sign-in"
	q := url.Values{}
	q.Set("grant_type", "password")
	var resp tokenResponse
	req := request{op: op, method: http.MethodPost, path: tokenPath, query: q, body: credentials{Email: email, Password: password}, auth: true}
	if err := call(ctx, c, req, &resp); err != nil {
		return err
	}
	s, err := c.sessionFrom(&resp)
	if err != nil {
		return gateway.Wrap(gateway.KindAuth, op, err)
	}
	if s == nil {
		return gateway.Errorf(gateway.KindAuth, op, "backend returned no session")
	}
	c.setSession(s, gateway.SignedIn)
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) error {
	const op = "sign-up"
	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	var resp tokenResponse
	req := request{op: op, method: http.MethodPost, path: signupPath, query: q, body: credentials{Email: email, Password: password}, auth: true}
	if err := call(ctx, c, req, &resp); err != nil {
		return err
	}
	s, err := c.sessionFrom(&resp)
	if err != nil {
		return gateway.Wrap(gateway.KindAuth, op, err)
	}
	if s != nil {
		c.setSession(s, gateway.SignedIn)
	}
	return nil
}

func (c *Client) SignOut(ctx context.Context) error {
	const op = "sign-out"
	c.mu.Lock()
	s := c.currentLocked()
	c.mu.Unlock()
	if s != nil {
		req := request{op: op, method: http.MethodPost, path: logoutPath, bearer: s.AccessToken, auth: true}
		if err := call[struct{}](ctx, c, req, nil); err != nil && gateway.KindOf(err) != gateway.KindAuth {
			// The local session is dropped regardless; an unreachable
			// backend must not keep the user signed in.
			log.Warn("rest: sign-out request failed", "err", err)
		}
	}
	c.setSession(nil, gateway.SignedOut)
	return nil
}

func (c *Client) CurrentSession(ctx context.Context) (*note.Identity, error) {
	s, err := c.activeSession(ctx)
	if err != nil {
		if gateway.KindOf(err) == gateway.KindAuth {
			return nil, nil
		}
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	id := s.User
	return &id, nil
}

func (c *Client) SubscribeSessionChanges(ctx context.Context) (<-chan gateway.SessionEvent, error) {
	ch := make(chan gateway.SessionEvent, 16)
	c.mu.Lock()
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	var changes <-chan store.Event
	if c.sessions != nil {
		var err error
		if changes, err = c.sessions.Watch(ctx); err != nil {
			log.Warn("rest: cannot watch session store", "err", err)
			changes = nil
		}
	}

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.subscribers, ch)
			close(ch)
			c.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					changes = nil
					continue
				}
				c.reload()
			}
		}
	}()
	return ch, nil
}

// authorize returns a valid access token for a record call.
func (c *Client) authorize(ctx context.Context, op string) (string, error) {
	s, err := c.activeSession(ctx)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", gateway.Errorf(gateway.KindAuth, op, "not signed in")
	}
	return s.AccessToken, nil
}

// activeSession returns the current session, refreshing it first when the
// access token is about to expire.
func (c *Client) activeSession(ctx context.Context) (*store.Session, error) {
	c.mu.Lock()
	s := c.currentLocked()
	c.mu.Unlock()
	if s == nil || !s.Expired(c.now(), refreshLeeway) {
		return s, nil
	}
	return c.refresh(ctx, s)
}

func (c *Client) refresh(ctx context.Context, stale *store.Session) (*store.Session, error) {
	const op = "refresh"
	if stale.RefreshToken == "" {
		c.setSession(nil, gateway.SignedOut)
		return nil, gateway.Errorf(gateway.KindAuth, op, "session expired")
	}
	q := url.Values{}
	q.Set("grant_type", "refresh_token")
	var resp tokenResponse
	req := request{op: op, method: http.MethodPost, path: tokenPath, query: q, body: refreshRequest{RefreshToken: stale.RefreshToken}, auth: true}
	if err := call(ctx, c, req, &resp); err != nil {
		if gateway.KindOf(err) == gateway.KindAuth {
			c.setSession(nil, gateway.SignedOut)
		}
		return nil, err
	}
	s, err := c.sessionFrom(&resp)
	if err != nil || s == nil {
		c.setSession(nil, gateway.SignedOut)
		return nil, gateway.Errorf(gateway.KindAuth, op, "session expired")
	}
	c.setSession(s, gateway.TokenRefreshed)
	return s, nil
}

// currentLocked lazily loads the persisted session. Callers hold mu.
func (c *Client) currentLocked() *store.Session {
	if !c.loaded {
		c.loaded = true
		if c.sessions != nil {
			s, err := c.sessions.Load()
			if err != nil {
				log.Warn("rest: ignoring unreadable session", "err", err)
			}
			c.session = s
		}
	}
	return c.session
}

func (c *Client) setSession(s *store.Session, typ gateway.SessionEventType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.session = s
	if c.sessions != nil {
		var err error
		if s == nil {
			err = c.sessions.Clear()
		} else {
			err = c.sessions.Save(s)
		}
		if err != nil {
			log.Warn("rest: cannot persist session", "err", err)
		}
	}
	c.publishLocked(typ, s)
}

// reload picks up a session written by another process.
func (c *Client) reload() {
	if c.sessions == nil {
		return
	}
	s, err := c.sessions.Load()
	if err != nil {
		log.Warn("rest: ignoring unreadable session", "err", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.session
	if sameToken(prev, s) {
		return
	}
	c.session = s
	c.loaded = true
	switch {
	case s == nil:
		c.publishLocked(gateway.SignedOut, nil)
	case prev != nil && prev.User.ID == s.User.ID:
		c.publishLocked(gateway.TokenRefreshed, s)
	default:
		c.publishLocked(gateway.SignedIn, s)
	}
}

func (c *Client) publishLocked(typ gateway.SessionEventType, s *store.Session) {
	ev := gateway.SessionEvent{Type: typ}
	if s != nil {
		id := s.User
		ev.Identity = &id
	}
	log.Debug("rest: session event", "type", typ, "identity", ev.Identity)
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func sameToken(a, b *store.Session) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.AccessToken == b.AccessToken
}
