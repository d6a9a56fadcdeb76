// Package memory is an in-process gateway. It backs demo mode and tests, and
// follows the same ownership and ordering rules as the hosted backend.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
)

// Operation names, as counted by Calls and targeted by FailNext.
const (
	OpList    = "list"
	OpGet     = "get"
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpSession = "session"
	OpSignIn  = "sign-in"
	OpSignUp  = "sign-up"
	OpSignOut = "sign-out"
)

type account struct {
	identity note.Identity
	hash     []byte
}

type record struct {
	owner  string
	detail note.Detail
}

// Gateway keeps accounts, notes, and the current session in memory. It is
// safe for concurrent use.
type Gateway struct {
	mu sync.Mutex

	// AutoConfirm signs new accounts in immediately. When false, SignUp only
	// registers the account, like a backend that requires email confirmation.
	AutoConfirm bool

	now   func() time.Time
	newID func() string

	accounts map[string]*account // keyed by lower-cased email
	records  map[string]*record
	current  *note.Identity

	subscribers map[chan gateway.SessionEvent]struct{}

	calls    map[string]int
	failures map[string]error
}

var _ gateway.Gateway = (*Gateway)(nil)

// Option customises a Gateway.
type Option func(*Gateway)

// WithClock overrides the clock used for timestamps the caller left zero.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithIDs overrides how record ids are assigned.
func WithIDs(next func() string) Option {
	return func(g *Gateway) {
		if next != nil {
			g.newID = next
		}
	}
}

// New returns an empty gateway.
func New(opts ...Option) *Gateway {
	g := &Gateway{
		AutoConfirm: true,
		now:         time.Now,
		newID:       func() string { return ulid.Make().String() },
		accounts:    make(map[string]*account),
		records:     make(map[string]*record),
		subscribers: make(map[chan gateway.SessionEvent]struct{}),
		calls:       make(map[string]int),
		failures:    make(map[string]error),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddAccount registers an account without signing it in.
func (g *Gateway) AddAccount(email, password string) (*note.Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	acct, err := g.addAccountLocked(email, password)
	if err != nil {
		return nil, err
	}
	id := acct.identity
	return &id, nil
}

// Seed stores notes for owner directly, bypassing call accounting. Zero
// timestamps are filled from the clock.
func (g *Gateway) Seed(owner note.Identity, fields ...note.Fields) []note.Detail {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]note.Detail, 0, len(fields))
	for _, f := range fields {
		out = append(out, g.insertLocked(owner.ID, f))
	}
	return out
}

// FailNext makes the next call to op return err.
func (g *Gateway) FailNext(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = err
}

// Calls reports how many times op reached the gateway.
func (g *Gateway) Calls(op string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[op]
}

// enter records the call and returns any injected failure. Callers hold mu.
func (g *Gateway) enter(op string) error {
	g.calls[op]++
	if err, ok := g.failures[op]; ok {
		delete(g.failures, op)
		return gateway.Wrap(gateway.KindNetwork, op, err)
	}
	return nil
}

func (g *Gateway) ListRecords(ctx context.Context, owner note.Identity, titleFilter string) ([]note.Summary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpList); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, gateway.Wrap(gateway.KindNetwork, OpList, err)
	}
	out := make([]note.Summary, 0)
	for _, r := range g.records {
		if r.owner != owner.ID || !note.MatchesFilter(r.detail.Title, titleFilter) {
			continue
		}
		out = append(out, r.detail.Summary())
	}
	note.SortByUpdated(out)
	return out, nil
}

func (g *Gateway) GetRecord(ctx context.Context, id string, owner note.Identity) (note.Detail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpGet); err != nil {
		return note.Detail{}, err
	}
	r, err := g.ownedLocked(OpGet, id, owner)
	if err != nil {
		return note.Detail{}, err
	}
	return r.detail, nil
}

func (g *Gateway) CreateRecord(ctx context.Context, owner note.Identity, fields note.Fields) (note.Detail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpCreate); err != nil {
		return note.Detail{}, err
	}
	if owner.ID == "" {
		return note.Detail{}, gateway.Errorf(gateway.KindAuth, OpCreate, "not signed in")
	}
	return g.insertLocked(owner.ID, fields), nil
}

func (g *Gateway) UpdateRecord(ctx context.Context, id string, owner note.Identity, fields note.Fields) (note.Detail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpUpdate); err != nil {
		return note.Detail{}, err
	}
	r, err := g.ownedLocked(OpUpdate, id, owner)
	if err != nil {
		return note.Detail{}, err
	}
	r.detail.Title = fields.Title
	r.detail.Content = fields.Content
	r.detail.UpdatedAt = g.stamp(fields.UpdatedAt)
	return r.detail, nil
}

func (g *Gateway) DeleteRecord(ctx context.Context, id string, owner note.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter(OpDelete); err != nil {
		return err
	}
	if _, err := g.ownedLocked(OpDelete, id, owner); err != nil {
		return err
	}
	delete(g.records, id)
	return nil
}

func (g *Gateway) ownedLocked(op, id string, owner note.Identity) (*record, error) {
	r, ok := g.records[id]
	if !ok || r.owner != owner.ID {
		return nil, gateway.Errorf(gateway.KindNotFound, op, "note %s not found", id)
	}
	return r, nil
}

func (g *Gateway) insertLocked(owner string, fields note.Fields) note.Detail {
	d := note.Detail{
		ID:        g.newID(),
		Title:     fields.Title,
		Content:   fields.Content,
		UpdatedAt: g.stamp(fields.UpdatedAt),
	}
	g.records[d.ID] = &record{owner: owner, detail: d}
	return d
}

func (g *Gateway) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return g.now().UTC()
	}
	return t.UTC()
}

func (g *Gateway) addAccountLocked(email, password string) (*account, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	if key == "" || !strings.Contains(key, "@") {
		return nil, gateway.Errorf(gateway.KindAuth, OpSignUp, "Unable to validate email address: invalid format")
	}
	if len(password) < 6 {
		return nil, gateway.Errorf(gateway.KindAuth, OpSignUp, "Password should be at least 6 characters")
	}
	if _, exists := g.accounts[key]; exists {
		return nil, gateway.Errorf(gateway.KindAuth, OpSignUp, "User already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, gateway.Wrap(gateway.KindNetwork, OpSignUp, err)
	}
	acct := &account{
		identity: note.Identity{ID: ulid.Make().String(), Email: key},
		hash:     hash,
	}
	g.accounts[key] = acct
	return acct, nil
}
