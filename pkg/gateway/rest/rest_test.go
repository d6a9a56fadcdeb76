package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/note"
	"tableflip.dev/notes/pkg/store"
)

const testKey = "anon-key"

type sessionDir string

func (s sessionDir) SessionPath() string { return string(s) }

// backend is a minimal stand-in for a Supabase project.
type backend struct {
	t *testing.T

	mu       sync.Mutex
	requests []*http.Request
	rows     []map[string]any
	expires  time.Time
	grants   map[string]int
	// notesStatus, when set, answers every records call with it.
	notesStatus int
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	b := &backend{t: t, grants: map[string]int{}, expires: time.Now().Add(time.Hour)}
	srv := httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) token(sub, email string, exp time.Time) string {
	tok, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(b.t, err)
	return tok
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Clone(context.Background()))
	b.mu.Unlock()

	if r.Header.Get("apikey") != testKey {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid API key"}`))
		return
	}

	switch {
	case r.URL.Path == tokenPath:
		grant := r.URL.Query().Get("grant_type")
		b.mu.Lock()
		b.grants[grant]++
		b.mu.Unlock()
		if grant == "password" {
			var creds credentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds.Password != "secret1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
		}
		b.mu.Lock()
		exp := b.expires
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  b.token("u1", "alice@example.com", exp),
			"refresh_token": "refresh-" + grant,
			"expires_at":    exp.Unix(),
			"user":          map[string]string{"id": "u1", "email": "alice@example.com"},
		})
	case r.URL.Path == signupPath:
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "u2", "email": "new@example.com"})
	case r.URL.Path == logoutPath:
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == notesPath:
		b.serveNotes(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (b *backend) serveNotes(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notesStatus != 0 {
		w.WriteHeader(b.notesStatus)
		_, _ = w.Write([]byte(`{"message":"` + http.StatusText(b.notesStatus) + `"}`))
		return
	}
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("id") == "eq.missing" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_ = json.NewEncoder(w).Encode(b.rows)
	case http.MethodPost:
		var body []map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		row := body[0]
		row["id"] = 42
		b.rows = append([]map[string]any{row}, b.rows...)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]map[string]any{row})
	case http.MethodDelete:
		_, _ = w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	}
}

func (b *backend) last() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func newClient(t *testing.T, srv *httptest.Server, now func() time.Time) (*Client, store.Sessions) {
	sessions, err := store.Load(sessionDir(t.TempDir()))
	require.NoError(t, err)
	return New(Options{URL: srv.URL + "/", Key: testKey, Sessions: sessions, Now: now}), sessions
}

func TestSignInPersistsAndPublishes(t *testing.T) {
	_, srv := newBackend(t)
	c, sessions := newClient(t, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := c.SubscribeSessionChanges(ctx)
	require.NoError(t, err)

	id, err := c.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, id)

	require.NoError(t, c.SignIn(ctx, "alice@example.com", "secret1"))

	select {
	case ev := <-events:
		require.Equal(t, gateway.SignedIn, ev.Type)
		require.NotNil(t, ev.Identity)
		require.Equal(t, "u1", ev.Identity.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no sign-in event")
	}

	id, err = c.CurrentSession(ctx)
	require.NoError(t, err)
	require.Equal(t, &note.Identity{ID: "u1", Email: "alice@example.com"}, id)

	stored, err := sessions.Load()
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, "refresh-password", stored.RefreshToken)

	// A fresh client resumes the persisted session.
	resumed := New(Options{URL: srv.URL, Key: testKey, Sessions: sessions})
	id, err = resumed.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, id)
	require.Equal(t, "u1", id.ID)
}

func TestSignInRejected(t *testing.T) {
	_, srv := newBackend(t)
	c, _ := newClient(t, srv, nil)

	err := c.SignIn(context.Background(), "alice@example.com", "nope")
	require.Error(t, err)
	require.Equal(t, gateway.KindAuth, gateway.KindOf(err))
	require.Equal(t, "Invalid login credentials", gateway.Reason(err))

	id, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, id)
}

func TestSignUpPendingConfirmation(t *testing.T) {
	b, srv := newBackend(t)
	c, _ := newClient(t, srv, nil)

	require.NoError(t, c.SignUp(context.Background(), "new@example.com", "secret1", "https://notes.example.com"))
	require.Equal(t, "https://notes.example.com", b.last().URL.Query().Get("redirect_to"))

	id, err := c.CurrentSession(context.Background())
	require.NoError(t, err)
	require.Nil(t, id, "sign-up without a session must not sign in")
}

func TestRecordsRequireSession(t *testing.T) {
	_, srv := newBackend(t)
	c, _ := newClient(t, srv, nil)

	_, err := c.ListRecords(context.Background(), note.Identity{ID: "u1"}, "")
	require.Equal(t, gateway.KindAuth, gateway.KindOf(err))
}

func TestListRecordsQuery(t *testing.T) {
	b, srv := newBackend(t)
	c, _ := newClient(t, srv, nil)
	ctx := context.Background()
	require.NoError(t, c.SignIn(ctx, "alice@example.com", "secret1"))

	b.rows = []map[string]any{
		{"id": 7, "title": "Project", "content": "x", "updated_at": "2024-05-01T10:00:00.000000+00:00"},
		{"id": "abc", "title": nil, "content": nil, "updated_at": "2024-05-01T09:00:00Z"},
	}

	notes, err := c.ListRecords(ctx, note.Identity{ID: "u1"}, "50%_off")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	require.Equal(t, "7", notes[0].ID)
	require.Equal(t, "abc", notes[1].ID)
	require.Equal(t, "", notes[1].Title)
	require.Equal(t, 10, notes[0].UpdatedAt.UTC().Hour())

	req := b.last()
	q := req.URL.Query()
	require.Equal(t, "eq.u1", q.Get("user_id"))
	require.Equal(t, "updated_at.desc", q.Get("order"))
	require.Equal(t, `ilike.*50\%\_off*`, q.Get("title"))
	require.Contains(t, req.Header.Get("Authorization"), "Bearer ey")
	require.Equal(t, testKey, req.Header.Get("apikey"))
}

func TestCreateGetDelete(t *testing.T) {
	b, srv := newBackend(t)
	ts := time.Date(2024, time.May, 2, 8, 0, 0, 0, time.UTC)
	c, _ := newClient(t, srv, func() time.Time { return ts })
	ctx := context.Background()
	require.NoError(t, c.SignIn(ctx, "alice@example.com", "secret1"))
	owner := note.Identity{ID: "u1"}

	created, err := c.CreateRecord(ctx, owner, note.Fields{Title: note.DefaultTitle, UpdatedAt: ts})
	require.NoError(t, err)
	require.Equal(t, "42", created.ID)
	require.Equal(t, note.DefaultTitle, created.Title)
	require.True(t, created.UpdatedAt.Equal(ts))
	require.Equal(t, "return=representation", b.last().Header.Get("Prefer"))

	_, err = c.GetRecord(ctx, "missing", owner)
	require.True(t, gateway.IsNotFound(err), "got %v", err)

	err = c.DeleteRecord(ctx, "42", owner)
	require.True(t, gateway.IsNotFound(err), "empty delete result should be not-found, got %v", err)

	_, err = c.UpdateRecord(ctx, "42", owner, note.Fields{Title: "x"})
	require.Equal(t, gateway.KindNetwork, gateway.KindOf(err))
	require.Equal(t, "boom", gateway.Reason(err))
}

func TestRecordsStatusKinds(t *testing.T) {
	b, srv := newBackend(t)
	c, _ := newClient(t, srv, nil)
	ctx := context.Background()
	require.NoError(t, c.SignIn(ctx, "alice@example.com", "secret1"))
	owner := note.Identity{ID: "u1"}

	// A revoked or expired token is an auth failure, not a missing note.
	b.mu.Lock()
	b.notesStatus = http.StatusUnauthorized
	b.mu.Unlock()
	_, err := c.GetRecord(ctx, "7", owner)
	require.Equal(t, gateway.KindAuth, gateway.KindOf(err))
	require.False(t, gateway.IsNotFound(err))
	_, err = c.ListRecords(ctx, owner, "")
	require.Equal(t, gateway.KindAuth, gateway.KindOf(err))

	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusNotAcceptable} {
		b.mu.Lock()
		b.notesStatus = status
		b.mu.Unlock()
		_, err = c.GetRecord(ctx, "7", owner)
		require.True(t, gateway.IsNotFound(err), "status %d: got %v", status, err)
	}
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	b, srv := newBackend(t)
	now := time.Now()
	clock := func() time.Time { return now }
	c, _ := newClient(t, srv, clock)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.expires = now.Add(10 * time.Second) // inside the refresh leeway
	require.NoError(t, c.SignIn(ctx, "alice@example.com", "secret1"))
	b.mu.Lock()
	b.expires = now.Add(time.Hour)
	b.mu.Unlock()

	events, err := c.SubscribeSessionChanges(ctx)
	require.NoError(t, err)

	_, err = c.ListRecords(ctx, note.Identity{ID: "u1"}, "")
	require.NoError(t, err)

	b.mu.Lock()
	refreshed := b.grants["refresh_token"]
	b.mu.Unlock()
	require.Equal(t, 1, refreshed)

	select {
	case ev := <-events:
		require.Equal(t, gateway.TokenRefreshed, ev.Type)
		require.Equal(t, "u1", ev.Identity.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh event")
	}
}

func TestSignOutClearsSession(t *testing.T) {
	_, srv := newBackend(t)
	c, sessions := newClient(t, srv, nil)
	ctx := context.Background()
	require.NoError(t, c.SignIn(ctx, "alice@example.com", "secret1"))

	require.NoError(t, c.SignOut(ctx))
	id, err := c.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, id)

	stored, err := sessions.Load()
	require.NoError(t, err)
	require.Nil(t, stored)
}
