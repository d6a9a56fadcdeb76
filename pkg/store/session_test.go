package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tableflip.dev/notes/pkg/note"
)

type testConfig struct {
	path string
}

func (t testConfig) SessionPath() string {
	return t.path
}

func TestSessionRoundTrip(t *testing.T) {
	p, err := Load(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("load store: %v", err)
	}

	got, err := p.Load()
	if err != nil {
		t.Fatalf("load empty session: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no session, got %+v", got)
	}

	want := &Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC),
		User:         note.Identity{ID: "u1", Email: "a@example.com"},
	}
	if err := p.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err = p.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || got.AccessToken != want.AccessToken || got.User.ID != "u1" || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("unexpected session %+v", got)
	}

	if err := p.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := p.Clear(); err != nil {
		t.Fatalf("second clear should be a no-op: %v", err)
	}
	if got, _ := p.Load(); got != nil {
		t.Fatalf("expected cleared session, got %+v", got)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(30 * time.Second)}
	if s.Expired(now, 0) {
		t.Fatalf("session should still be valid")
	}
	if !s.Expired(now, time.Minute) {
		t.Fatalf("session within leeway should count as expired")
	}
	var missing *Session
	if missing.Expired(now, time.Minute) {
		t.Fatalf("nil session should not report expiry")
	}
}

func TestWatchEmitsSessionChanges(t *testing.T) {
	base := t.TempDir()
	p, err := Load(testConfig{path: base})
	if err != nil {
		t.Fatalf("load store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow the watcher goroutine to subscribe before writing.
	time.Sleep(50 * time.Millisecond)

	if err := p.Save(&Session{AccessToken: "a", User: note.Identity{ID: "u1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case evt := <-ch:
		if evt.Type != EventSessionChanged && evt.Type != EventInvalidated {
			t.Fatalf("unexpected event %+v", evt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session change event")
	}
}

func TestSessionFileIsPrivate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	p, err := Load(testConfig{path: dir})
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if err := p.Save(&Session{AccessToken: "access", RefreshToken: "refresh"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	fi, err := os.Stat(filepath.Join(dir, sessionKey))
	if err != nil {
		t.Fatalf("stat session: %v", err)
	}
	if got := fi.Mode().Perm(); got != 0o600 {
		t.Fatalf("session file mode = %o, want 600", got)
	}
	di, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := di.Mode().Perm(); got != 0o700 {
		t.Fatalf("session dir mode = %o, want 700", got)
	}

	// A file left readable by an older build is tightened on the next save.
	if err := os.Chmod(filepath.Join(dir, sessionKey), 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := p.Save(&Session{AccessToken: "access2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if fi, _ := os.Stat(filepath.Join(dir, sessionKey)); fi.Mode().Perm() != 0o600 {
		t.Fatalf("existing session file not tightened: %o", fi.Mode().Perm())
	}
}
