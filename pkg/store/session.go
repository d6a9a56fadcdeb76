// Package store persists the client's session between runs, the way a browser
// client keeps it in local storage.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/notes/pkg/note"
)

const sessionKey = "session"

// The session file holds bearer tokens; only the owner may read it.
const (
	filePerm os.FileMode = 0o600
	pathPerm os.FileMode = 0o700
)

// Session is the persisted credential set of the signed-in principal.
type Session struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         note.Identity `json:"user"`
}

// Expired reports whether the access token is expired, or will be within
// leeway of now.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	if s == nil || s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(leeway).Before(s.ExpiresAt)
}

// Config locates the session store on disk.
type Config interface {
	SessionPath() string
}

// Sessions defines the persistence contract for the session.
type Sessions interface {
	// Load returns the stored session, or nil when there is none.
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Sessions store backed by diskv rooted at cfg.SessionPath().
func Load(cfg Config) (Sessions, error) {
	if cfg == nil {
		return nil, errors.New("store: no config")
	}
	basePath := cfg.SessionPath()
	if basePath == "" {
		return nil, errors.New("store: session path is empty")
	}
	return &sessions{d: diskv.New(diskv.Options{
		BasePath:  basePath,
		Transform: flatTransform,
		FilePerm:  filePerm,
		PathPerm:  pathPerm,
		// No cache: other processes rewrite the session behind our back.
		CacheSizeMax: 0,
	}), basePath: basePath}, nil
}

type sessions struct {
	d        *diskv.Diskv
	basePath string
}

func flatTransform(string) []string { return []string{} }

func (p *sessions) Load() (*Session, error) {
	if !p.d.Has(sessionKey) {
		return nil, nil
	}
	val, err := p.d.Read(sessionKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read session: %w", err)
	}
	s := &Session{}
	if err := json.Unmarshal(val, s); err != nil {
		return nil, fmt.Errorf("store: decode session: %w", err)
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	return s, nil
}

func (p *sessions) Save(s *Session) error {
	if s == nil {
		return p.Clear()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := p.d.Write(sessionKey, data); err != nil {
		return fmt.Errorf("store: write session: %w", err)
	}
	// diskv keeps the mode of a file written by an older build.
	if err := os.Chmod(filepath.Join(p.basePath, sessionKey), filePerm); err != nil {
		return fmt.Errorf("store: protect session: %w", err)
	}
	return nil
}

func (p *sessions) Clear() error {
	if err := p.d.Erase(sessionKey); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: clear session: %w", err)
	}
	return nil
}
