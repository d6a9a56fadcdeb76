package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// EventType describes the nature of a session change notification.
type EventType int

const (
	// EventSessionChanged indicates the stored session was written or
	// removed, possibly by another process.
	EventSessionChanged EventType = iota

	// EventInvalidated signals the watcher could not classify a change and
	// callers should reload the session.
	EventInvalidated
)

// Event is emitted by Sessions.Watch when the stored session changes.
type Event struct {
	Type EventType
}

// Watch streams change events until ctx is cancelled. Callers should drain the
// returned channel to avoid blocking the watcher. The channel is closed once
// ctx is done or the watcher encounters an unrecoverable error.
func (p *sessions) Watch(ctx context.Context) (<-chan Event, error) {
	if p.basePath == "" {
		return nil, errors.New("store: session path unknown")
	}

	if err := os.MkdirAll(p.basePath, pathPerm); err != nil {
		return nil, fmt.Errorf("store: ensure session path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				log.Warn("store: watcher close", "err", err)
			}
		})
	}

	if err := watcher.Add(p.basePath); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: watch %s: %w", p.basePath, err)
	}

	events := make(chan Event, 8)
	sessionFile := filepath.Join(p.basePath, sessionKey)

	go func() {
		defer close(events)
		defer closeWatcher()

		send := func(ev Event) {
			select {
			case events <- ev:
			default:
				// A pending event already tells the consumer to reload.
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Debug("store: watcher error", "err", err)
				throttle.Enqueue(EventInvalidated, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != sessionFile {
					// Only the session key matters; the directory may hold
					// editor swap files or logs.
					continue
				}
				throttle.Enqueue(EventSessionChanged, send)
			}
		}
	}()

	return events, nil
}

// eventThrottle coalesces bursts of writes into one notification.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[EventType]struct{}
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[EventType]struct{}),
	}
}

func (t *eventThrottle) Enqueue(typ EventType, send func(Event)) {
	t.mu.Lock()
	t.pending[typ] = struct{}{}
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
	t.mu.Unlock()
}

func (t *eventThrottle) flush(send func(Event)) {
	t.mu.Lock()
	pending := t.pending
	t.pending = make(map[EventType]struct{})
	t.timer = nil
	t.mu.Unlock()

	for typ := range pending {
		send(Event{Type: typ})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
