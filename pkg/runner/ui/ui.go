// Package ui launches the terminal user interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/state"
	teaui "tableflip.dev/notes/pkg/tui/app"
)

type UI struct {
	Gateway gateway.Gateway
	// RedirectURL is where sign-up confirmation emails point.
	RedirectURL string
	// LogPath receives log output while the UI owns the terminal. Empty
	// discards it.
	LogPath string
}

func (u *UI) Do(ctx context.Context) error {
	if u.Gateway == nil {
		return errors.New("ui: no gateway")
	}

	restore, err := u.redirectLogs()
	if err != nil {
		return err
	}
	defer restore()

	ws := state.New(ctx, u.Gateway, state.WithRedirect(u.RedirectURL))
	log.Info("ui: starting")
	return teaui.Run(ctx, ws)
}

// redirectLogs points the default logger at LogPath for the lifetime of the
// UI and returns a func that undoes it.
func (u *UI) redirectLogs() (func(), error) {
	logger := log.Default()
	if u.LogPath == "" {
		logger.SetOutput(io.Discard)
		return func() { logger.SetOutput(os.Stderr) }, nil
	}
	if err := os.MkdirAll(filepath.Dir(u.LogPath), 0o700); err != nil {
		return nil, fmt.Errorf("ui: create log directory: %w", err)
	}
	f, err := os.OpenFile(u.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("ui: open log file: %w", err)
	}
	logger.SetOutput(f)
	return func() {
		logger.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}
