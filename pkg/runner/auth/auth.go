// Package auth signs the stored session in and out without the UI.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/notes/pkg/gateway"
	"tableflip.dev/notes/pkg/state"
)

type Action string

const (
	Login  Action = "login"
	Signup Action = "signup"
	Logout Action = "logout"
	Whoami Action = "whoami"
)

type Auth struct {
	Gateway     gateway.Gateway
	Action      Action
	Email       string
	Password    string
	RedirectURL string
	// Out defaults to color.Output.
	Out io.Writer
}

func (a *Auth) Do(ctx context.Context) error {
	if a.Gateway == nil {
		return errors.New("auth: no gateway")
	}
	ws := state.New(ctx, a.Gateway, state.WithRedirect(a.RedirectURL))
	state.Settle(ws, ws.Start())
	if ws.Session.State() == state.SessionUnknown || ws.Session.Activity().Status == state.Failed {
		return errors.New(ws.Session.Reason())
	}

	bold := color.New(color.Bold)
	switch a.Action {
	case Whoami:
		if id := ws.Session.Current(); id != nil {
			_, _ = bold.Fprintln(a.out(), id.Email)
			return nil
		}
		_, _ = fmt.Fprintln(a.out(), "Not signed in.")
		return nil

	case Logout:
		if ws.Session.Current() == nil {
			_, _ = fmt.Fprintln(a.out(), "Not signed in.")
			return nil
		}
		state.Settle(ws, ws.SignOut())

	case Login:
		state.Settle(ws, ws.SignIn(a.Email, a.Password))

	case Signup:
		state.Settle(ws, ws.SignUp(a.Email, a.Password))

	default:
		return fmt.Errorf("auth: unknown action %q", a.Action)
	}

	if ws.Session.Activity().Status == state.Failed {
		return errors.New(ws.Session.Reason())
	}
	if notice := ws.Session.Notice(); notice != "" {
		_, _ = fmt.Fprintln(a.out(), notice)
		return nil
	}
	if id := ws.Session.Current(); id != nil {
		_, _ = fmt.Fprint(a.out(), "Signed in as ")
		_, _ = bold.Fprintln(a.out(), id.Email)
		return nil
	}
	_, _ = fmt.Fprintln(a.out(), "Signed out.")
	return nil
}

func (a *Auth) out() io.Writer {
	if a.Out == nil {
		return color.Output
	}
	return a.Out
}
