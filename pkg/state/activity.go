// Package state keeps the notes client's view state consistent with the
// gateway. Every controller is driven from a single goroutine: gateway calls
// are issued as tea.Cmds and their completions come back as messages through
// Workspace.Update.
package state

import "fmt"

// Status is the coarse state of a controller's outstanding work.
type Status int

const (
	// Idle means nothing is in flight.
	Idle Status = iota
	// Loading means a read (list, fetch, session check) is in flight.
	Loading
	// Committing means a write (create, save, delete, sign-in) is in flight.
	Committing
	// Failed means the last operation failed; Activity.Reason says why.
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Committing:
		return "committing"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Activity pairs a Status with the failure reason, if any.
type Activity struct {
	Status Status
	Reason string
}

func idle() Activity       { return Activity{Status: Idle} }
func loading() Activity    { return Activity{Status: Loading} }
func committing() Activity { return Activity{Status: Committing} }

func failed(reason string) Activity {
	return Activity{Status: Failed, Reason: reason}
}

// Busy reports whether a request is in flight.
func (a Activity) Busy() bool {
	return a.Status == Loading || a.Status == Committing
}

func (a Activity) String() string {
	if a.Status == Failed && a.Reason != "" {
		return fmt.Sprintf("failed(%s)", a.Reason)
	}
	return a.Status.String()
}
