package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies gateway failures for callers that react differently to
// each.
type Kind int

const (
	// KindNetwork covers transport failures and server-side errors.
	KindNetwork Kind = iota
	// KindNotFound means the record is missing or not owned by the caller.
	KindNotFound
	// KindValidation is a client-side guard that fired before any request.
	KindValidation
	// KindAuth means the provider rejected credentials.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not-found"
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the error type returned by gateways and by the client-side guards
// in front of them.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason is the human-readable part of the error, without the operation.
func (e *Error) Reason() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err as kind unless it already is a gateway error.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err. Errors not produced by a gateway count as
// network failures.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindNetwork
}

// IsNotFound reports whether err is a KindNotFound gateway error.
func IsNotFound(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindNotFound
}

// Reason returns the human-readable message for err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Reason()
	}
	return err.Error()
}
