// Package apperr is the error taxonomy shared by the tracker, its
// collaborators and the bot front end.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how the presentation layer should react to it
type Kind int

const (
	// Internal is anything that does not fit the other kinds
	Internal Kind = iota
	// Validation is malformed user input, reported locally
	Validation
	// Network is a transient transport failure, surfaced with a retry option
	Network
	// NotFound is missing content, terminal for the current navigation
	NotFound
	// Unauthorized is a missing or expired credential
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Network:
		return "network"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error carries a Kind alongside the operation that failed
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind from a message
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Wrap attaches a kind to err. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
