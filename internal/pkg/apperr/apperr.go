// Package apperr carries an error kind alongside the message so handlers can pick the status
// code without string matching.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	KindBackend Kind = iota
	KindAuthenticationRequired
	KindInvalidInvitation
	KindInvitationExpired
	KindEmailMismatch
	KindPermissionDenied
	KindValidation
	KindNotFound
	KindLimitReached
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAuthenticationRequired:
		return "authentication_required"
	case KindInvalidInvitation:
		return "invalid_invitation"
	case KindInvitationExpired:
		return "expired"
	case KindEmailMismatch:
		return "email_mismatch"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindLimitReached:
		return "limit_reached"
	case KindConflict:
		return "conflict"
	default:
		return "backend_error"
	}
}

// Error is an application error with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by identity and bare kinds (New(k, "")) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return e == t
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches cause to a copy of sentinel so errors.Is still matches the sentinel.
func Wrap(sentinel *Error, cause error) error {
	return &wrapped{sentinel: sentinel, cause: cause}
}

// Backend wraps a store failure. The cause is logged, never shown to the caller.
func Backend(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindBackend, Message: "Internal Server Error", Err: fmt.Errorf("%s: %w", op, cause)}
}

// KindOf returns the kind of err, KindBackend for foreign errors.
func KindOf(err error) Kind {
	var w *wrapped
	if errors.As(err, &w) {
		return w.sentinel.Kind
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var w *wrapped
	if errors.As(err, &w) {
		return w.sentinel.Message
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal Server Error"
}

type wrapped struct {
	sentinel *Error
	cause    error
}

func (w *wrapped) Error() string {
	return w.sentinel.Message + ": " + w.cause.Error()
}

func (w *wrapped) Unwrap() []error {
	return []error{w.sentinel, w.cause}
}
