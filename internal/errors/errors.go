package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error for callers that switch on category
// rather than message.
type Kind int

const (
	KindValidation Kind = iota
	KindInvalidState
	KindConflict
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the domain error type shared by all services. It wraps an
// optional cause and carries a Kind for classification.
type Error struct {
	Kind  Kind
	Msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two domain errors by Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
	}
	return false
}

// Validation reports malformed input (bad scores, weight vectors that do
// not sum to one, milestone array length mismatches).
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// InvalidState reports a transition from a terminal or incompatible state.
func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation (duplicate rating, duplicate
// match for an already-matched pair).
func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an entity the actor cannot see.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a domain error kind.
func Wrap(kind Kind, msg string, cause error) error {
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func IsValidation(err error) bool   { return IsKind(err, KindValidation) }
func IsInvalidState(err error) bool { return IsKind(err, KindInvalidState) }
func IsConflict(err error) bool     { return IsKind(err, KindConflict) }
func IsNotFound(err error) bool     { return IsKind(err, KindNotFound) }
