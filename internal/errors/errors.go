// Package errors defines the typed error taxonomy shared by every component
// of the semantic code engine. Callers switch on Kind rather than matching
// error strings; Unwrap keeps the chain intact for errors.Is/As.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by the stage of the pipeline that raised it.
type Kind string

const (
	KindInput     Kind = "input"     // unrecognized language, unreadable file, size limit
	KindParse     Kind = "parse"     // grammar failure after error-tolerant attempt
	KindSemantic  Kind = "semantic"  // invariant violation detected before commit
	KindStorage   Kind = "storage"   // transaction failure, constraint violation, connection loss
	KindExternal  Kind = "external"  // VCS/clone failure, LLM timeout
	KindCancelled Kind = "cancelled" // cooperative cancellation
)

// Error is a typed, wrapped error carrying a stable machine-readable Kind
// plus the component and subject (file path, block id, migration id, ...)
// that raised it.
type Error struct {
	Kind    Kind
	Op      string // component/operation, e.g. "lang.Parse", "store.CommitContainer"
	Subject string // the file, block id, or migration id this error is about
	Err     error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Subject, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind, an operation label and an optional subject.
func New(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}

// Wrapf constructs the wrapped error from a format string instead of an
// existing error value.
func Wrapf(kind Kind, op, subject, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind of err, walking the Unwrap chain. It returns
// ("", false) if err carries no typed Kind.
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return "", false
}

// Is reports whether err (or any error in its chain) has the given Kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
