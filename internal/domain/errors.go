package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can tell bad input from upstream
// trouble from storage trouble.
type ErrorKind string

const (
	KindInvalidInput         ErrorKind = "InvalidInput"
	KindAIServiceUnavailable ErrorKind = "AIServiceUnavailable"
	KindMalformedAIOutput    ErrorKind = "MalformedAIOutput"
	KindPersistenceError     ErrorKind = "PersistenceError"
	KindNotFound             ErrorKind = "NotFound"
	KindInternal             ErrorKind = "Internal"
)

// ErrNotFound is returned by repositories when a row does not exist.
var ErrNotFound = errors.New("record not found")

// Error is a classified failure. Raw carries offending model text for
// MalformedAIOutput diagnostics.
type Error struct {
	Kind   ErrorKind
	Op     string
	Detail string
	Raw    string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind ErrorKind, op, detail string, err error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

// InvalidInputf builds an InvalidInput error with a formatted detail.
func InvalidInputf(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// KindOf reports the classification of err. Unclassified errors wrapping
// ErrNotFound are NotFound; anything else is Internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrNotFound) {
		return KindNotFound
	}
	return KindInternal
}

// DetailOf returns the human-readable detail of a classified error, or the
// error text otherwise.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return err.Error()
}
