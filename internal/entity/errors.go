package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies checkout failures so callers can react without
// matching on messages.
type ErrorKind string

const (
	KindRateLimitExceeded ErrorKind = "rate_limit_exceeded"
	KindValidation        ErrorKind = "validation"
	KindNotFound          ErrorKind = "not_found"
	KindPersistence       ErrorKind = "persistence"
	KindPlacement         ErrorKind = "placement"
	KindPartialItem       ErrorKind = "partial_item"
	KindBuild             ErrorKind = "build"
	KindConflict          ErrorKind = "conflict"
	KindUnknown           ErrorKind = "unknown"
)

// Error is the error type returned across the checkout core.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrRateLimitExceeded = &Error{Kind: KindRateLimitExceeded}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrPlacement         = &Error{Kind: KindPlacement}
	ErrPartialItem       = &Error{Kind: KindPartialItem}
	ErrBuild             = &Error{Kind: KindBuild}
	ErrConflict          = &Error{Kind: KindConflict}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// SafeMessage is the message that may be shown to a caller. Wrapped
// diagnostic detail is never part of it.
func (e *Error) SafeMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func NewError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func RateLimitExceeded(msg string) *Error {
	return &Error{Kind: KindRateLimitExceeded, Message: msg}
}

func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the caller-safe message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.SafeMessage()
	}
	return string(KindUnknown)
}
