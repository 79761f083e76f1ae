// Package httperr defines the error taxonomy shared by services and handlers.
//
// Services return typed errors carrying a snapshot of the offending entity;
// the echo error handler maps them to status codes and decides how much
// detail leaves the process.
package httperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping and propagation decisions.
type Kind int

const (
	KindInternal Kind = iota
	// KindValidation covers malformed input, invalid enum values and
	// constraint violations that are the caller's fault.
	KindValidation
	// KindNotFound covers references to absent entities.
	KindNotFound
	// KindConflict covers unique-constraint races. Usually recovered
	// internally rather than surfaced.
	KindConflict
	// KindLookup covers an external collaborator having no record.
	KindLookup
)

// Error is the taxonomy's concrete error type. Data holds a snapshot of the
// entity involved, for debugging; it is only serialized outside production.
type Error struct {
	Kind    Kind
	Message string
	Data    any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches an underlying error, preserving it for errors.Is/As.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func Validation(msg string, data any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Data: data}
}

func NotFound(msg string, data any) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Data: data}
}

func Conflict(msg string, data any) *Error {
	return &Error{Kind: KindConflict, Message: msg, Data: data}
}

func Lookup(msg string, data any) *Error {
	return &Error{Kind: KindLookup, Message: msg, Data: data}
}

func Internal(msg string, data any) *Error {
	return &Error{Kind: KindInternal, Message: msg, Data: data}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return KindInternal, false
}

func IsValidation(err error) bool { k, ok := kindOf(err); return ok && k == KindValidation }
func IsNotFound(err error) bool   { k, ok := kindOf(err); return ok && k == KindNotFound }
func IsConflict(err error) bool   { k, ok := kindOf(err); return ok && k == KindConflict }
func IsLookup(err error) bool     { k, ok := kindOf(err); return ok && k == KindLookup }
