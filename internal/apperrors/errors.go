// Package apperrors defines the error kinds the API reports to clients.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindForbidden          Kind = "forbidden"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInvalidCredentials Kind = "invalid_credentials"
)

// DetailField carries messages that do not belong to a payload field.
const DetailField = "detail"

// Error is a classified failure. Fields maps payload field names to messages.
type Error struct {
	Kind   Kind
	Fields map[string][]string
	Err    error
}

// Sentinels for errors.Is; they match any Error of the same kind.
var (
	ErrValidation         = &Error{Kind: KindValidation}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "; %s: %s", k, strings.Join(e.Fields[k], ", "))
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Fields == nil && t.Err == nil
}

// Messages returns the client-facing body, falling back to a detail entry.
func (e *Error) Messages() map[string][]string {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return map[string][]string{DetailField: {defaultMessage(e.Kind)}}
}

func defaultMessage(k Kind) string {
	switch k {
	case KindNotFound:
		return "Not found."
	case KindForbidden:
		return "You do not have permission to perform this action."
	case KindUnauthenticated:
		return "Authentication credentials were not provided."
	case KindInvalidCredentials:
		return "Invalid credentials."
	case KindConflict:
		return "Resource already exists."
	default:
		return "Invalid input."
	}
}

func newField(kind Kind, field, msg string) *Error {
	return &Error{Kind: kind, Fields: map[string][]string{field: {msg}}}
}

func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

func FieldInvalid(field, msg string) *Error { return newField(KindValidation, field, msg) }

func NotFound(what string) *Error {
	return newField(KindNotFound, DetailField, fmt.Sprintf("%s not found.", what))
}

// NotFoundField reports a reference in the payload that points at nothing.
func NotFoundField(field, msg string) *Error { return newField(KindNotFound, field, msg) }

func Conflict(field, msg string) *Error { return newField(KindConflict, field, msg) }

func Forbidden() *Error { return &Error{Kind: KindForbidden} }

func Unauthenticated(msg string) *Error {
	if msg == "" {
		return &Error{Kind: KindUnauthenticated}
	}
	return newField(KindUnauthenticated, DetailField, msg)
}

func InvalidCredentials(field, msg string) *Error {
	return newField(KindInvalidCredentials, field, msg)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
