package services

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/repositories"
)

// Error kinds. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrConflict        = errors.New("conflict")
	ErrUpstream        = errors.New("upstream platform error")
	ErrInvalid         = errors.New("invalid request")
)

// Error carries a client-safe message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports one invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

// Error prefixes the field unless the message is already a full sentence.
func (e *ValidationError) Error() string {
	if e.Field == "" || startsUpper(e.Message) {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// queryError turns a rejected list query into a validation error.
func queryError(err error) error {
	var qe *query.Error
	if errors.As(err, &qe) {
		return &ValidationError{Field: qe.Param, Message: qe.Message}
	}
	return err
}

// notFound replaces a missing-row error with a client message.
func notFound(err error, message string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(ErrNotFound, "%s", message)
	}
	return err
}
