package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yeremiapane/dinein-lifecycle/store"
)

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "NOT_FOUND"
	KindInvalidInput          ErrorKind = "INVALID_INPUT"
	KindConflict              ErrorKind = "CONFLICT"
	KindDependencyUnavailable ErrorKind = "DEPENDENCY_UNAVAILABLE"
	KindUnexpected            ErrorKind = "UNEXPECTED"
)

// Error is returned by every Engine operation. Validation errors (NotFound,
// InvalidInput, Conflict) are raised before any write.
type Error struct {
	Kind    ErrorKind
	Message string
	// Details are returned to the caller, e.g. the id of a conflicting session.
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (e *Error) PublicMessage() string {
	return e.Message
}

func (e *Error) PublicDetails() map[string]interface{} {
	return e.Details
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Unexpected(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnexpected, Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) With(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// IsKind reports whether err is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// lookupErr turns a store lookup failure into NotFound or Unexpected.
func lookupErr(err error, entity, id string) *Error {
	if errors.Is(err, store.ErrNotFound) {
		return NotFound("%s %s not found", entity, id)
	}
	return Unexpected(err, "failed to load %s %s", entity, id)
}
