package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the screening engine
type ErrorKind string

// Error kinds
const (
	KindNotFound             ErrorKind = "not_found"
	KindConfiguration        ErrorKind = "configuration"
	KindEmbeddingUnavailable ErrorKind = "embedding_unavailable"
	KindConcurrencyConflict  ErrorKind = "concurrency_conflict"
	KindPartialFailure       ErrorKind = "partial_failure"
	KindModelMismatch        ErrorKind = "model_mismatch"
	KindInvalidInput         ErrorKind = "invalid_input"
)

// Error is a structured engine error with a kind and message
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error of the given kind
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error of the given kind around cause
func WrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
