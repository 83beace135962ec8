package agent

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable category for agent failures.
type Kind string

const (
	// KindConfiguration indicates a missing or invalid credential or setting.
	KindConfiguration Kind = "configuration"
	// KindUpload indicates the workbook could not be transferred to the service.
	KindUpload Kind = "upload"
	// KindRemote indicates the service reported a failure, including sandbox
	// errors, timeouts, and malformed responses.
	KindRemote Kind = "remote_execution"
	// KindIO indicates a local read or write failure.
	KindIO Kind = "io"
)

// Error wraps an underlying error with a kind and a human-friendly message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates an error of the given kind.
func NewError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Errorf creates an error of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps err with a kind and message. Returns nil if err is nil.
func WrapError(kind Kind, msg string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of err, or "" if err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err (or anything it wraps) has the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
