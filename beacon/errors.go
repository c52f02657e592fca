package beacon

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures reported by beacon discovery
type ErrorKind string

const (
	UnsupportedPlatform ErrorKind = "unsupported_platform"
	InvalidArgument     ErrorKind = "invalid_argument"
	PermissionDenied    ErrorKind = "permission_denied"
	ScanInProgress      ErrorKind = "scan_in_progress"
)

// Error is a classified discovery error
type Error struct {
	Kind ErrorKind
	Msg  string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is allows errors.Is to compare Error values by Kind
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Predefined sentinel errors, one per kind
var (
	ErrUnsupportedPlatform = &Error{Kind: UnsupportedPlatform}
	ErrInvalidArgument     = &Error{Kind: InvalidArgument}
	ErrPermissionDenied    = &Error{Kind: PermissionDenied}
	ErrScanInProgress      = &Error{Kind: ScanInProgress}
)

// NewError creates an Error of the given kind with a formatted message
func NewError(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is an Error with the given kind
func IsKind(err error, kind ErrorKind) bool {
	var berr *Error
	if errors.As(err, &berr) {
		return berr.Kind == kind
	}
	return false
}
