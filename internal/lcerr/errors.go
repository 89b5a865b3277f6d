package lcerr

import (
	"errors"
	"fmt"
	"strings"
)

// Code standardizes failure semantics across repositories and services.
// Storage backends translate their medium-specific errors into these codes
// before anything crosses the repository boundary.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeValidation         Code = "validation"
	CodeOwnershipMismatch  Code = "ownership_mismatch"
	CodeStorageUnavailable Code = "storage_unavailable"
	CodeStorageTimeout     Code = "storage_timeout"
	CodeConflict           Code = "conflict"
)

// Error is the canonical domain error wrapper.
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a domain error with explicit code + operation.
func New(code Code, op, message string) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: strings.TrimSpace(message)}
}

// Newf is New with a formatted message.
func Newf(code Code, op, format string, args ...interface{}) error {
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates an existing error with domain error semantics.
// A nil err wraps to nil; an err that already carries a code keeps it.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	if existing := CodeOf(err); existing != "" {
		code = existing
	}
	return &Error{Code: code, Op: strings.TrimSpace(op), Message: err.Error(), Cause: err}
}

// IsCode checks whether err (or a wrapped err) carries the given code.
func IsCode(err error, code Code) bool {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return false
	}
	return domErr.Code == code
}

// CodeOf extracts the domain error code when available.
func CodeOf(err error) Code {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return ""
	}
	return domErr.Code
}
