package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig  = "CONFIG"
	ErrDevice  = "DEVICE"
	ErrScope   = "SCOPE"
	ErrSync    = "SYNC"
	ErrExec    = "EXEC"
	ErrSSH     = "SSH"
	ErrCalib   = "CALIB"
	ErrAborted = "ABORTED"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered for the operator as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// Wrap wraps an existing error with a message, defaulting to ErrExec code.
func Wrap(err error, message string) *Error {
	return &Error{
		Code:    ErrExec,
		Message: message,
		Cause:   err,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// Error implements the error interface with the multi-line operator format.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var mfErr *Error
	if errors.As(err, &mfErr) {
		return mfErr.Code == code
	}
	return false
}

// Brief returns a single-line description of err, suitable for grouping
// outcomes in the run summary. Structured errors contribute their message
// and cause; anything else falls back to err.Error().
func Brief(err error) string {
	if err == nil {
		return ""
	}
	var mfErr *Error
	if errors.As(err, &mfErr) {
		if mfErr.Cause != nil {
			return mfErr.Message + ": " + mfErr.Cause.Error()
		}
		return mfErr.Message
	}
	return err.Error()
}
