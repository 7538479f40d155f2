// Package errs holds the user-facing error types shared by yagent's packages.
package errs

import (
	"fmt"
	"strings"
)

// UserErrorf is a user-facing error.
// This helper exists mostly to avoid linters complaining about errors starting
// with a capitalized letter.
func UserErrorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

// Error wraps an underlying error with a user-facing reason.
//
// Reason is meant to be short and actionable; Err may contain technical details.
// When Err is nil, Error() falls back to Reason.
type Error struct {
	Err    error
	Reason string
}

// Wrap creates an Error with the given underlying error and user-facing reason.
func Wrap(err error, reason string) Error {
	return Error{Err: err, Reason: reason}
}

func (e Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Reason
}

func (e Error) Unwrap() error {
	return e.Err
}

// MissingCredentialError reports settings that must be filled in before a
// network call can be made.
type MissingCredentialError struct {
	Settings []string
}

// MissingCredential creates a MissingCredentialError for the given settings
// keys.
func MissingCredential(settings ...string) MissingCredentialError {
	return MissingCredentialError{Settings: settings}
}

func (e MissingCredentialError) Error() string {
	return fmt.Sprintf("missing %s", strings.Join(e.Settings, " or "))
}
