package redcap

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes client failures.
type ErrorCode string

const (
	// ErrCodeMissingCredentials indicates REDCAP_API_URL or
	// REDCAP_API_TOKEN is unset. Detected before any network contact.
	ErrCodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"

	// ErrCodeTransportError indicates an HTTP failure or an error
	// response from the API.
	ErrCodeTransportError ErrorCode = "TRANSPORT_ERROR"

	// ErrCodeRecordLimitExceeded indicates a change-set larger than the
	// configured maximum. Checked before any import call.
	ErrCodeRecordLimitExceeded ErrorCode = "RECORD_LIMIT_EXCEEDED"
)

// Error represents a client failure.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Status is the HTTP status code for transport errors, 0 otherwise.
	Status int

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status=%d)", e.Code, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsMissingCredentials reports whether err is a MISSING_CREDENTIALS error.
// Uses errors.As to handle wrapped errors.
func IsMissingCredentials(err error) bool {
	return hasCode(err, ErrCodeMissingCredentials)
}

// IsTransportError reports whether err is a TRANSPORT_ERROR error.
func IsTransportError(err error) bool {
	return hasCode(err, ErrCodeTransportError)
}

// IsRecordLimitExceeded reports whether err is a RECORD_LIMIT_EXCEEDED
// error.
func IsRecordLimitExceeded(err error) bool {
	return hasCode(err, ErrCodeRecordLimitExceeded)
}

func hasCode(err error, code ErrorCode) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}
