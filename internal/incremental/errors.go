package incremental

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes incremental-state configuration failures.
type ErrorCode string

const (
	// ErrCodeInvalidDuration indicates an overlap duration that does not
	// parse.
	ErrCodeInvalidDuration ErrorCode = "INVALID_DURATION"

	// ErrCodeUnknownTimezone indicates a timezone name the host does not
	// know.
	ErrCodeUnknownTimezone ErrorCode = "UNKNOWN_TIMEZONE"
)

// Error represents an invalid runner configuration, detected before any
// contact with the remote system.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidDuration reports whether err is an INVALID_DURATION error.
// Uses errors.As to handle wrapped errors.
func IsInvalidDuration(err error) bool {
	return hasCode(err, ErrCodeInvalidDuration)
}

// IsUnknownTimezone reports whether err is an UNKNOWN_TIMEZONE error.
func IsUnknownTimezone(err error) bool {
	return hasCode(err, ErrCodeUnknownTimezone)
}

func hasCode(err error, code ErrorCode) bool {
	var ie *Error
	return errors.As(err, &ie) && ie.Code == code
}
