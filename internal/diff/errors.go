package diff

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes diff precondition failures.
type ErrorCode string

const (
	// ErrCodeKeyColumnMismatch indicates a table is missing key columns.
	ErrCodeKeyColumnMismatch ErrorCode = "KEY_COLUMN_MISMATCH"

	// ErrCodeColumnMismatch indicates the two tables carry different
	// column sets.
	ErrCodeColumnMismatch ErrorCode = "COLUMN_MISMATCH"

	// ErrCodeDuplicateKey indicates a table contains two rows with the
	// same composite key values.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	// ErrCodeKeySetMismatch indicates the tables describe different row
	// sets and new rows were not allowed.
	ErrCodeKeySetMismatch ErrorCode = "KEY_SET_MISMATCH"
)

// Error represents a violated diff precondition. All preconditions are
// checked before any record is produced, so an Error means no partial
// output exists.
type Error struct {
	// Code identifies the violated contract.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Table names the offending input ("source" or "target"), when the
	// failure is attributable to one side.
	Table string

	// Columns lists the columns involved, when applicable.
	Columns []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Message)
	if e.Table != "" {
		fmt.Fprintf(&b, " (table=%s)", e.Table)
	}
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, " (columns=%s)", strings.Join(e.Columns, ", "))
	}
	return b.String()
}

// IsDuplicateKey reports whether err is a DUPLICATE_KEY diff error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateKey(err error) bool {
	return hasCode(err, ErrCodeDuplicateKey)
}

// IsKeySetMismatch reports whether err is a KEY_SET_MISMATCH diff error.
func IsKeySetMismatch(err error) bool {
	return hasCode(err, ErrCodeKeySetMismatch)
}

// IsColumnMismatch reports whether err is a COLUMN_MISMATCH diff error.
func IsColumnMismatch(err error) bool {
	return hasCode(err, ErrCodeColumnMismatch)
}

// IsKeyColumnMismatch reports whether err is a KEY_COLUMN_MISMATCH diff error.
func IsKeyColumnMismatch(err error) bool {
	return hasCode(err, ErrCodeKeyColumnMismatch)
}

func hasCode(err error, code ErrorCode) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

func newKeyColumnError(tableName string, missing []string) *Error {
	return &Error{
		Code:    ErrCodeKeyColumnMismatch,
		Message: "table is missing key columns",
		Table:   tableName,
		Columns: missing,
	}
}

func newColumnMismatchError(sourceOnly, targetOnly []string) *Error {
	return &Error{
		Code: ErrCodeColumnMismatch,
		Message: fmt.Sprintf("source and target have different columns: %d only in source, %d only in target",
			len(sourceOnly), len(targetOnly)),
		Columns: append(append([]string{}, sourceOnly...), targetOnly...),
	}
}

func newDuplicateKeyError(tableName string, keyValues []string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateKey,
		Message: fmt.Sprintf("duplicate key values %q", keyValues),
		Table:   tableName,
	}
}

func newKeySetMismatchError(sourceOnly, targetOnly int) *Error {
	return &Error{
		Code: ErrCodeKeySetMismatch,
		Message: fmt.Sprintf("source and target have different keys: %d only in source, %d only in target",
			sourceOnly, targetOnly),
	}
}
