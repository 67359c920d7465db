package diff

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Record is one row-level change: the key columns that identify the row
// plus the non-key columns being set. A column that is not in the record
// is untouched upstream; that is different from a column set to the empty
// string, so absence is modeled as absence rather than as a sentinel
// value.
//
// Columns keep insertion order: key columns first, then changed columns
// in the target table's column order.
type Record struct {
	cols   []string
	values map[string]string
}

// NewRecord creates an empty change record.
func NewRecord() *Record {
	return &Record{values: make(map[string]string)}
}

// Set adds or replaces a column value.
func (r *Record) Set(column, value string) {
	if _, ok := r.values[column]; !ok {
		r.cols = append(r.cols, column)
	}
	r.values[column] = value
}

// Get returns the value for a column and whether the column is present.
func (r *Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Has reports whether the column is present in the record.
func (r *Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

// Columns returns the record's columns in insertion order.
func (r *Record) Columns() []string {
	return slices.Clone(r.cols)
}

// Len returns the number of columns in the record.
func (r *Record) Len() int {
	return len(r.cols)
}

// MarshalJSON renders the record as a JSON object with columns in
// insertion order, which is the shape the REDCap import API accepts.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.cols {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, fmt.Errorf("marshal column %q: %w", col, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(r.values[col])
		if err != nil {
			return nil, fmt.Errorf("marshal value for %q: %w", col, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String renders the record for log and dry-run output.
func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<unprintable record: %v>", err)
	}
	return string(b)
}
