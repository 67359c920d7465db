// Package merge folds an incremental fetch into the accumulated base
// table.
//
// REDCap's incremental export returns the full current snapshot of every
// record touched since a timestamp, not a per-field delta, so merging is
// whole-row replacement by composite key: for any key in both tables the
// incremental row wins entirely. That also makes merging idempotent,
// which is what lets the incremental workflow re-fetch an overlap window
// safely.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fitchlab/redkit/internal/table"
)

// ErrCodeColumnsDropped is the code carried by Error when the incremental
// table is missing columns the base has.
const ErrCodeColumnsDropped = "COLUMNS_DROPPED"

// Error reports base columns absent from an incremental fetch. Merging
// such a fetch would silently erase data from the accumulated base, so
// the merge refuses up front, even when no row references the columns.
type Error struct {
	Code    string
	Columns []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: incremental download is missing columns present in base: %s; "+
		"investigate and fix, or delete .incremental/ to start fresh",
		e.Code, strings.Join(e.Columns, ", "))
}

// IsColumnsDropped reports whether err is a COLUMNS_DROPPED merge error.
// Uses errors.As to handle wrapped errors.
func IsColumnsDropped(err error) bool {
	var me *Error
	return errors.As(err, &me) && me.Code == ErrCodeColumnsDropped
}

// Merge combines base and incremental into a new table keyed by the
// incremental table's composite key columns.
//
// The result carries the union of both column sets: base columns in base
// order, then incremental-only columns in incremental order, with empty
// strings backfilled where a row's source table lacked the column. Rows
// are the stable concatenation of base then incremental, deduplicated by
// key keeping the last occurrence. A base row superseded by an
// incremental row is therefore replaced wholesale and takes the
// incremental row's position.
func Merge(base, incremental *table.Table) (*table.Table, error) {
	if dropped := missingColumns(base, incremental); len(dropped) > 0 {
		return nil, &Error{Code: ErrCodeColumnsDropped, Columns: dropped}
	}

	keyCols := table.KeyColumns(incremental)

	cols := base.Columns()
	for _, c := range incremental.Columns() {
		if !base.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	combined := make([][]string, 0, base.Len()+incremental.Len())
	for i := 0; i < base.Len(); i++ {
		combined = append(combined, project(base, i, cols))
	}
	for i := 0; i < incremental.Len(); i++ {
		combined = append(combined, project(incremental, i, cols))
	}

	// Keys are taken over the projected rows: a structural column new in
	// the incremental fetch reads as "" for base rows instead of being
	// absent.
	keyed, err := table.New(cols, combined)
	if err != nil {
		return nil, err
	}
	keys := make([]table.Key, keyed.Len())
	for i := range keys {
		keys[i] = keyed.KeyOf(i, keyCols)
	}

	// Keep each key's last occurrence, at its last-occurrence position.
	lastIndex := make(map[table.Key]int, len(keys))
	for i, k := range keys {
		lastIndex[k] = i
	}
	rows := make([][]string, 0, len(lastIndex))
	for i, row := range combined {
		if lastIndex[keys[i]] == i {
			rows = append(rows, row)
		}
	}

	return table.New(cols, rows)
}

// project copies row i of t into the wider column layout, filling columns
// t does not have with empty strings.
func project(t *table.Table, i int, cols []string) []string {
	out := make([]string, len(cols))
	for n, col := range cols {
		if t.HasColumn(col) {
			out[n] = t.Cell(i, col)
		}
	}
	return out
}

func missingColumns(base, incremental *table.Table) []string {
	var missing []string
	for _, c := range base.Columns() {
		if !incremental.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}
