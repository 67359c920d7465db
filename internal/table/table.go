package table

import (
	"fmt"
	"slices"
)

// Table is an ordered sequence of named columns over rows of text values.
// All rows share the same columns.
type Table struct {
	cols []string
	rows [][]string
}

// New creates a table from a column list and rows. Every row must have
// exactly one cell per column.
func New(columns []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(columns))
		}
	}
	return &Table{
		cols: slices.Clone(columns),
		rows: cloneRows(rows),
	}, nil
}

// MustNew is New for statically-known-good inputs, typically tests.
// Panics on a shape error.
func MustNew(columns []string, rows [][]string) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.cols)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.cols)
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.cols, name)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	return slices.Index(t.cols, name)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no rows.
func (t *Table) IsEmpty() bool {
	return len(t.rows) == 0
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return slices.Clone(t.rows[i])
}

// Cell returns the value at row i in the named column.
// Panics if the column does not exist; callers check columns up front.
func (t *Table) Cell(i int, column string) string {
	ci := t.ColumnIndex(column)
	if ci < 0 {
		panic(fmt.Sprintf("table: no column %q", column))
	}
	return t.rows[i][ci]
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out
}
