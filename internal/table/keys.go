package table

import "strings"

// REDCap structural columns. When present they extend the composite key,
// in this order, after the record identifier.
const (
	EventColumn            = "redcap_event_name"
	RepeatInstrumentColumn = "redcap_repeat_instrument"
	RepeatInstanceColumn   = "redcap_repeat_instance"
)

var structuralColumns = []string{
	EventColumn,
	RepeatInstrumentColumn,
	RepeatInstanceColumn,
}

// KeyColumns returns the composite key columns for a REDCap table: the
// first column (the record identifier, whatever it is named) followed by
// any structural columns the table carries.
//
// For any well-formed REDCap export these columns together uniquely
// identify a row. Uniqueness is the caller's precondition; the diff and
// merge engines verify it and fail on duplicates.
func KeyColumns(t *Table) []string {
	cols := []string{t.cols[0]}
	for _, sc := range structuralColumns {
		if t.HasColumn(sc) {
			cols = append(cols, sc)
		}
	}
	return cols
}

// Key identifies a row by its composite key values.
type Key string

// keySeparator joins key cell values. The unit separator cannot appear in
// CSV-sourced text that survives the codec, so joined keys are unambiguous.
const keySeparator = "\x1f"

// KeyOf returns the composite key of row i over the given key columns.
func (t *Table) KeyOf(i int, keyCols []string) Key {
	parts := make([]string, len(keyCols))
	for n, col := range keyCols {
		parts[n] = t.Cell(i, col)
	}
	return Key(strings.Join(parts, keySeparator))
}

// Values splits a Key back into its per-column values.
func (k Key) Values() []string {
	return strings.Split(string(k), keySeparator)
}
