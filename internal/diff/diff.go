package diff

import (
	"github.com/fitchlab/redkit/internal/table"
)

// Options controls how Transformations treats the target table.
type Options struct {
	// AllowNew permits keys that exist only in the target. Each such key
	// produces a record of the key columns plus every non-blank column.
	// Keys that exist only in the source always fail: a row cannot be
	// deleted by a change-set.
	AllowNew bool

	// IsBlank decides which values count as blank when filtering new-row
	// columns. Nil means "equal to the empty string". REDCap exports use
	// "" for unset fields, but upstream tooling occasionally leaks "nan"
	// style markers; callers with such data can widen the predicate.
	IsBlank func(string) bool
}

func (o Options) isBlank(v string) bool {
	if o.IsBlank != nil {
		return o.IsBlank(v)
	}
	return v == ""
}

// Transformations computes the minimal per-row change-sets that transform
// source into target. Both tables must carry all keyCols, identical column
// sets (order may differ), and unique composite keys. Unless
// opts.AllowNew is set, both tables must describe exactly the same key
// set.
//
// Records come back in target row order. A row with no changed columns
// produces no record; a wholly-blank new row still produces a record of
// its key columns, so the row itself is asserted upstream.
func Transformations(source, target *table.Table, keyCols []string, opts Options) ([]*Record, error) {
	if err := checkKeyColumns(source, "source", keyCols); err != nil {
		return nil, err
	}
	if err := checkKeyColumns(target, "target", keyCols); err != nil {
		return nil, err
	}
	if err := checkColumnSets(source, target); err != nil {
		return nil, err
	}

	sourceIndex, err := keyIndex(source, "source", keyCols)
	if err != nil {
		return nil, err
	}
	targetIndex, err := keyIndex(target, "target", keyCols)
	if err != nil {
		return nil, err
	}

	sourceOnly := 0
	for k := range sourceIndex {
		if _, ok := targetIndex[k]; !ok {
			sourceOnly++
		}
	}
	targetOnly := 0
	for k := range targetIndex {
		if _, ok := sourceIndex[k]; !ok {
			targetOnly++
		}
	}
	if sourceOnly > 0 || (targetOnly > 0 && !opts.AllowNew) {
		return nil, newKeySetMismatchError(sourceOnly, targetOnly)
	}

	keySet := make(map[string]bool, len(keyCols))
	for _, kc := range keyCols {
		keySet[kc] = true
	}
	valueCols := make([]string, 0, target.NumColumns()-len(keyCols))
	for _, col := range target.Columns() {
		if !keySet[col] {
			valueCols = append(valueCols, col)
		}
	}

	var records []*Record
	for ti := 0; ti < target.Len(); ti++ {
		key := target.KeyOf(ti, keyCols)
		si, common := sourceIndex[key]

		var rec *Record
		if common {
			rec = changedRecord(source, target, si, ti, keyCols, valueCols)
		} else {
			rec = newRowRecord(target, ti, keyCols, valueCols, opts)
		}
		if rec != nil {
			records = append(records, rec)
		}
	}
	return records, nil
}

// changedRecord compares one aligned row pair and returns a record of the
// key columns plus every differing column, or nil when nothing differs.
// Comparison is exact text equality; no coercion, no trimming.
func changedRecord(source, target *table.Table, si, ti int, keyCols, valueCols []string) *Record {
	var rec *Record
	for _, col := range valueCols {
		newVal := target.Cell(ti, col)
		if source.Cell(si, col) == newVal {
			continue
		}
		if rec == nil {
			rec = keyRecord(target, ti, keyCols)
		}
		rec.Set(col, newVal)
	}
	return rec
}

// newRowRecord builds the record for a key present only in the target:
// key columns plus every non-blank column. Blank columns are omitted so
// the change-set never asserts emptiness for fields that were simply
// never set.
func newRowRecord(target *table.Table, ti int, keyCols, valueCols []string, opts Options) *Record {
	rec := keyRecord(target, ti, keyCols)
	for _, col := range valueCols {
		if v := target.Cell(ti, col); !opts.isBlank(v) {
			rec.Set(col, v)
		}
	}
	return rec
}

func keyRecord(t *table.Table, row int, keyCols []string) *Record {
	rec := NewRecord()
	for _, kc := range keyCols {
		rec.Set(kc, t.Cell(row, kc))
	}
	return rec
}

func checkKeyColumns(t *table.Table, name string, keyCols []string) error {
	var missing []string
	for _, kc := range keyCols {
		if !t.HasColumn(kc) {
			missing = append(missing, kc)
		}
	}
	if len(missing) > 0 {
		return newKeyColumnError(name, missing)
	}
	return nil
}

// checkColumnSets verifies order-insensitive set equality of columns.
func checkColumnSets(source, target *table.Table) error {
	sourceCols := make(map[string]bool, source.NumColumns())
	for _, c := range source.Columns() {
		sourceCols[c] = true
	}
	targetCols := make(map[string]bool, target.NumColumns())
	for _, c := range target.Columns() {
		targetCols[c] = true
	}

	var sourceOnly, targetOnly []string
	for _, c := range source.Columns() {
		if !targetCols[c] {
			sourceOnly = append(sourceOnly, c)
		}
	}
	for _, c := range target.Columns() {
		if !sourceCols[c] {
			targetOnly = append(targetOnly, c)
		}
	}
	if len(sourceOnly) > 0 || len(targetOnly) > 0 {
		return newColumnMismatchError(sourceOnly, targetOnly)
	}
	return nil
}

// keyIndex maps each composite key to its row index, failing on the first
// duplicate.
func keyIndex(t *table.Table, name string, keyCols []string) (map[table.Key]int, error) {
	index := make(map[table.Key]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		key := t.KeyOf(i, keyCols)
		if _, dup := index[key]; dup {
			return nil, newDuplicateKeyError(name, key.Values())
		}
		index[key] = i
	}
	return index, nil
}
