// Package split reshapes a flat REDCap export into one table per event
// and, within events that have them, one table per repeating instrument.
//
// An export with events "scr", "pre" and "post" where "pre" and "post"
// repeat a "meds" instrument splits into scr, pre, pre__meds, post and
// post__meds. An optional event map renames events on the way out, which
// also lets multiple arms of the same event share one file.
package split

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fitchlab/redkit/internal/table"
)

// Options controls a split.
type Options struct {
	// EventMap renames REDCap event names for output file naming. Events
	// not in the map keep their name. Mapping several events to one name
	// combines their rows.
	EventMap map[string]string

	// Condense drops rows whose non-structural columns are all blank,
	// then columns left entirely blank.
	Condense bool
}

// Split partitions the table by event and repeat instrument. The result
// maps output names (event, or event__instrument) to their tables. Rows
// in each table are sorted by the record identifier column.
func Split(t *table.Table, opts Options) (map[string]*table.Table, error) {
	t = withStructuralColumns(t)
	cols := t.Columns()
	idCol := cols[0]

	groups := make(map[string][][]string)
	var order []string
	for i := 0; i < t.Len(); i++ {
		event := t.Cell(i, table.EventColumn)
		if mapped, ok := opts.EventMap[event]; ok {
			event = mapped
		}
		name := combineNames(event, t.Cell(i, table.RepeatInstrumentColumn))
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], t.Row(i))
	}

	out := make(map[string]*table.Table, len(groups))
	for _, name := range order {
		rows := groups[name]
		part, err := table.New(cols, rows)
		if err != nil {
			return nil, err
		}
		part = sortByColumn(part, idCol)
		if opts.Condense {
			part = condense(part)
		}
		out[name] = part
	}
	return out, nil
}

// FileName builds the output file name for a split part. Empty name parts
// are skipped, so non-repeating single-event data collapses to just the
// prefix.
func FileName(prefix, name string) string {
	return combineNames(prefix, name) + ".csv"
}

// combineNames joins non-empty name parts with a double underscore.
func combineNames(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "__")
}

// withStructuralColumns returns a table guaranteed to carry the event and
// repeat columns, adding blank ones when absent, so single-event and
// non-repeating exports split through the same path.
func withStructuralColumns(t *table.Table) *table.Table {
	var add []string
	if !t.HasColumn(table.EventColumn) {
		add = append(add, table.EventColumn)
	}
	if !t.HasColumn(table.RepeatInstrumentColumn) {
		add = append(add, table.RepeatInstrumentColumn, table.RepeatInstanceColumn)
	}
	if len(add) == 0 {
		return t
	}

	cols := append(t.Columns(), add...)
	rows := make([][]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		for range add {
			row = append(row, "")
		}
		rows[i] = row
	}
	nt, err := table.New(cols, rows)
	if err != nil {
		// Rows are built to the widened column count above.
		panic(fmt.Sprintf("split: %v", err))
	}
	return nt
}

func sortByColumn(t *table.Table, col string) *table.Table {
	rows := make([][]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		rows[i] = t.Row(i)
	}
	ci := t.ColumnIndex(col)
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a][ci] < rows[b][ci]
	})
	nt, err := table.New(t.Columns(), rows)
	if err != nil {
		panic(fmt.Sprintf("split: %v", err))
	}
	return nt
}

// condense drops rows whose non-structural columns are all blank, then
// any columns that are blank in every remaining row. The written shape
// therefore depends on the data; exports with sparse instruments come
// out considerably narrower.
func condense(t *table.Table) *table.Table {
	cols := t.Columns()
	structural := map[string]bool{
		cols[0]:                      true,
		table.EventColumn:            true,
		table.RepeatInstrumentColumn: true,
		table.RepeatInstanceColumn:   true,
	}

	var rows [][]string
	for i := 0; i < t.Len(); i++ {
		blank := true
		for _, col := range cols {
			if !structural[col] && t.Cell(i, col) != "" {
				blank = false
				break
			}
		}
		if !blank {
			rows = append(rows, t.Row(i))
		}
	}

	var keepIdx []int
	for ci := range cols {
		keep := false
		for _, row := range rows {
			if row[ci] != "" {
				keep = true
				break
			}
		}
		if keep {
			keepIdx = append(keepIdx, ci)
		}
	}

	keptCols := make([]string, len(keepIdx))
	for n, ci := range keepIdx {
		keptCols[n] = cols[ci]
	}
	keptRows := make([][]string, len(rows))
	for rn, row := range rows {
		kept := make([]string, len(keepIdx))
		for n, ci := range keepIdx {
			kept[n] = row[ci]
		}
		keptRows[rn] = kept
	}
	nt, err := table.New(keptCols, keptRows)
	if err != nil {
		panic(fmt.Sprintf("split: %v", err))
	}
	return nt
}
