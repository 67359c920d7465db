package split

import (
	"fmt"

	"github.com/fitchlab/redkit/internal/table"
)

// Event map file columns.
const (
	eventMapFromColumn = "redcap_event"
	eventMapToColumn   = "filename_event"
)

// ReadEventMap reads a CSV mapping of REDCap event names to output file
// event names. The file must carry redcap_event and filename_event
// columns.
func ReadEventMap(path string) (map[string]string, error) {
	t, err := table.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, col := range []string{eventMapFromColumn, eventMapToColumn} {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("event map %s: missing column %q", path, col)
		}
	}
	m := make(map[string]string, t.Len())
	for i := 0; i < t.Len(); i++ {
		m[t.Cell(i, eventMapFromColumn)] = t.Cell(i, eventMapToColumn)
	}
	return m, nil
}
