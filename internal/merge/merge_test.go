package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchlab/redkit/internal/table"
)

func TestMerge_IncrementalRowWinsWholesale(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", table.EventColumn, "field1", "field2"},
		[][]string{
			{"1", "scr", "a", "x"},
			{"2", "scr", "b", "y"},
		},
	)
	inc := table.MustNew(
		[]string{"record_id", table.EventColumn, "field1", "field2"},
		[][]string{
			{"2", "scr", "B", ""},
		},
	)

	merged, err := Merge(base, inc)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())

	// The whole incremental row replaces the base row: field2 becomes
	// empty, not a per-column splice keeping "y".
	assert.Equal(t, []string{"1", "scr", "a", "x"}, merged.Row(0))
	assert.Equal(t, []string{"2", "scr", "B", ""}, merged.Row(1))
}

func TestMerge_AddsNewKeys(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "a"}},
	)
	inc := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"2", "b"}},
	)

	merged, err := Merge(base, inc)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, []string{"1", "a"}, merged.Row(0))
	assert.Equal(t, []string{"2", "b"}, merged.Row(1))
}

func TestMerge_NewColumnsBackfilledEmpty(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "a"}, {"2", "b"}},
	)
	inc := table.MustNew(
		[]string{"record_id", "field1", "field2"},
		[][]string{{"2", "b2", "new"}},
	)

	merged, err := Merge(base, inc)
	require.NoError(t, err)

	// Base columns keep their order; incremental-only columns append.
	assert.Equal(t, []string{"record_id", "field1", "field2"}, merged.Columns())
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, []string{"1", "a", ""}, merged.Row(0))
	assert.Equal(t, []string{"2", "b2", "new"}, merged.Row(1))
}

func TestMerge_ColumnsDropped(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", "field1", "field2"},
		[][]string{{"1", "a", "x"}},
	)
	inc := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"9", "z"}},
	)

	// Fails even though no merged row would have referenced field2.
	_, err := Merge(base, inc)
	require.Error(t, err)
	assert.True(t, IsColumnsDropped(err))
	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, []string{"field2"}, me.Columns)
}

func TestMerge_CompositeKey(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", table.EventColumn, table.RepeatInstrumentColumn, table.RepeatInstanceColumn, "dose"},
		[][]string{
			{"1", "pre", "meds", "1", "100"},
			{"1", "pre", "meds", "2", "200"},
		},
	)
	inc := table.MustNew(
		[]string{"record_id", table.EventColumn, table.RepeatInstrumentColumn, table.RepeatInstanceColumn, "dose"},
		[][]string{
			{"1", "pre", "meds", "2", "250"},
		},
	)

	merged, err := Merge(base, inc)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, "100", merged.Cell(0, "dose"))
	assert.Equal(t, "250", merged.Cell(1, "dose"))
}

func TestMerge_SupersededRowTakesIncrementalPosition(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "a"}, {"2", "b"}, {"3", "c"}},
	)
	inc := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "A"}},
	)

	merged, err := Merge(base, inc)
	require.NoError(t, err)
	require.Equal(t, 3, merged.Len())

	// Dedup keeps the last occurrence at its position: untouched base
	// rows first in base order, then incremental rows in fetch order.
	assert.Equal(t, []string{"2", "b"}, merged.Row(0))
	assert.Equal(t, []string{"3", "c"}, merged.Row(1))
	assert.Equal(t, []string{"1", "A"}, merged.Row(2))
}

func TestMerge_NewStructuralColumn(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "a"}},
	)
	inc := table.MustNew(
		[]string{"record_id", "field1", table.EventColumn},
		[][]string{{"2", "b", "scr"}},
	)

	// The event column joins the key even though base rows never had it;
	// base rows key with an empty event value.
	merged, err := Merge(base, inc)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, []string{"1", "a", ""}, merged.Row(0))
	assert.Equal(t, []string{"2", "b", "scr"}, merged.Row(1))
}

func TestMerge_Idempotent(t *testing.T) {
	base := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "a"}, {"2", "b"}},
	)
	inc := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"2", "B"}, {"4", "d"}},
	)

	once, err := Merge(base, inc)
	require.NoError(t, err)
	twice, err := Merge(once, inc)
	require.NoError(t, err)

	require.Equal(t, once.Len(), twice.Len())
	for i := 0; i < once.Len(); i++ {
		assert.Equal(t, once.Row(i), twice.Row(i))
	}
}

func TestMerge_EmptyBase(t *testing.T) {
	base := table.MustNew([]string{"record_id", "field1"}, nil)
	inc := table.MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "a"}},
	)

	merged, err := Merge(base, inc)
	require.NoError(t, err)
	require.Equal(t, 1, merged.Len())
}
