package table

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVString_Basic(t *testing.T) {
	tab, err := ReadCSVString("record_id,field1\n1,a\n2,b\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"record_id", "field1"}, tab.Columns())
	assert.Equal(t, 2, tab.Len())
	assert.Equal(t, "a", tab.Cell(0, "field1"))
}

func TestReadCSVString_ShortRowsPadded(t *testing.T) {
	// A missing trailing field reads as the empty string, same as a
	// blank one.
	tab, err := ReadCSVString("record_id,field1,field2\n1,a\n")
	require.NoError(t, err)
	assert.Equal(t, "", tab.Cell(0, "field2"))
}

func TestReadCSVString_WideRowRejected(t *testing.T) {
	_, err := ReadCSVString("record_id,field1\n1,a,extra\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestReadCSVString_StripsBOM(t *testing.T) {
	tab, err := ReadCSVString("\xef\xbb\xbfrecord_id,field1\n1,a\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"record_id", "field1"}, tab.Columns())
}

func TestReadCSVString_Empty(t *testing.T) {
	tab, err := ReadCSVString("")
	require.NoError(t, err)
	assert.True(t, tab.IsEmpty())
	assert.Equal(t, 0, tab.NumColumns())
}

func TestReadCSVString_HeaderOnly(t *testing.T) {
	tab, err := ReadCSVString("record_id,field1\n")
	require.NoError(t, err)
	assert.True(t, tab.IsEmpty())
	assert.Equal(t, 2, tab.NumColumns())
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tab := MustNew(
		[]string{"record_id", "field1"},
		[][]string{{"1", "hello, world"}, {"2", "line\nbreak"}, {"3", ""}},
	)

	var buf bytes.Buffer
	require.NoError(t, tab.WriteCSV(&buf))

	back, err := ReadCSVString(buf.String())
	require.NoError(t, err)
	assert.Equal(t, tab.Columns(), back.Columns())
	require.Equal(t, tab.Len(), back.Len())
	for i := 0; i < tab.Len(); i++ {
		assert.Equal(t, tab.Row(i), back.Row(i))
	}
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	tab := MustNew([]string{"record_id", "field1"}, [][]string{{"1", "a"}})
	require.NoError(t, tab.WriteFile(path))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a", back.Cell(0, "field1"))
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.True(t, os.IsNotExist(err))
}
