package incremental

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitchlab/redkit/internal/testutil"
)

// fakeFetcher replays canned CSV responses and records the dateBegin of
// every call.
type fakeFetcher struct {
	responses []string
	err       error
	calls     []*time.Time
}

func (f *fakeFetcher) ExportRecords(_ context.Context, dateBegin *time.Time) (string, error) {
	var copied *time.Time
	if dateBegin != nil {
		t := *dateBegin
		copied = &t
	}
	f.calls = append(f.calls, copied)
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func readFileString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRunner_FirstRunFetchesEverything(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{responses: []string{"record_id,field1\n1,a\n"}}

	r := &Runner{
		Fetcher: fetcher,
		Overlap: 24 * time.Hour,
		Clock:   testutil.NewFixedClock(start),
	}
	require.NoError(t, r.Run(context.Background(), out))

	require.Len(t, fetcher.calls, 1)
	assert.Nil(t, fetcher.calls[0], "first run must not pass a date filter")

	// The raw fetch is the base, verbatim, and is copied to the output.
	assert.Equal(t, "record_id,field1\n1,a\n", readFileString(t, BaseFile(out)))
	assert.Equal(t, "record_id,field1\n1,a\n", readFileString(t, out))

	ts, ok, err := ReadTimestamp(out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, start.Equal(ts))
}

func TestRunner_SecondRunFetchesSinceOverlapWindow(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	firstStart := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	overlap := 24 * time.Hour
	clock := testutil.NewFixedClock(firstStart)
	fetcher := &fakeFetcher{responses: []string{
		"record_id,field1\n1,a\n2,b\n",
		"record_id,field1\n2,B\n3,c\n",
	}}

	r := &Runner{Fetcher: fetcher, Overlap: overlap, Clock: clock}
	require.NoError(t, r.Run(context.Background(), out))

	clock.Advance(time.Hour)
	require.NoError(t, r.Run(context.Background(), out))

	require.Len(t, fetcher.calls, 2)
	require.NotNil(t, fetcher.calls[1])
	wantBegin := firstStart.Add(-overlap)
	assert.True(t, wantBegin.Equal(*fetcher.calls[1]),
		"date_begin must be the first run's start minus the overlap")
	assert.True(t, fetcher.calls[1].Before(firstStart))

	// Merged output: row 2 replaced, row 3 added.
	assert.Equal(t, "record_id,field1\n1,a\n2,B\n3,c\n", readFileString(t, out))

	ts, ok, err := ReadTimestamp(out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, firstStart.Add(time.Hour).Equal(ts))
}

func TestRunner_EmptyIncrementalFetchKeepsBase(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	clock := testutil.NewFixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{responses: []string{
		"record_id,field1\n1,a\n",
		"",
	}}

	r := &Runner{Fetcher: fetcher, Overlap: time.Hour, Clock: clock}
	require.NoError(t, r.Run(context.Background(), out))

	clock.Advance(2 * time.Hour)
	require.NoError(t, r.Run(context.Background(), out))

	assert.Equal(t, "record_id,field1\n1,a\n", readFileString(t, out))

	// The timestamp still advances: the empty fetch succeeded.
	ts, ok, err := ReadTimestamp(out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, clock.Now().Equal(ts))
}

func TestRunner_FetchErrorLeavesStateIntact(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	clock := testutil.NewFixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{responses: []string{"record_id,field1\n1,a\n"}}

	r := &Runner{Fetcher: fetcher, Overlap: time.Hour, Clock: clock}
	require.NoError(t, r.Run(context.Background(), out))
	firstTS, _, err := ReadTimestamp(out)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	fetcher.err = assert.AnError
	require.Error(t, r.Run(context.Background(), out))

	// Neither the base nor the timestamp moved.
	assert.Equal(t, "record_id,field1\n1,a\n", readFileString(t, BaseFile(out)))
	ts, ok, err := ReadTimestamp(out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, firstTS.Equal(ts))
}

func TestRunner_ColumnsDroppedAborts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	clock := testutil.NewFixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{responses: []string{
		"record_id,field1,field2\n1,a,x\n",
		"record_id,field1\n1,A\n",
	}}

	r := &Runner{Fetcher: fetcher, Overlap: time.Hour, Clock: clock}
	require.NoError(t, r.Run(context.Background(), out))
	firstTS, _, err := ReadTimestamp(out)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	err = r.Run(context.Background(), out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COLUMNS_DROPPED")

	// Prior state fully intact: the failed merge changed nothing.
	assert.Equal(t, "record_id,field1,field2\n1,a,x\n", readFileString(t, BaseFile(out)))
	ts, _, err := ReadTimestamp(out)
	require.NoError(t, err)
	assert.True(t, firstTS.Equal(ts))
}

func TestRunner_DateBeginComesFromStoredTimestamp(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	firstStart := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	overlap := time.Hour
	clock := testutil.NewFixedClock(firstStart)
	fetcher := &fakeFetcher{responses: []string{"record_id,field1\n1,a\n", ""}}

	r := &Runner{Fetcher: fetcher, Overlap: overlap, Clock: clock}
	require.NoError(t, r.Run(context.Background(), out))

	// Even with the wall clock moved backwards between runs, the change
	// window is anchored on the stored timestamp, not on the current time.
	skewed := firstStart.Add(-30 * time.Minute)
	clock.Set(skewed)
	require.NoError(t, r.Run(context.Background(), out))

	require.Len(t, fetcher.calls, 2)
	require.NotNil(t, fetcher.calls[1])
	assert.True(t, firstStart.Add(-overlap).Equal(*fetcher.calls[1]))

	ts, ok, err := ReadTimestamp(out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, skewed.Equal(ts), "the fetch-initiation time is recorded as-is")
}

func TestRunner_TimezoneAppliedToTimestamp(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	loc := time.FixedZone("CST", -6*3600)
	clock := testutil.NewFixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{responses: []string{"record_id\n1\n"}}

	r := &Runner{Fetcher: fetcher, Overlap: time.Hour, Clock: clock, Location: loc}
	require.NoError(t, r.Run(context.Background(), out))

	data, err := os.ReadFile(TimestampFile(out))
	require.NoError(t, err)
	assert.Contains(t, string(data), "-06:00")
}

func TestRunner_DeletingStateDirForcesFullFetch(t *testing.T) {
	out := filepath.Join(t.TempDir(), "redcap.csv")
	clock := testutil.NewFixedClock(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	fetcher := &fakeFetcher{responses: []string{"record_id\n1\n"}}

	r := &Runner{Fetcher: fetcher, Overlap: time.Hour, Clock: clock}
	require.NoError(t, r.Run(context.Background(), out))
	require.NoError(t, os.RemoveAll(StateDir(out)))

	clock.Advance(time.Hour)
	require.NoError(t, r.Run(context.Background(), out))

	require.Len(t, fetcher.calls, 2)
	assert.Nil(t, fetcher.calls[1], "reset state must trigger a full fetch")
}
