package incremental

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fitchlab/redkit/internal/journal"
	"github.com/fitchlab/redkit/internal/merge"
	"github.com/fitchlab/redkit/internal/table"
)

// Fetcher is the remote-export capability the runner depends on. A nil
// dateBegin asks for the full current dataset; otherwise only records
// changed at or after dateBegin are returned. The result is raw CSV text.
type Fetcher interface {
	ExportRecords(ctx context.Context, dateBegin *time.Time) (string, error)
}

// Clock supplies the current time. Injected so tests can pin the download
// timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Runner performs one incremental download into an output path.
type Runner struct {
	Fetcher Fetcher

	// Overlap is subtracted from the last download timestamp when
	// computing the change window, covering clock skew between this tool
	// and the remote system's change tracking.
	Overlap time.Duration

	// Location is the timezone for recorded timestamps. Nil means local
	// time.
	Location *time.Location

	// Clock defaults to the system clock.
	Clock Clock

	// Journal, when set, receives one run record per invocation.
	Journal *journal.Journal
}

// Run executes one download. With no prior state it fetches the full
// dataset and writes it as the base verbatim; otherwise it fetches
// changes since the last timestamp minus the overlap and merges them into
// the base. Either way the new timestamp is the time the fetch was
// initiated, the base file is updated before the timestamp file, and the
// base is copied to the output path last.
func (r *Runner) Run(ctx context.Context, outputPath string) error {
	if err := os.MkdirAll(StateDir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	clock := r.Clock
	if clock == nil {
		clock = systemClock{}
	}
	downloadStart := clock.Now()
	if r.Location != nil {
		downloadStart = downloadStart.In(r.Location)
	}

	lastTS, primed, err := ReadTimestamp(outputPath)
	if err != nil {
		return err
	}

	var rec journal.Run
	rec.OutputPath = outputPath
	rec.StartedAt = downloadStart

	if !primed {
		rec.Mode = journal.ModeFull
		rec.RowsFetched, rec.RowsTotal, err = r.fullDownload(ctx, outputPath)
	} else {
		rec.Mode = journal.ModeIncremental
		rec.RowsFetched, rec.RowsTotal, err = r.incrementalDownload(ctx, outputPath, lastTS)
	}
	if err != nil {
		r.record(ctx, rec, err)
		return err
	}

	if err := WriteTimestamp(outputPath, downloadStart); err != nil {
		r.record(ctx, rec, err)
		return err
	}
	if err := copyFileAtomic(BaseFile(outputPath), outputPath); err != nil {
		r.record(ctx, rec, err)
		return err
	}
	r.record(ctx, rec, nil)
	return nil
}

// fullDownload fetches the complete dataset and writes it as the new base
// verbatim. This is the first snapshot; there is nothing to merge.
func (r *Runner) fullDownload(ctx context.Context, outputPath string) (fetched, total int, err error) {
	slog.Info("no previous download found, performing full base download")
	raw, err := r.Fetcher.ExportRecords(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	t, err := table.ReadCSVString(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("parse full export: %w", err)
	}
	if err := writeFileAtomic(BaseFile(outputPath), []byte(raw)); err != nil {
		return 0, 0, err
	}
	slog.Info("base download complete", "rows", t.Len())
	return t.Len(), t.Len(), nil
}

func (r *Runner) incrementalDownload(ctx context.Context, outputPath string, lastTS time.Time) (fetched, total int, err error) {
	dateBegin := lastTS.Add(-r.Overlap)
	slog.Info("downloading changes", "since", dateBegin, "overlap", r.Overlap)
	raw, err := r.Fetcher.ExportRecords(ctx, &dateBegin)
	if err != nil {
		return 0, 0, err
	}
	inc, err := table.ReadCSVString(raw)
	if err != nil {
		return 0, 0, fmt.Errorf("parse incremental export: %w", err)
	}

	if inc.IsEmpty() {
		slog.Info("no new records found")
		base, err := table.ReadFile(BaseFile(outputPath))
		if err != nil {
			return 0, 0, err
		}
		return 0, base.Len(), nil
	}

	slog.Info("merging incremental rows into base", "rows", inc.Len())
	base, err := table.ReadFile(BaseFile(outputPath))
	if err != nil {
		return 0, 0, err
	}
	merged, err := merge.Merge(base, inc)
	if err != nil {
		return 0, 0, err
	}
	if err := writeTableAtomic(BaseFile(outputPath), merged); err != nil {
		return 0, 0, err
	}
	slog.Info("merge complete", "rows", merged.Len())
	return inc.Len(), merged.Len(), nil
}

func (r *Runner) record(ctx context.Context, rec journal.Run, runErr error) {
	if r.Journal == nil {
		return
	}
	rec.Status = journal.StatusOK
	if runErr != nil {
		rec.Status = journal.StatusFailed
		rec.Detail = runErr.Error()
	}
	if err := r.Journal.RecordRun(ctx, rec); err != nil {
		slog.Warn("could not record run in journal", "error", err)
	}
}

func writeTableAtomic(path string, t *table.Table) error {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}
