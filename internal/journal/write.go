package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordRun appends one run record. An empty ID gets a fresh UUID.
// Duplicate IDs are silently ignored so a retried write stays idempotent.
func (j *Journal) RecordRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, output_path, mode, started_at, rows_fetched, rows_total, status, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.OutputPath,
		run.Mode,
		run.StartedAt.Format(time.RFC3339Nano),
		run.RowsFetched,
		run.RowsTotal,
		run.Status,
		run.Detail,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
