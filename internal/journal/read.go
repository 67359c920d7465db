package journal

import (
	"context"
	"fmt"
	"time"
)

// ListRuns returns the most recent runs for an output path, newest first.
// A limit of 0 means no limit. Returns an empty slice, not nil, when
// nothing is recorded.
func (j *Journal) ListRuns(ctx context.Context, outputPath string, limit int) ([]Run, error) {
	query := `
		SELECT id, output_path, mode, started_at, rows_fetched, rows_total, status, detail
		FROM runs
		WHERE output_path = ?
		ORDER BY started_at DESC, id ASC
	`
	args := []any{outputPath}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var startedAt string
		if err := rows.Scan(
			&run.ID,
			&run.OutputPath,
			&run.Mode,
			&startedAt,
			&run.RowsFetched,
			&run.RowsTotal,
			&run.Status,
			&run.Detail,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
