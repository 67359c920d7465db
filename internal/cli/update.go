package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fitchlab/redkit/internal/diff"
	"github.com/fitchlab/redkit/internal/redcap"
	"github.com/fitchlab/redkit/internal/table"
)

// UpdateOptions holds flags for the update command.
type UpdateOptions struct {
	*RootOptions
	AllowNew   bool
	DryRun     bool
	StrictCols bool
	Background bool
	MaxRecords int
	BatchSize  int

	// Importer allows overriding the remote collaborator (for testing).
	// If nil, a redcap.Client built from the environment is used.
	Importer RecordImporter
}

// RecordImporter is the import capability the update command depends on.
type RecordImporter interface {
	ImportRecords(ctx context.Context, records []*diff.Record, background bool) (redcap.ImportResult, error)
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &UpdateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "update <base-csv> <updated-csv>",
		Short: "Push the minimal diff between two CSVs to REDCap",
		Long: `Update REDCap with the minimum changes needed to bring it in sync.

Computes the per-row, per-field differences between a base export and a
locally edited copy, then imports only the changed fields. Unchanged
fields are never sent, so concurrent upstream edits to untouched fields
are never clobbered.

Relies on the REDCAP_API_URL and REDCAP_API_TOKEN environment variables
(not required with --dry-run).

Example:
  redkit update --dry-run export.csv edited.csv
  redkit update --allow-new --batch-size 100 export.csv edited.csv`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.AllowNew, "allow-new", false, "allow adding new rows to REDCap")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "compute and report changes without importing")
	cmd.Flags().BoolVar(&opts.StrictCols, "strict-cols", false, "require matching column order, not just matching column sets")
	cmd.Flags().BoolVar(&opts.Background, "background", false, "queue the import on the server instead of applying synchronously")
	cmd.Flags().IntVar(&opts.MaxRecords, "max-records", 0, "abort if more than this many records would change (0 = unlimited)")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "import in batches of this many records (0 = one batch)")

	return cmd
}

func runUpdate(cmd *cobra.Command, opts *UpdateOptions, basePath, updatedPath string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	base, err := table.ReadFile(basePath)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot read base CSV", err)
	}
	if base.NumColumns() == 0 {
		return NewExitError(ExitFailure, basePath+" is empty or has no header row")
	}
	updated, err := table.ReadFile(updatedPath)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot read updated CSV", err)
	}
	if updated.NumColumns() == 0 {
		return NewExitError(ExitFailure, updatedPath+" is empty or has no header row")
	}

	if opts.StrictCols && !slices.Equal(base.Columns(), updated.Columns()) {
		return NewExitError(ExitFailure, "column order differs between base and updated CSV (--strict-cols)")
	}

	keyCols := table.KeyColumns(base)
	slog.Debug("using key columns", "columns", keyCols)

	records, err := diff.Transformations(base, updated, keyCols, diff.Options{AllowNew: opts.AllowNew})
	if err != nil {
		var de *diff.Error
		if errors.As(err, &de) {
			var details interface{}
			if len(de.Columns) > 0 {
				details = de.Columns
			}
			reportError(out, string(de.Code), de.Message, details)
		}
		return WrapExitError(ExitFailure, "diff failed", err)
	}
	if len(records) == 0 {
		return out.Success("No changes to make")
	}

	if err := redcap.CheckRecordLimit(len(records), opts.MaxRecords); err != nil {
		var re *redcap.Error
		if errors.As(err, &re) {
			reportError(out, string(re.Code), re.Message, nil)
		}
		return WrapExitError(ExitFailure, "refusing to import", err)
	}

	if opts.DryRun {
		slog.Warn("DRY RUN, NOT UPDATING ANYTHING")
		return out.Success(fmt.Sprintf("%d records would change; first change would have been %s",
			len(records), records[0]))
	}

	importer := opts.Importer
	if importer == nil {
		cfg, err := redcap.ConfigFromEnv()
		if err != nil {
			return WrapExitError(ExitFailure, "cannot contact REDCap", err)
		}
		importer = redcap.NewClient(cfg)
	}

	// Batches before the first failure stay applied; there is no
	// rollback. The error reports how far the import got so the operator
	// can reconcile.
	imported := 0
	batches := redcap.Batches(records, opts.BatchSize)
	for i, batch := range batches {
		result, err := importer.ImportRecords(cmd.Context(), batch, opts.Background)
		if err != nil {
			return WrapExitError(ExitFailure,
				fmt.Sprintf("import failed on batch %d of %d; %d records were already applied and are not rolled back",
					i+1, len(batches), imported), err)
		}
		imported += len(batch)
		slog.Info("batch imported", "batch", i+1, "batches", len(batches), "count", result.Count)
	}

	return out.Success(fmt.Sprintf("Imported %d changed records", imported))
}

// reportError renders a structured failure to stdout for --format json,
// where callers parse the response. Text mode leaves rendering to the
// exit path so the message is not printed twice.
func reportError(out *OutputFormatter, code, message string, details interface{}) {
	if out.Format != "json" {
		return
	}
	_ = out.Error(code, message, details)
}
