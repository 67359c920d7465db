package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fitchlab/redkit/internal/incremental"
	"github.com/fitchlab/redkit/internal/journal"
	"github.com/fitchlab/redkit/internal/redcap"
)

// journalFileName is the run-history database inside .incremental/.
const journalFileName = "history.db"

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Overlap  string
	Timezone string

	// Fetcher allows overriding the remote collaborator (for testing).
	// If nil, a redcap.Client built from the environment is used.
	Fetcher incremental.Fetcher

	// Clock allows overriding the download clock (for testing).
	Clock incremental.Clock
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync <output-file>",
		Short: "Download REDCap data incrementally to a CSV file",
		Long: `Download REDCap data incrementally to a CSV file.

On first run, downloads all records as a base. On subsequent runs,
downloads only records changed since the last run and merges them into
the output. State lives in a .incremental/ directory next to the output
file; delete it to force a full re-download.

Relies on the REDCAP_API_URL and REDCAP_API_TOKEN environment variables.

Example:
  redkit sync --overlap 24h --tz America/Chicago data/redcap.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Overlap, "overlap", "24h",
		"overlap duration for missed-change protection (60s, 5m, 24h, 3d, or bare seconds)")
	cmd.Flags().StringVar(&opts.Timezone, "tz", "",
		"IANA timezone for timestamps, e.g. America/Chicago (default: local time)")

	return cmd
}

func runSync(cmd *cobra.Command, opts *SyncOptions, outputPath string) error {
	overlap, err := incremental.ParseOverlap(opts.Overlap)
	if err != nil {
		return WrapExitError(ExitFailure,
			"--overlap must be a duration like '60s', '5m', '24h', '3d', or a bare number of seconds", err)
	}

	runner := &incremental.Runner{
		Overlap: overlap,
		Fetcher: opts.Fetcher,
		Clock:   opts.Clock,
	}

	if opts.Timezone != "" {
		runner.Location, err = incremental.LoadTimezone(opts.Timezone)
		if err != nil {
			return WrapExitError(ExitFailure, "invalid --tz", err)
		}
	}

	// Credentials are validated before any state is touched.
	if runner.Fetcher == nil {
		cfg, err := redcap.ConfigFromEnv()
		if err != nil {
			return WrapExitError(ExitFailure, "cannot contact REDCap", err)
		}
		runner.Fetcher = redcap.NewClient(cfg)
	}

	if err := os.MkdirAll(incremental.StateDir(outputPath), 0o755); err != nil {
		return WrapExitError(ExitFailure, "cannot create state directory", err)
	}
	j, err := journal.Open(filepath.Join(incremental.StateDir(outputPath), journalFileName))
	if err != nil {
		// The journal is an audit trail; a broken one should not block a
		// download.
		slog.Warn("could not open run journal", "error", err)
	} else {
		runner.Journal = j
		defer j.Close()
	}

	if err := runner.Run(cmd.Context(), outputPath); err != nil {
		return WrapExitError(ExitFailure, "sync failed", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Synced %s\n", outputPath)
	return nil
}
