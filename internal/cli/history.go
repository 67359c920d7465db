package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fitchlab/redkit/internal/incremental"
	"github.com/fitchlab/redkit/internal/journal"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <output-file>",
		Short: "Show past sync runs for an output file",
		Long: `Show the recorded sync runs for an output file, newest first.

Run history is kept in the same .incremental/ directory as the rest of
the sync state.

Example:
  redkit history data/redcap.csv
  redkit history --format json --limit 5 data/redcap.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to show (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, outputPath string) error {
	dbPath := filepath.Join(incremental.StateDir(outputPath), journalFileName)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return NewExitError(ExitFailure, "no sync history for "+outputPath)
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot open run journal", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), outputPath, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot list runs", err)
	}

	if opts.Format == "json" {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		return out.Success(runs)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tMODE\tFETCHED\tTOTAL\tSTATUS\tDETAIL")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Mode, run.RowsFetched, run.RowsTotal, run.Status, run.Detail)
	}
	return w.Flush()
}
