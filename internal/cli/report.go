package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fitchlab/redkit/internal/redcap"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	IDs    []string
	File   string
	Prefix string
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report <output-dir>",
		Short: "Download REDCap reports to CSV files",
		Long: `Download the reports in a REDCap study to CSV files.

Report IDs come from repeated --id flags or from a file with one ID per
line. Each report is written to <output-dir>/<prefix>__report_<id>.csv.
A report that fails to download is logged and skipped; the rest of the
run continues.

Relies on the REDCAP_API_URL and REDCAP_API_TOKEN environment variables.

Example:
  redkit report --id 32001 --id 32004 reports/
  redkit report --file report_ids.txt --prefix study reports/`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringSliceVar(&opts.IDs, "id", nil, "report ID to download (repeatable)")
	cmd.Flags().StringVar(&opts.File, "file", "", "file listing report IDs, one per line")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "redcap", "filename prefix for the output")

	return cmd
}

func runReport(cmd *cobra.Command, opts *ReportOptions, outDir string) error {
	ids := opts.IDs
	if opts.File != "" {
		fileIDs, err := readLines(opts.File)
		if err != nil {
			return WrapExitError(ExitFailure, "cannot read report ID file", err)
		}
		ids = append(ids, fileIDs...)
	}
	if len(ids) == 0 {
		return NewExitError(ExitFailure, "no report IDs provided: use --id or --file")
	}

	cfg, err := redcap.ConfigFromEnv()
	if err != nil {
		return WrapExitError(ExitFailure, "cannot contact REDCap", err)
	}
	client := redcap.NewClient(cfg)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WrapExitError(ExitFailure, "cannot create output directory", err)
	}

	downloaded := 0
	for _, id := range ids {
		slog.Debug("downloading report", "id", id)
		data, err := client.ExportReport(cmd.Context(), id)
		if err != nil {
			slog.Warn("report not downloaded, skipping", "id", id, "error", err)
			continue
		}
		outFile := filepath.Join(outDir, fmt.Sprintf("%s__report_%s.csv", opts.Prefix, id))
		if err := os.WriteFile(outFile, []byte(data), 0o644); err != nil {
			return WrapExitError(ExitFailure, "cannot write report", err)
		}
		slog.Info("report downloaded", "id", id, "file", outFile)
		downloaded++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d of %d reports\n", downloaded, len(ids))
	return nil
}
