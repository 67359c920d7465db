package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fitchlab/redkit/internal/redcap"
)

// DownloadOptions holds flags for the download command.
type DownloadOptions struct {
	*RootOptions
	FormsFile    string
	SurveyFields bool
}

// NewDownloadCommand creates the download command.
func NewDownloadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DownloadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "download <output-file>",
		Short: "Download the full REDCap dataset to a CSV file",
		Long: `Download the data for a REDCap study to a CSV file.

Optionally takes a file listing the instruments to download, one per
line; without it, all instruments are downloaded.

Relies on the REDCAP_API_URL and REDCAP_API_TOKEN environment variables.

Example:
  redkit download data/redcap.csv
  redkit download --forms forms.txt --survey-fields data/redcap.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.FormsFile, "forms", "", "file listing instruments to download, one per line")
	cmd.Flags().BoolVar(&opts.SurveyFields, "survey-fields", false, "include survey timestamps in output")

	return cmd
}

func runDownload(cmd *cobra.Command, opts *DownloadOptions, outputPath string) error {
	var forms []string
	if opts.FormsFile != "" {
		var err error
		forms, err = readLines(opts.FormsFile)
		if err != nil {
			return WrapExitError(ExitFailure, "cannot read forms file", err)
		}
	}

	cfg, err := redcap.ConfigFromEnv()
	if err != nil {
		return WrapExitError(ExitFailure, "cannot contact REDCap", err)
	}
	client := redcap.NewClient(cfg)

	data, err := client.Export(cmd.Context(), redcap.ExportOptions{
		Forms:        forms,
		SurveyFields: opts.SurveyFields,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "download failed", err)
	}

	if err := os.WriteFile(outputPath, []byte(data), 0o644); err != nil {
		return WrapExitError(ExitFailure, "cannot write output", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s\n", outputPath)
	return nil
}

// readLines reads non-empty trimmed lines from a file.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}
