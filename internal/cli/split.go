package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fitchlab/redkit/internal/split"
	"github.com/fitchlab/redkit/internal/table"
)

// SplitOptions holds flags for the split command.
type SplitOptions struct {
	*RootOptions
	EventMapFile string
	Prefix       string
	NoCondense   bool
}

// NewSplitCommand creates the split command.
func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SplitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "split <input-file> <output-dir>",
		Short: "Split a REDCap CSV into per-event and per-instrument files",
		Long: `Split a flat REDCap CSV export into one file per event, plus one file
per repeating instrument in events that have them.

An optional event map (CSV with redcap_event and filename_event columns)
renames events in the output file names; mapping several events to one
name combines their data, which is useful when events denote arms.

Example:
  redkit split data/redcap.csv out/
  redkit split --event-map events.csv --prefix study data/redcap.csv out/`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.EventMapFile, "event-map", "", "CSV file mapping redcap events to file events")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "redcap", "filename prefix for the output")
	cmd.Flags().BoolVar(&opts.NoCondense, "no-condense", false, "keep all-blank rows, columns and files")

	return cmd
}

func runSplit(cmd *cobra.Command, opts *SplitOptions, inputPath, outDir string) error {
	var eventMap map[string]string
	if opts.EventMapFile != "" {
		var err error
		eventMap, err = split.ReadEventMap(opts.EventMapFile)
		if err != nil {
			return WrapExitError(ExitFailure, "cannot read event map", err)
		}
		slog.Debug("event map loaded", "entries", len(eventMap))
	}

	data, err := table.ReadFile(inputPath)
	if err != nil {
		return WrapExitError(ExitFailure, "cannot read input", err)
	}
	if data.NumColumns() == 0 {
		return NewExitError(ExitFailure, inputPath+" is empty or has no header row")
	}

	parts, err := split.Split(data, split.Options{
		EventMap: eventMap,
		Condense: !opts.NoCondense,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "split failed", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WrapExitError(ExitFailure, "cannot create output directory", err)
	}

	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		part := parts[name]
		if part.IsEmpty() && !opts.NoCondense {
			slog.Debug("skipping empty split", "name", name)
			continue
		}
		outPath := filepath.Join(outDir, split.FileName(opts.Prefix, name))
		if err := part.WriteFile(outPath); err != nil {
			return WrapExitError(ExitFailure, "cannot write split file", err)
		}
		slog.Info("saved split file", "file", outPath, "rows", part.Len(), "columns", part.NumColumns())
		written++
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", written, outDir)
	return nil
}
