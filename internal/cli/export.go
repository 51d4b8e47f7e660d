package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data to JSON or CSV",
	Long: `Export window series or the experiment timeline for external analysis.

Examples:
  wattline export series --results results.json --format json --output series.json
  wattline export series --results results.json -e read-heavy --format csv --output read-heavy.csv
  wattline export chronology --results results.json --output chronology.json`,
}

var exportSeriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Export window series",
	RunE:  runExportSeries,
}

var exportChronologyCmd = &cobra.Command{
	Use:   "chronology",
	Short: "Export experiment spans and pauses",
	RunE:  runExportChronology,
}

// Flags
var (
	exportFormat string
	exportOutput string
)

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportSeriesCmd)
	exportCmd.AddCommand(exportChronologyCmd)

	exportCmd.PersistentFlags().StringVarP(&exportFormat, "format", "f", formatJSON, "Output format: json, csv")
	exportCmd.PersistentFlags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}

func runExportSeries(cmd *cobra.Command, args []string) error {
	if err := checkFormat(exportFormat, formatJSON, formatCSV); err != nil {
		return err
	}

	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	view, series, err := app.BuildView(cmd.Context(), experimentFlag)
	if err != nil {
		return err
	}
	exported := toExportSeries(series, app.Analysis.Location)

	return writeExport(cmd, len(exported), "series", func(w io.Writer) error {
		if exportFormat == formatCSV {
			return writeSeriesCSV(w, exported)
		}
		return writeJSON(w, SeriesReport{
			LoadID:       app.Dataset.LoadID,
			View:         view.Selector,
			Range:        formatRange(view.Range, app.Analysis.Location),
			WindowMs:     app.Analysis.Window.SizeMs,
			Accumulation: app.Analysis.Accumulation.String(),
			Series:       exported,
		})
	})
}

func runExportChronology(cmd *cobra.Command, args []string) error {
	if err := checkFormat(exportFormat, formatJSON); err != nil {
		return fmt.Errorf("%w (chronology exports as json)", err)
	}

	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	ids, err := chronologyIDs(app.Dataset, experimentFlag)
	if err != nil {
		return err
	}
	report := buildChronology(app, ids)

	return writeExport(cmd, len(report.Spans), "experiments", func(w io.Writer) error {
		return writeJSON(w, report)
	})
}

// writeExport writes to --output when set, else to the command's stdout.
func writeExport(cmd *cobra.Command, count int, noun string, write func(io.Writer) error) error {
	if exportOutput == "" {
		return write(cmd.OutOrStdout())
	}

	output, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(output); err != nil {
		_ = output.Close()
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	if err := output.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d %s to %s\n", count, noun, exportOutput)
	return nil
}
