package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/util"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Aggregate energy into time windows",
	Long: `Filter the energy telemetry to an experiment's time range and aggregate
each series into fixed-width windows.

Examples:
  wattline series --results results.json                         # All experiments
  wattline series --results results.json -e read-heavy --windows # One experiment, every window
  wattline series --results results.json --series api,db --window 1s
  wattline series --results results.json --format csv`,
	RunE: runSeries,
}

// Flags
var (
	seriesFormat  string
	seriesWindows bool
)

func init() {
	rootCmd.AddCommand(seriesCmd)

	seriesCmd.Flags().StringVarP(&seriesFormat, "format", "f", formatTable, "Output format: table, json, csv")
	seriesCmd.Flags().BoolVar(&seriesWindows, "windows", false, "List every window in table output")
}

// SeriesReport is the JSON form of a view.
type SeriesReport struct {
	LoadID       string         `json:"load_id"`
	View         string         `json:"view"`
	Range        string         `json:"range"`
	WindowMs     int64          `json:"window_ms"`
	Accumulation string         `json:"accumulation"`
	Series       []ExportSeries `json:"series"`
}

func runSeries(cmd *cobra.Command, args []string) error {
	if err := checkFormat(seriesFormat, formatTable, formatJSON, formatCSV); err != nil {
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
	out := cmd.OutOrStdout()

	switch seriesFormat {
	case formatJSON:
		return writeJSON(out, SeriesReport{
			LoadID:       app.Dataset.LoadID,
			View:         view.Selector,
			Range:        formatRange(view.Range, app.Analysis.Location),
			WindowMs:     app.Analysis.Window.SizeMs,
			Accumulation: app.Analysis.Accumulation.String(),
			Series:       exported,
		})
	case formatCSV:
		return writeSeriesCSV(out, exported)
	}

	fmt.Fprintf(out, "View:    %s (%s)\n", view.Selector, view.Policy)
	fmt.Fprintf(out, "Range:   %s\n", formatRange(view.Range, app.Analysis.Location))
	fmt.Fprintf(out, "Window:  %d ms, %s\n\n", app.Analysis.Window.SizeMs, app.Analysis.Accumulation)
	if err := writeSeriesSummary(out, exported); err != nil {
		return err
	}
	if seriesWindows {
		fmt.Fprintln(out)
		return writeSeriesWindows(out, exported)
	}
	return nil
}

func formatRange(r domain.TimeRange, loc *time.Location) string {
	return fmt.Sprintf("%s -> %s", util.FormatOptionalMillis(r.Start, loc), util.FormatOptionalMillis(r.End, loc))
}
