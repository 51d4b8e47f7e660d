package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/timeline"
	"github.com/emiliopalmerini/wattline/internal/util"
)

var boundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Show the resolved time range of every view",
	Long: `Show the time range each view filters telemetry to, and which rule
produced each side of it.

Examples:
  wattline bounds --results results.json
  wattline bounds --results results.json --runs -e read-heavy
  wattline bounds --results results.json --format json`,
	RunE: runBounds,
}

// Flags
var (
	boundsFormat string
	boundsRuns   bool
)

func init() {
	rootCmd.AddCommand(boundsCmd)

	boundsCmd.Flags().StringVarP(&boundsFormat, "format", "f", formatTable, "Output format: table, json")
	boundsCmd.Flags().BoolVar(&boundsRuns, "runs", false, "Also list per-run boundaries")
}

// ExportBounds is the resolved range of one view.
type ExportBounds struct {
	View      string      `json:"view"`
	Policy    string      `json:"policy"`
	StartMs   *int64      `json:"start_ms"`
	EndMs     *int64      `json:"end_ms"`
	Start     string      `json:"start"`
	End       string      `json:"end"`
	StartRule string      `json:"start_rule"`
	EndRule   string      `json:"end_rule"`
	Runs      []ExportRun `json:"runs,omitempty"`
}

// ExportRun is the boundary of one run.
type ExportRun struct {
	RunNumber int64  `json:"run_number"`
	StartMs   int64  `json:"start_ms"`
	EndMs     int64  `json:"end_ms"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func runBounds(cmd *cobra.Command, args []string) error {
	if err := checkFormat(boundsFormat, formatTable, formatJSON); err != nil {
		return err
	}

	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	selectors := append([]string{timeline.SelectorAll, timeline.SelectorAllNoWarmup, timeline.SelectorAllData},
		app.Dataset.ExperimentIDs()...)

	loc := app.Analysis.Location
	rows := make([]ExportBounds, 0, len(selectors))
	for _, sel := range selectors {
		view := app.Resolver.View(sel)
		row := ExportBounds{
			View:      sel,
			Policy:    view.Policy.String(),
			StartMs:   view.Range.Start,
			EndMs:     view.Range.End,
			Start:     util.FormatOptionalMillis(view.Range.Start, loc),
			End:       util.FormatOptionalMillis(view.Range.End, loc),
			StartRule: view.Resolution.Start.String(),
			EndRule:   view.Resolution.End.String(),
		}
		if boundsRuns && includeRuns(sel, experimentFlag) {
			if exp, ok := app.Dataset.Experiment(sel); ok {
				row.Runs = exportRuns(timeline.RunBoundaries(exp), loc)
			}
		}
		rows = append(rows, row)
	}

	out := cmd.OutOrStdout()
	if boundsFormat == formatJSON {
		return writeJSON(out, rows)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VIEW\tSTART\tEND\tDURATION\tSTART RULE\tEND RULE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.View, r.Start, r.End, rangeDuration(r.StartMs, r.EndMs), r.StartRule, r.EndRule)
		for _, run := range r.Runs {
			fmt.Fprintf(tw, "  run %d\t%s\t%s\t%s\t\t\n",
				run.RunNumber, run.Start, run.End, rangeDuration(&run.StartMs, &run.EndMs))
		}
	}
	return tw.Flush()
}

// includeRuns lists runs for every experiment under the aggregate views and
// only for the selected one otherwise.
func includeRuns(id, selector string) bool {
	switch selector {
	case timeline.SelectorAll, timeline.SelectorAllNoWarmup, timeline.SelectorAllData:
		return true
	}
	return id == selector
}

func exportRuns(runs []domain.RunBoundary, loc *time.Location) []ExportRun {
	out := make([]ExportRun, 0, len(runs))
	for _, r := range runs {
		out = append(out, ExportRun{
			RunNumber: r.RunNumber,
			StartMs:   r.Start,
			EndMs:     r.End,
			Start:     util.FormatMillis(r.Start, loc),
			End:       util.FormatMillis(r.End, loc),
		})
	}
	return out
}

func rangeDuration(start, end *int64) string {
	if start == nil || end == nil {
		return "-"
	}
	return (time.Duration(*end-*start) * time.Millisecond).String()
}
