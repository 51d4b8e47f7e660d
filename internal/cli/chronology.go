package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/timeline"
	"github.com/emiliopalmerini/wattline/internal/util"
)

var chronologyCmd = &cobra.Command{
	Use:   "chronology",
	Short: "Place experiments on a timeline with the pauses between them",
	Long: `Order experiments by start time and show the pauses between adjacent
experiments. Pauses of at least five seconds are labeled.

Examples:
  wattline chronology --results results.json
  wattline chronology --results results.json -e ALL_NO_WARMUP --format json`,
	RunE: runChronology,
}

var chronologyFormat string

func init() {
	rootCmd.AddCommand(chronologyCmd)

	chronologyCmd.Flags().StringVarP(&chronologyFormat, "format", "f", formatTable, "Output format: table, json")
}

// ExportSpan is one experiment on the timeline.
type ExportSpan struct {
	Experiment string `json:"experiment"`
	StartMs    int64  `json:"start_ms"`
	EndMs      int64  `json:"end_ms"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// ExportGap is the pause between two experiments.
type ExportGap struct {
	After   string  `json:"after"`
	Before  string  `json:"before"`
	Seconds float64 `json:"seconds"`
	Label   string  `json:"label,omitempty"`
}

// ChronologyReport is the JSON form of the timeline.
type ChronologyReport struct {
	Spans []ExportSpan `json:"experiments"`
	Gaps  []ExportGap  `json:"gaps,omitempty"`
}

func runChronology(cmd *cobra.Command, args []string) error {
	if err := checkFormat(chronologyFormat, formatTable, formatJSON); err != nil {
		return err
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

	out := cmd.OutOrStdout()
	if chronologyFormat == formatJSON {
		return writeJSON(out, report)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPERIMENT\tSTART\tEND")
	for _, s := range report.Spans {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Experiment, s.Start, s.End)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Gaps) > 0 {
		fmt.Fprintln(out)
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "AFTER\tBEFORE\tPAUSE")
		for _, g := range report.Gaps {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", g.After, g.Before, dash(g.Label))
		}
		return tw.Flush()
	}
	return nil
}

func chronologyIDs(ds *domain.Dataset, selector string) ([]string, error) {
	switch selector {
	case timeline.SelectorAll, timeline.SelectorAllData:
		return ds.ExperimentIDs(), nil
	case timeline.SelectorAllNoWarmup:
		var ids []string
		for _, id := range ds.ExperimentIDs() {
			if !domain.IsWarmupID(id) {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}
	if _, ok := ds.Experiment(selector); !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownExperiment, selector)
	}
	return []string{selector}, nil
}

func buildChronology(app *AppContext, ids []string) ChronologyReport {
	var report ChronologyReport
	if len(ids) == 0 {
		return report
	}

	loc := app.Analysis.Location
	spans := app.Resolver.Chronology(ids)
	for _, s := range spans {
		report.Spans = append(report.Spans, ExportSpan{
			Experiment: s.ID,
			StartMs:    s.Start,
			EndMs:      s.End,
			Start:      util.FormatMillis(s.Start, loc),
			End:        util.FormatMillis(s.End, loc),
		})
	}
	if !app.Analysis.ShowGaps {
		return report
	}
	for _, g := range timeline.Gaps(spans) {
		e := ExportGap{After: g.After, Before: g.Before, Seconds: g.Seconds}
		if g.Labeled {
			e.Label = util.FormatPause(g.Seconds)
		}
		report.Gaps = append(report.Gaps, e)
	}
	return report
}
