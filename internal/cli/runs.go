package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/timeline"
	"github.com/emiliopalmerini/wattline/internal/util"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show per-run boundaries, latency and throughput",
	Long: `Show the runs of each experiment: when they ran, request success rate,
throughput, goodput and the latency distribution reported by the harness,
followed by latency statistics over every recorded request.

Examples:
  wattline runs --results results.json
  wattline runs --results results.json -e read-heavy --format json`,
	RunE: runRuns,
}

var runsFormat string

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVarP(&runsFormat, "format", "f", formatTable, "Output format: table, json")
}

// ExportRunDetail is one run with its performance figures.
type ExportRunDetail struct {
	RunNumber   int64    `json:"run_number"`
	Schema      string   `json:"schema"`
	StartMs     *int64   `json:"start_ms,omitempty"`
	EndMs       *int64   `json:"end_ms,omitempty"`
	Requests    *int64   `json:"total_requests,omitempty"`
	SuccessRate *float64 `json:"success_rate,omitempty"`
	Throughput  *float64 `json:"throughput,omitempty"`
	Goodput     *float64 `json:"goodput,omitempty"`
	MedianMs    float64  `json:"median_ms"`
	P95Ms       float64  `json:"p95_ms"`
	P99Ms       float64  `json:"p99_ms"`
}

// ExportExperimentRuns groups the runs of one experiment.
type ExportExperimentRuns struct {
	Experiment string              `json:"experiment"`
	Runs       []ExportRunDetail   `json:"runs,omitempty"`
	Latency    domain.LatencyStats `json:"latency"`
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := checkFormat(runsFormat, formatTable, formatJSON); err != nil {
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

	reports := make([]ExportExperimentRuns, 0, len(ids))
	for _, id := range ids {
		exp, _ := app.Dataset.Experiment(id)
		reports = append(reports, experimentRuns(exp, app.Analysis.ShowRuns))
	}

	out := cmd.OutOrStdout()
	if runsFormat == formatJSON {
		return writeJSON(out, reports)
	}
	for i, r := range reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := writeExperimentRuns(out, r, app); err != nil {
			return err
		}
	}
	return nil
}

func experimentRuns(exp domain.ExperimentRecord, withRuns bool) ExportExperimentRuns {
	report := ExportExperimentRuns{
		Experiment: exp.ID,
		Latency:    timeline.LatencyStats(timeline.LatencySeries(exp)),
	}
	if !withRuns {
		return report
	}

	bounds := make(map[int64]domain.RunBoundary)
	for _, b := range timeline.RunBoundaries(exp) {
		bounds[b.RunNumber] = b
	}
	for i, run := range exp.Runs {
		d := ExportRunDetail{
			RunNumber:  timeline.RunNumber(run, i),
			Schema:     run.Variant().String(),
			Requests:   run.TotalRequests,
			Throughput: run.Throughput,
			Goodput:    run.Goodput,
		}
		if b, ok := bounds[d.RunNumber]; ok {
			d.StartMs, d.EndMs = &b.Start, &b.End
		}
		if rate, ok := timeline.SuccessRate(run); ok {
			d.SuccessRate = &rate
		}
		d.MedianMs, d.P95Ms, d.P99Ms = timeline.DistributionMs(run.LatencyDistribution)
		report.Runs = append(report.Runs, d)
	}
	return report
}

func writeExperimentRuns(w io.Writer, r ExportExperimentRuns, app *AppContext) error {
	loc := app.Analysis.Location
	fmt.Fprintf(w, "Experiment: %s\n", r.Experiment)

	if len(r.Runs) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RUN\tSTART\tEND\tREQUESTS\tSUCCESS\tTHROUGHPUT\tGOODPUT\tMEDIAN\tP95\tP99")
		for _, d := range r.Runs {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%.2f ms\t%.2f ms\t%.2f ms\n",
				d.RunNumber,
				util.FormatOptionalMillis(d.StartMs, loc),
				util.FormatOptionalMillis(d.EndMs, loc),
				optionalInt(d.Requests),
				optionalPercent(d.SuccessRate),
				optionalRate(d.Throughput),
				optionalRate(d.Goodput),
				d.MedianMs, d.P95Ms, d.P99Ms)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	l := r.Latency
	if l.Count == 0 {
		fmt.Fprintln(w, "Latency: no samples")
		return nil
	}
	fmt.Fprintf(w, "Latency: %s samples, min %.2f ms, median %.2f ms, p95 %.2f ms, p99 %.2f ms, max %.2f ms, mean %.2f ms\n",
		util.FormatNumber(int64(l.Count)), l.Min, l.Median, l.P95, l.P99, l.Max, l.Mean)
	return nil
}

func optionalInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return util.FormatNumber(*v)
}

func optionalPercent(v *float64) string {
	if v == nil {
		return "-"
	}
	return util.FormatPercent(*v)
}

func optionalRate(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f req/s", *v)
}
