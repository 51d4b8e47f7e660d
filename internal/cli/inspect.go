package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/wattline/internal/domain"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize the loaded documents",
	Long: `Summarize what was loaded: telemetry record counts, container identity,
experiments with the schema variants of their runs, and every feature that
was disabled during the load.

Examples:
  wattline inspect --results results.json --metadata metadata.json
  wattline inspect --results results.json --format json`,
	RunE: runInspect,
}

var inspectFormat string

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", formatTable, "Output format: table, json")
}

// InspectReport is the JSON form of the dataset summary.
type InspectReport struct {
	LoadID         string              `json:"load_id"`
	Results        string              `json:"results"`
	APIIntervals   int                 `json:"api_intervals"`
	DBIntervals    int                 `json:"db_intervals"`
	PowerAPIAPI    int                 `json:"powerapi_api_samples"`
	PowerAPIDB     int                 `json:"powerapi_db_samples"`
	SkippedRecords int                 `json:"skipped_records"`
	APIContainer   string              `json:"api_container_id"`
	DBContainer    string              `json:"db_container_id"`
	Telemetry      string              `json:"telemetry_range"`
	Experiments    []InspectExperiment `json:"experiments"`
	Degradations   []InspectDegraded   `json:"degradations,omitempty"`
}

// InspectExperiment summarizes one experiment.
type InspectExperiment struct {
	ID       string         `json:"id"`
	Warmup   bool           `json:"warmup"`
	Runs     int            `json:"runs"`
	Variants map[string]int `json:"schema_variants"`
}

// InspectDegraded is one disabled feature.
type InspectDegraded struct {
	Feature string `json:"feature"`
	Reason  string `json:"reason"`
	Error   string `json:"error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := checkFormat(inspectFormat, formatTable, formatJSON); err != nil {
		return err
	}

	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	report := inspectDataset(app.Dataset, app.Resolver.Telemetry(), app.Analysis.Location)

	out := cmd.OutOrStdout()
	if inspectFormat == formatJSON {
		return writeJSON(out, report)
	}

	fmt.Fprintf(out, "Load:          %s\n", report.LoadID)
	fmt.Fprintf(out, "Results:       %s\n", report.Results)
	fmt.Fprintf(out, "API energy:    %d intervals\n", report.APIIntervals)
	fmt.Fprintf(out, "DB energy:     %d intervals\n", report.DBIntervals)
	fmt.Fprintf(out, "PowerAPI:      %d API samples, %d DB samples\n", report.PowerAPIAPI, report.PowerAPIDB)
	fmt.Fprintf(out, "Skipped:       %d malformed records\n", report.SkippedRecords)
	fmt.Fprintf(out, "API container: %s\n", dash(report.APIContainer))
	fmt.Fprintf(out, "DB container:  %s\n", dash(report.DBContainer))
	fmt.Fprintf(out, "Telemetry:     %s\n\n", report.Telemetry)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPERIMENT\tWARMUP\tRUNS\tSCHEMA")
	for _, e := range report.Experiments {
		fmt.Fprintf(tw, "%s\t%t\t%d\t%s\n", e.ID, e.Warmup, e.Runs, formatVariants(e.Variants))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(report.Degradations) > 0 {
		fmt.Fprintln(out, "\nDisabled features:")
		for _, d := range report.Degradations {
			fmt.Fprintf(out, "  %s: %s (%s)\n", d.Feature, d.Reason, d.Error)
		}
	}
	return nil
}

func inspectDataset(ds *domain.Dataset, telemetry domain.TimeRange, loc *time.Location) InspectReport {
	report := InspectReport{
		LoadID:         ds.LoadID,
		Results:        ds.ResultsPath,
		APIIntervals:   len(ds.APIEnergy),
		DBIntervals:    len(ds.DBEnergy),
		PowerAPIAPI:    len(ds.PowerAPIAPI),
		PowerAPIDB:     len(ds.PowerAPIDB),
		SkippedRecords: ds.SkippedRecords,
		APIContainer:   ds.Containers.APIContainerID,
		DBContainer:    ds.Containers.DBContainerID,
		Telemetry:      formatRange(telemetry, loc),
	}
	for _, id := range ds.ExperimentIDs() {
		exp, _ := ds.Experiment(id)
		e := InspectExperiment{ID: id, Warmup: exp.IsWarmup(), Runs: len(exp.Runs), Variants: map[string]int{}}
		for _, run := range exp.Runs {
			e.Variants[run.Variant().String()]++
		}
		report.Experiments = append(report.Experiments, e)
	}
	for _, d := range ds.Degradations {
		item := InspectDegraded{Feature: d.Feature, Reason: d.Reason}
		if d.Err != nil {
			item.Error = d.Err.Error()
		}
		report.Degradations = append(report.Degradations, item)
	}
	return report
}

func formatVariants(variants map[string]int) string {
	if len(variants) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(variants))
	for k := range variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, variants[k])
	}
	return strings.Join(parts, ", ")
}
