package cli

import (
	"context"
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/emiliopalmerini/wattline/internal/timeline"
)

var rootCmd = &cobra.Command{
	Use:   "wattline",
	Short: "Energy-over-time analysis for benchmark runs",
	Long: `wattline correlates host energy telemetry and PowerAPI power dumps with the
experiments of a benchmark harness.

It resolves when each experiment ran, filters the telemetry to that range,
attributes energy to the API and database containers and aggregates it into
fixed-width time windows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Shared flags
var (
	resultsPath     string
	metadataPath    string
	powerAPIAPIPath string
	powerAPIDBPath  string
	configPath      string
	windowFlag      string
	matchFlag       string
	experimentFlag  string
	seriesFlag      string
	accumulateFlag  string
	timezoneFlag    string
	suppressZero    bool
)

var klogFlags = goflag.NewFlagSet("klog", goflag.ContinueOnError)

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	defer klog.Flush()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func init() {
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&resultsPath, "results", "", "Benchmark results document (JSON)")
	pf.StringVar(&metadataPath, "metadata", "", "Experiment metadata with container ids (JSON)")
	pf.StringVar(&powerAPIAPIPath, "powerapi-api", "", "PowerAPI dump for the API server (JSON)")
	pf.StringVar(&powerAPIDBPath, "powerapi-db", "", "PowerAPI dump for the database server (JSON)")
	pf.StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/wattline/config.yaml)")
	pf.StringVar(&windowFlag, "window", "", "Window size in ms or as a duration (e.g. 250, 1s)")
	pf.StringVar(&matchFlag, "match", "", "Container id match mode: prefix, contains")
	pf.StringVarP(&experimentFlag, "experiment", "e", timeline.SelectorAll,
		"Experiment id, ALL, ALL_NO_WARMUP or ALL_DATA")
	pf.StringVar(&seriesFlag, "series", "", "Comma-separated series to build (default: all available)")
	pf.StringVar(&accumulateFlag, "accumulation", "", "Window values: window, cumulative, consumed")
	pf.StringVar(&timezoneFlag, "timezone", "", "Display timezone (default: UTC)")
	pf.BoolVar(&suppressZero, "suppress-zero", false, "Drop windows whose value is zero")
}
