package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/wattline/internal/domain"
	"github.com/emiliopalmerini/wattline/internal/timeline"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List the target services found in PowerAPI dumps",
	Long: `List every target service of the loaded PowerAPI dumps, marking the one
selected automatically for the API and database series.

Examples:
  wattline targets --results results.json --powerapi-api api.json --powerapi-db db.json`,
	RunE: runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	app, err := NewAppContext(cmd)
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	ds := app.Dataset
	dumps := []struct {
		label       string
		samples     []domain.PowerSample
		containerID string
	}{
		{"api", ds.PowerAPIAPI, ds.Containers.APIContainerID},
		{"db", ds.PowerAPIDB, ds.Containers.DBContainerID},
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DUMP\tTARGET\tSAMPLES\tSELECTED")
	listed := 0
	for _, d := range dumps {
		if len(d.samples) == 0 {
			continue
		}
		selected := timeline.AutoSelectPowerTarget(d.samples, d.containerID)
		for _, target := range timeline.PowerTargets(d.samples) {
			mark := ""
			if target == selected {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", d.label, target, len(timeline.SelectPowerTarget(d.samples, target)), mark)
			listed++
		}
	}
	if listed == 0 {
		fmt.Fprintln(out, "No PowerAPI data loaded (use --powerapi-api / --powerapi-db)")
		return nil
	}
	return tw.Flush()
}
