package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/emiliopalmerini/wattline/internal/timeline"
	"github.com/emiliopalmerini/wattline/internal/util"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format: %s", format)
}

// ExportWindow is one (datetime, value) row of a series.
type ExportWindow struct {
	Datetime string  `json:"datetime"`
	StartMs  int64   `json:"start_ms"`
	Value    float64 `json:"value"`
}

// ExportSeries is the serialized form of a built series.
type ExportSeries struct {
	Name     string         `json:"name"`
	Source   string         `json:"source"`
	Target   string         `json:"target,omitempty"`
	Disabled string         `json:"disabled,omitempty"`
	Outcome  string         `json:"filter_outcome,omitempty"`
	Input    int            `json:"input_records"`
	Kept     int            `json:"kept_records"`
	Total    float64        `json:"total"`
	Mean     float64        `json:"mean"`
	StdDev   float64        `json:"stddev"`
	Peak     float64        `json:"peak"`
	Windows  []ExportWindow `json:"windows"`
}

func toExportSeries(series []timeline.Series, loc *time.Location) []ExportSeries {
	out := make([]ExportSeries, 0, len(series))
	for _, s := range series {
		e := ExportSeries{
			Name:    s.Name,
			Source:  string(s.Source),
			Target:  s.Target,
			Windows: make([]ExportWindow, 0, len(s.Windows)),
		}
		if s.Disabled != nil {
			e.Disabled = s.Disabled.Error()
			out = append(out, e)
			continue
		}
		e.Outcome = s.Filter.Outcome.String()
		e.Input, e.Kept = s.Filter.Input, s.Filter.Kept
		e.Total, e.Mean, e.StdDev, e.Peak = s.Summary.Total, s.Summary.Mean, s.Summary.StdDev, s.Summary.Max
		for _, w := range s.Windows {
			e.Windows = append(e.Windows, ExportWindow{
				Datetime: util.FormatMillis(w.Start, loc),
				StartMs:  w.Start,
				Value:    w.Value,
			})
		}
		out = append(out, e)
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeSeriesCSV(w io.Writer, series []ExportSeries) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"series", "datetime", "start_ms", "value"}); err != nil {
		return err
	}
	for _, s := range series {
		for _, win := range s.Windows {
			row := []string{
				s.Name,
				win.Datetime,
				strconv.FormatInt(win.StartMs, 10),
				strconv.FormatFloat(win.Value, 'f', -1, 64),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeSeriesSummary(w io.Writer, series []ExportSeries) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIES\tTARGET\tWINDOWS\tTOTAL\tMEAN\tPEAK\tKEPT\tFILTER")
	for _, s := range series {
		if s.Disabled != "" {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\tdisabled: %s\n", s.Name, dash(s.Target), s.Disabled)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%d/%d\t%s\n",
			s.Name, dash(s.Target), len(s.Windows),
			util.FormatWatts(s.Total), util.FormatWatts(s.Mean), util.FormatWatts(s.Peak),
			s.Kept, s.Input, s.Outcome)
	}
	return tw.Flush()
}

func writeSeriesWindows(w io.Writer, series []ExportSeries) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIES\tDATETIME\tVALUE")
	for _, s := range series {
		for _, win := range s.Windows {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\n", s.Name, win.Datetime, win.Value)
		}
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
