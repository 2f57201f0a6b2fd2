package host

import (
	"fmt"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
)

// A ComponentSummary aggregates the poll results of one component.
type ComponentSummary struct {
	Name         string
	Polls        int
	Failures     int
	MeanLatency  time.Duration
	P95Latency   time.Duration
	LastReadings string
	LastError    error
}

// A Report summarizes several poll rounds, one row per component sorted by name.
type Report []ComponentSummary

// NewReport summarizes rounds as returned by PollOnce.
func NewReport(rounds [][]PollResult) Report {
	type acc struct {
		summary   ComponentSummary
		latencies stats.Float64Data
	}
	byName := map[string]*acc{}
	for _, round := range rounds {
		for _, r := range round {
			a, ok := byName[r.Name]
			if !ok {
				a = &acc{summary: ComponentSummary{Name: r.Name}}
				byName[r.Name] = a
			}
			a.summary.Polls++
			a.latencies = append(a.latencies, r.Duration.Seconds())
			if r.Err != nil {
				a.summary.Failures++
				a.summary.LastError = r.Err
				continue
			}
			if b, err := r.Readings.MarshalJSON(); err == nil {
				a.summary.LastReadings = string(b)
			}
		}
	}

	report := make(Report, 0, len(byName))
	for _, a := range byName {
		if mean, err := stats.Mean(a.latencies); err == nil {
			a.summary.MeanLatency = secondsToDuration(mean)
		}
		if p95, err := stats.Percentile(a.latencies, 95); err == nil {
			a.summary.P95Latency = secondsToDuration(p95)
		}
		report = append(report, a.summary)
	}
	slices.SortFunc(report, func(a, b ComponentSummary) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return report
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// String renders the report as a table.
func (r Report) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "Polls", "Failures", "Mean", "P95", "Last"})
	for _, s := range r {
		last := s.LastReadings
		if s.LastError != nil && s.Failures == s.Polls {
			last = "error: " + s.LastError.Error()
		}
		t.AppendRow(table.Row{
			s.Name,
			s.Polls,
			s.Failures,
			s.MeanLatency.Round(time.Microsecond).String(),
			s.P95Latency.Round(time.Microsecond).String(),
			last,
		})
	}
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d components", len(r))})
	return t.Render()
}
