// Package report renders a user's symptom timeline as an HTML chart.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/calyx-health/triage.report/internal/db"
)

// RenderSeverityChart writes an HTML line chart of severity scores over time
// for the given entries. Entries arrive newest-first from the store and are
// plotted oldest-first so the line reads left to right.
func RenderSeverityChart(w io.Writer, userName string, entries []db.TimelineEntry) error {
	labels := make([]string, 0, len(entries))
	points := make([]opts.LineData, 0, len(entries))

	// Reverse into chronological order.
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		labels = append(labels, entry.OccurredAt.UTC().Format("2006-01-02 15:04"))
		points = append(points, opts.LineData{
			Value: entry.SeverityScore,
			Name:  entry.TriageLevel,
		})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Symptom Severity Report",
			Width:     "1100px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Symptom Severity Over Time",
			Subtitle: fmt.Sprintf("%s, %d entries, generated %s", userName, len(entries), time.Now().UTC().Format(time.RFC3339)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Logged at"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Severity score"}),
	)

	line.SetXAxis(labels).
		AddSeries("severity", points,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(true)}),
		)

	return line.Render(w)
}
