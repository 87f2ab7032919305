package tui

import (
	"strconv"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
)

// renderLineChart plots a single series; it needs at least two points.
func renderLineChart(data []float64, width, height int, caption string) string {
	if len(data) < 2 {
		return mutedStyle.Render("  Not enough data to plot")
	}
	width = max(width, 20)
	height = max(height, 3)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// renderDualLineChart plots actual against target; the shorter series is
// padded with zeros.
func renderDualLineChart(actual, target []float64, width, height int, caption string) string {
	n := max(len(actual), len(target))
	if n < 2 {
		return mutedStyle.Render("  Not enough data to plot")
	}
	width = max(width, 20)
	height = max(height, 3)

	a := make([]float64, n)
	t := make([]float64, n)
	copy(a, actual)
	copy(t, target)

	return asciigraph.PlotMany([][]float64{a, t},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}

// cumulativeSeries returns, in hours, the running net productive time
// (productive minus penalty) and the running target for the first upto days.
func cumulativeSeries(days []report.DailyMetrics, upto int) (net, target []float64) {
	upto = min(upto, len(days))
	for _, d := range days[:upto] {
		net = append(net, (d.CumProductive - d.CumPenalty).Hours())
		target = append(target, d.CumTarget.Hours())
	}
	return net, target
}

// dailyCategoryBars stacks each day's category hours into one bar.
func dailyCategoryBars(days []report.DailyMetrics) []barchart.BarData {
	bars := make([]barchart.BarData, 0, len(days))
	for _, d := range days {
		var values []barchart.BarValue
		for _, c := range store.Categories() {
			if h := d.Categories[c].Hours(); h > 0 {
				values = append(values, barchart.BarValue{
					Name:  c.Column(),
					Value: h,
					Style: categoryStyle(c),
				})
			}
		}
		if len(values) == 0 {
			values = []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
		}
		bars = append(bars, barchart.BarData{
			Label:  strconv.Itoa(d.Date.Day()),
			Values: values,
		})
	}
	return bars
}

// monthlyScoreBars draws one bar per month with its score in percent.
// Negative scores are drawn as empty bars.
func monthlyScoreBars(sums []report.MonthlySummary) []barchart.BarData {
	bars := make([]barchart.BarData, 0, len(sums))
	for _, s := range sums {
		style := scoreStyle(s.Score)
		if s.ToDate {
			style = highlightStyle
		}
		bars = append(bars, barchart.BarData{
			Label: s.Month,
			Values: []barchart.BarValue{{
				Name:  s.Month,
				Value: max(s.Score*100, 0),
				Style: style,
			}},
		})
	}
	return bars
}
