package tui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mymonth/internal/report"
)

type trendMode int

const (
	trendScore trendMode = iota
	trendMetric
)

type trendsModel struct {
	svc    *report.Service
	years  int
	width  int
	height int

	mode      trendMode
	summaries []report.MonthlySummary
	ranks     []string // parallel to summaries
	offset    int      // first visible row

	chart barchart.Model
}

func newTrendsModel(svc *report.Service, years int) trendsModel {
	return trendsModel{
		svc:   svc,
		years: years,
		chart: barchart.New(60, 12),
	}
}

func (t *trendsModel) setSize(w, h int) {
	t.width = w
	t.height = h
	t.buildChart()
}

type trendsDataMsg struct {
	summaries []report.MonthlySummary
}

func (t trendsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		sums, err := t.svc.History(t.svc.Today(), t.years)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("History: %v", err), isError: true}
		}
		return trendsDataMsg{summaries: sums}
	}
}

func (t trendsModel) update(msg tea.Msg) (trendsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case trendsDataMsg:
		t.summaries = msg.summaries
		t.ranks = report.RankByMetric(t.summaries, 5)
		t.offset = max(len(t.summaries)-t.visibleRows(), 0)
		t.buildChart()
		return t, nil

	case recordSavedMsg, configChangedMsg:
		return t, t.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Mode):
			if t.mode == trendScore {
				t.mode = trendMetric
			} else {
				t.mode = trendScore
			}
			t.buildChart()
		case key.Matches(msg, keys.Up):
			if t.offset > 0 {
				t.offset--
			}
		case key.Matches(msg, keys.Down):
			if t.offset < len(t.summaries)-t.visibleRows() {
				t.offset++
			}
		}
	}
	return t, nil
}

func (t trendsModel) visibleRows() int {
	return max(t.height-30, 6)
}

func (t *trendsModel) buildChart() {
	chartWidth := max(t.width-8, 20)
	chartHeight := 10
	if t.height > 40 {
		chartHeight = 14
	}
	t.chart = barchart.New(chartWidth, chartHeight)
	if len(t.summaries) == 0 {
		return
	}
	t.chart.PushAll(monthlyScoreBars(t.summaries))
	t.chart.Draw()
}

func (t trendsModel) metricSeries() []float64 {
	cfg := t.svc.Config()
	series := make([]float64, 0, len(t.summaries))
	for _, s := range t.summaries {
		series = append(series, s.AvgDisplay(cfg))
	}
	return series
}

func (t trendsModel) view() string {
	if t.width < 20 {
		return "Terminal too small"
	}
	w := t.width - 4

	if len(t.summaries) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Trends"),
			"",
			mutedStyle.Render("No history yet. Record some days first."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var chart string
	if t.mode == trendScore {
		chart = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Monthly score (%)")+mutedStyle.Render("  m: avg ml"),
			"",
			t.chart.View(),
		)
	} else {
		chart = lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Average ml per active day")+mutedStyle.Render("  m: score"),
			"",
			renderLineChart(t.metricSeries(), w-16, 10, "avg ml"),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Width(w).Render(chart),
		t.renderTable(w),
	)
}

func (t trendsModel) renderTable(w int) string {
	cfg := t.svc.Config()

	var rows []string
	header := fmt.Sprintf("  %-8s %5s %10s %7s %6s %8s  %-12s", "Month", "Days", "Productive", "Score", "Zero", "Avg ml", "Rank")
	rows = append(rows, mutedStyle.Render(header))

	end := min(t.offset+t.visibleRows(), len(t.summaries))
	for i := t.offset; i < end; i++ {
		s := t.summaries[i]
		label := s.Month
		if s.ToDate {
			label += "*"
		}
		line := fmt.Sprintf("  %-8s %5d %10s %s %6d %8d  %-12s",
			label,
			s.Days,
			s.ProductiveString(),
			scoreStyle(s.Score).Render(fmt.Sprintf("%7s", formatPercent(s.Score))),
			s.ZeroDays,
			cfg.MLEquivalent(s.AvgMetric),
			t.ranks[i],
		)
		style := normalItemStyle
		if s.ToDate {
			style = highlightStyle
		}
		rows = append(rows, style.Render(line))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  * month to date  ↑/↓: scroll  m: toggle chart  e: export"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
