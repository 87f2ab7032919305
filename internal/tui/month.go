package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
)

const visibleDays = 10

type monthModel struct {
	store  *store.Store
	svc    *report.Service
	width  int
	height int

	month  time.Time
	report *report.MonthReport
	cursor int

	chart barchart.Model

	formActive bool
	form       *huh.Form
	formType   string // "edit" or "clear"
	formDate   time.Time

	// Form values as pointers (survive value copies)
	formDurations [store.NumCategories]*string
	formMetric    *string
	formConfirm   *bool
}

func newMonthModel(s *store.Store, svc *report.Service) monthModel {
	m := monthModel{
		store: s,
		svc:   svc,
		chart: barchart.New(60, 8),
	}
	for i := range m.formDurations {
		v := ""
		m.formDurations[i] = &v
	}
	metric := ""
	m.formMetric = &metric
	confirm := false
	m.formConfirm = &confirm
	return m
}

func (m monthModel) Init() tea.Cmd {
	return m.loadFocus()
}

func (m *monthModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildChart()
}

type monthDataMsg struct {
	report *report.MonthReport
}

// loadFocus reads the persisted focus month and loads it.
func (m monthModel) loadFocus() tea.Cmd {
	return func() tea.Msg {
		month, err := m.store.FocusMonth(m.svc.Today())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Focus month: %v", err), isError: true}
		}
		return m.fetch(month)
	}
}

func (m monthModel) loadData() tea.Cmd {
	if m.month.IsZero() {
		return m.loadFocus()
	}
	month := m.month
	return func() tea.Msg { return m.fetch(month) }
}

func (m monthModel) fetch(month time.Time) tea.Msg {
	rep, err := m.svc.MonthReport(month)
	if err != nil {
		return statusMsg{text: fmt.Sprintf("Month report: %v", err), isError: true}
	}
	return monthDataMsg{report: rep}
}

// focus moves to month, persists it and reloads.
func (m monthModel) focus(month time.Time) (monthModel, tea.Cmd) {
	month = calendar.FirstOfMonth(month)
	if err := m.store.SetFocusMonth(month); err != nil {
		return m, errStatus("Focus month: %v", err)
	}
	m.month = month
	m.cursor = 0
	if calendar.SameMonth(month, m.svc.Today()) {
		m.cursor = m.svc.Today().Day() - 1
	}
	return m, m.loadData()
}

func (m monthModel) update(msg tea.Msg) (monthModel, tea.Cmd) {
	if msg, ok := msg.(monthDataMsg); ok {
		first := m.month.IsZero()
		m.report = msg.report
		m.month = msg.report.Month
		if first && calendar.SameMonth(m.month, m.svc.Today()) {
			m.cursor = m.svc.Today().Day() - 1
		}
		m.cursor = min(m.cursor, max(len(m.report.Days)-1, 0))
		m.buildChart()
		return m, nil
	}
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case recordSavedMsg:
		return m, m.loadData()

	case configChangedMsg:
		return m, m.loadData()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			return m.focus(m.month.AddDate(0, -1, 0))
		case key.Matches(msg, keys.Right):
			return m.focus(m.month.AddDate(0, 1, 0))
		case key.Matches(msg, keys.Today):
			return m.focus(m.svc.Today())
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.report != nil && m.cursor < len(m.report.Days)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Edit):
			if m.report != nil && len(m.report.Records) > 0 {
				return m.showForm()
			}
		case key.Matches(msg, keys.Delete):
			return m.showClearForm()
		case key.Matches(msg, keys.Fill):
			return m.fillMonth()
		}
	}
	return m, nil
}

func (m monthModel) selected() (store.DailyRecord, bool) {
	if m.report == nil || m.cursor >= len(m.report.Records) {
		return store.DailyRecord{}, false
	}
	return m.report.Records[m.cursor], true
}

func (m monthModel) clearDay() (monthModel, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := m.store.DeleteRecord(r.Date); err != nil {
		return m, errStatus("Clear day: %v", err)
	}
	date := r.Date
	return m, func() tea.Msg { return recordSavedMsg{date: date} }
}

// showClearForm asks before deleting the selected day.
func (m monthModel) showClearForm() (monthModel, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.formType = "clear"
	m.formDate = r.Date
	*m.formConfirm = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear " + r.Date.Format("Mon, Jan 2 2006") + "?").
				Description("The stored values for this day are deleted.").
				Affirmative("Yes").
				Negative("No").
				Value(m.formConfirm),
		),
	).WithShowHelp(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m monthModel) fillMonth() (monthModel, tea.Cmd) {
	added, err := m.store.EnsureMonth(m.month)
	if err != nil {
		return m, errStatus("Fill month: %v", err)
	}
	return m, tea.Batch(
		m.loadData(),
		func() tea.Msg {
			return statusMsg{text: fmt.Sprintf("Added %d empty days", added)}
		},
	)
}

func (m monthModel) showForm() (monthModel, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.formType = "edit"
	m.formDate = r.Date
	durs, metric := recordFormValues(r)
	for i, v := range durs {
		*m.formDurations[i] = v
	}
	*m.formMetric = metric

	var fields []huh.Field
	for _, c := range store.Categories() {
		fields = append(fields, huh.NewInput().
			Title(c.Label()).
			Placeholder("e.g. 1h 30m").
			Value(m.formDurations[c]))
	}
	fields = append(fields, huh.NewInput().
		Title("Metric").
		Value(m.formMetric).
		Validate(validateOptionalFloat))

	m.form = huh.NewForm(
		huh.NewGroup(fields...),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m monthModel) updateForm(msg tea.Msg) (monthModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.submitForm()
	}

	return m, cmd
}

func (m monthModel) submitForm() (monthModel, tea.Cmd) {
	m.formActive = false
	m.form = nil

	if m.formType == "clear" {
		if !*m.formConfirm {
			return m, nil
		}
		return m.clearDay()
	}

	var durs [store.NumCategories]string
	for i, p := range m.formDurations {
		durs[i] = *p
	}
	r, err := recordFromForm(m.formDate, durs, *m.formMetric)
	if err != nil {
		return m, errStatus("Invalid day: %v", err)
	}
	if err := m.store.UpsertRecord(r); err != nil {
		return m, errStatus("Save day: %v", err)
	}
	date := r.Date
	return m, func() tea.Msg { return recordSavedMsg{date: date} }
}

// recordFormValues is the inverse of recordFromForm: durations keep every
// component and an explicit zero is written as "0m" so it is not read back
// as absent.
func recordFormValues(r store.DailyRecord) (durs [store.NumCategories]string, metric string) {
	for i, d := range r.Durations {
		switch {
		case d == nil:
		case *d == 0:
			durs[i] = "0m"
		default:
			durs[i] = duration.FormatExact(*d)
		}
	}
	if r.Metric != nil {
		metric = strconv.FormatFloat(*r.Metric, 'f', -1, 64)
	}
	return durs, metric
}

// recordFromForm builds a record from the day editor's text fields. Blank
// fields are stored as absent.
func recordFromForm(date time.Time, durations [store.NumCategories]string, metric string) (store.DailyRecord, error) {
	r := store.DailyRecord{Date: date}
	for i, text := range durations {
		r.Durations[i] = duration.ParsePtr(text)
	}
	metric = strings.TrimSpace(metric)
	if metric != "" {
		v, err := strconv.ParseFloat(metric, 64)
		if err != nil {
			return r, fmt.Errorf("metric %q: %w", metric, err)
		}
		r.Metric = &v
	}
	return r, nil
}

func validateOptionalFloat(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return fmt.Errorf("not a number")
	}
	return nil
}

func (m *monthModel) buildChart() {
	chartWidth := max(m.width-8, 20)
	chartHeight := 8
	if m.height > 50 {
		chartHeight = 12
	}

	m.chart = barchart.New(chartWidth, chartHeight)
	if m.report == nil {
		return
	}
	m.chart.PushAll(dailyCategoryBars(m.report.Days))
	m.chart.Draw()
}

func (m monthModel) view() string {
	if m.width < 20 {
		return "Terminal too small"
	}
	w := m.width - 4

	if m.formActive && m.form != nil {
		verb := "Edit "
		if m.formType == "clear" {
			verb = "Clear "
		}
		title := titleStyle.Render(verb + m.formDate.Format("Mon, Jan 2 2006"))
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	if m.report == nil {
		return panelStyle.Width(w).Render(mutedStyle.Render("Loading month..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderScorecard(w),
		m.renderDays(w),
		m.renderCharts(w),
	)
}

func (m monthModel) renderHeader() string {
	sc := m.report.Scorecard
	title := titleStyle.Render(m.month.Format("January 2006"))
	progress := mutedStyle.Render(fmt.Sprintf("day %d of %d", sc.ElapsedDays, sc.DaysInMonth))

	score := ""
	avg := ""
	if n := sc.ElapsedDays; n > 0 && n <= len(m.report.Days) {
		d := m.report.Days[n-1]
		score = scoreStyle(d.CumScore).Render("score " + formatPercent(d.CumScore))
		avgML := m.svc.Config().MLEquivalent(d.CumMetric / float64(n))
		avg = highlightStyle.Render(fmt.Sprintf("avg %d ml", avgML))
	}
	return fmt.Sprintf("%s  %s  %s  %s", title, progress, score, avg)
}

func (m monthModel) renderScorecard(w int) string {
	sc := m.report.Scorecard
	rows := []string{m.renderHeader(), ""}

	if !sc.Available {
		rows = append(rows, mutedStyle.Render("No target for this month. Press 3 to set one."))
		return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
	}

	cfg := m.svc.Config()
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %10s %10s %10s", "", "Actual", "To date", "Backlog")))
	line := func(p report.Progress, style lipgloss.Style) string {
		return fmt.Sprintf("  %s %10s %10s %s",
			style.Render(fmt.Sprintf("%-22s", p.Label)),
			duration.FormatLayout(p.Actual, duration.LayoutHM),
			duration.FormatLayout(p.Prorated, duration.LayoutHM),
			backlogStyle(p.Behind()).Render(fmt.Sprintf("%10s", p.BacklogString())),
		)
	}
	for _, c := range store.Categories() {
		rows = append(rows, line(sc.Categories[c], categoryStyle(c)))
	}
	rows = append(rows, line(sc.Total, titleStyle))

	actualML := cfg.MLEquivalent(sc.Metric.Actual)
	proratedML := cfg.MLEquivalent(sc.Metric.Prorated)
	rows = append(rows, fmt.Sprintf("  %-22s %10d %10d %s", "Metric (ml)", actualML, proratedML,
		backlogStyle(actualML > proratedML).Render(fmt.Sprintf("%10d", proratedML-actualML))))
	rows = append(rows, fmt.Sprintf("  %-22s %10d %10.1f", "Zero days", sc.ZeroDays, sc.ZeroDaysProrated))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m monthModel) renderDays(w int) string {
	var rows []string
	header := fmt.Sprintf("  %-7s", "Day")
	for _, c := range store.Categories() {
		header += fmt.Sprintf(" %8s", c.Column())
	}
	header += fmt.Sprintf(" %8s %6s %6s", "total", "ml", "score")
	rows = append(rows, mutedStyle.Render(header))

	today := m.svc.Today()
	start := min(max(m.cursor-visibleDays/2, 0), max(len(m.report.Days)-visibleDays, 0))
	end := min(start+visibleDays, len(m.report.Days))

	for i := start; i < end; i++ {
		d := m.report.Days[i]
		r := m.report.Records[i]

		line := fmt.Sprintf("%-7s", d.Date.Format("02 Mon"))
		for _, c := range store.Categories() {
			line += fmt.Sprintf(" %8s", duration.FormatPtr(r.Durations[c]))
		}
		ml := ""
		if r.Metric != nil {
			ml = strconv.Itoa(m.svc.Config().MLEquivalent(*r.Metric))
		}
		line += fmt.Sprintf(" %8s %6s %6s", duration.Format(d.Productive), ml, formatPercent(d.Score))
		line = ansi.Truncate(line, w-8, "…")

		cursor := "  "
		style := normalItemStyle
		switch {
		case i == m.cursor:
			cursor = "> "
			style = selectedItemStyle
		case d.Date.Equal(today):
			style = todayStyle
		case d.Future:
			style = futureDayStyle
		}
		rows = append(rows, style.Render(cursor+line))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: month  enter: edit  d: clear  f: fill  t: today"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (m monthModel) renderCharts(w int) string {
	net, target := cumulativeSeries(m.report.Days, m.report.Scorecard.ElapsedDays)
	line := renderDualLineChart(net, target, w-16, 6, "cumulative hours: net (blue) vs target (red)")

	var legend []string
	for _, c := range store.Categories() {
		legend = append(legend, categoryStyle(c).Render("■")+" "+c.Column())
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Daily hours"), m.chart.View(), "  "+strings.Join(legend, "  "), "", line,
	))
}
