package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mymonth/internal/calendar"
	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
)

type targetsModel struct {
	store  *store.Store
	svc    *report.Service
	width  int
	height int

	targets []store.MonthlyTarget
	cursor  int

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit"

	// Form field pointers (survive value copies)
	formMonth     *string
	formDurations [store.NumCategories]*string
	formMetric    *string
	formZeroDays  *string
}

func newTargetsModel(s *store.Store, svc *report.Service) targetsModel {
	month, metric, zero := "", "", ""
	t := targetsModel{
		store:        s,
		svc:          svc,
		formMonth:    &month,
		formMetric:   &metric,
		formZeroDays: &zero,
	}
	for i := range t.formDurations {
		v := ""
		t.formDurations[i] = &v
	}
	return t
}

func (t *targetsModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type targetsDataMsg struct {
	targets []store.MonthlyTarget
}

func (t targetsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		targets, err := t.store.ListTargets()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("List targets: %v", err), isError: true}
		}
		return targetsDataMsg{targets: targets}
	}
}

func (t targetsModel) update(msg tea.Msg) (targetsModel, tea.Cmd) {
	if msg, ok := msg.(targetsDataMsg); ok {
		t.targets = msg.targets
		if t.cursor >= len(t.targets) {
			t.cursor = max(0, len(t.targets)-1)
		}
		return t, nil
	}
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.targets)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			return t.showNewForm()
		case key.Matches(msg, keys.Edit):
			if len(t.targets) > 0 {
				return t.showEditForm(t.targets[t.cursor])
			}
		}
	}
	return t, nil
}

// showNewForm opens an empty target for the focus month, or the existing
// one when it was already configured.
func (t targetsModel) showNewForm() (targetsModel, tea.Cmd) {
	month, err := t.store.FocusMonth(t.svc.Today())
	if err != nil {
		return t, errStatus("Focus month: %v", err)
	}
	for _, existing := range t.targets {
		if existing.Month.Equal(month) {
			return t.showEditForm(existing)
		}
	}
	t.formType = "new"
	return t.openForm(store.MonthlyTarget{Month: month})
}

func (t targetsModel) showEditForm(target store.MonthlyTarget) (targetsModel, tea.Cmd) {
	t.formType = "edit"
	return t.openForm(target)
}

func (t targetsModel) openForm(target store.MonthlyTarget) (targetsModel, tea.Cmd) {
	*t.formMonth = calendar.MonthKey(target.Month)
	for _, c := range store.Categories() {
		*t.formDurations[c] = ""
		if d := target.Duration(c); d > 0 {
			*t.formDurations[c] = duration.FormatExact(d)
		}
	}
	*t.formMetric = strconv.FormatFloat(target.Metric, 'f', -1, 64)
	*t.formZeroDays = strconv.Itoa(target.ZeroDays)

	fields := []huh.Field{
		huh.NewInput().
			Title("Month").
			Placeholder("yymMM, e.g. 21m02").
			Value(t.formMonth).
			Validate(func(s string) error {
				_, err := calendar.ParseMonthKey(strings.TrimSpace(s))
				return err
			}),
	}
	for _, c := range store.Categories() {
		fields = append(fields, huh.NewInput().
			Title(c.Label()).
			Placeholder("e.g. 40h").
			Value(t.formDurations[c]))
	}
	fields = append(fields,
		huh.NewInput().Title("Metric").Value(t.formMetric).Validate(validateOptionalFloat),
		huh.NewInput().Title("Zero days").Value(t.formZeroDays).Validate(validateOptionalInt),
	)

	t.form = huh.NewForm(
		huh.NewGroup(fields...),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t targetsModel) updateForm(msg tea.Msg) (targetsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		var durs [store.NumCategories]string
		for i, p := range t.formDurations {
			durs[i] = *p
		}
		target, err := targetFromForm(*t.formMonth, durs, *t.formMetric, *t.formZeroDays)
		if err != nil {
			return t, errStatus("Invalid target: %v", err)
		}
		if err := t.store.UpsertTarget(target); err != nil {
			return t, errStatus("Save target: %v", err)
		}
		saved := target.Month
		return t, tea.Batch(t.refresh(), func() tea.Msg { return recordSavedMsg{date: saved} })
	}

	return t, cmd
}

// targetFromForm parses the target editor's text fields. Blank numbers are
// zero.
func targetFromForm(monthKey string, durations [store.NumCategories]string, metric, zeroDays string) (store.MonthlyTarget, error) {
	var t store.MonthlyTarget
	month, err := calendar.ParseMonthKey(strings.TrimSpace(monthKey))
	if err != nil {
		return t, err
	}
	t.Month = month
	for i, text := range durations {
		t.Durations[i] = duration.Parse(text)
	}

	if s := strings.TrimSpace(metric); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return t, fmt.Errorf("metric %q: %w", s, err)
		}
		t.Metric = v
	}
	if s := strings.TrimSpace(zeroDays); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return t, fmt.Errorf("zero days %q: %w", s, err)
		}
		if n < 0 || n > calendar.DaysIn(month) {
			return t, fmt.Errorf("zero days %d out of range 0..%d", n, calendar.DaysIn(month))
		}
		t.ZeroDays = n
	}
	return t, nil
}

func validateOptionalInt(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("not a whole number")
	}
	return nil
}

func (t targetsModel) view() string {
	w := t.width - 4
	if t.formActive && t.form != nil {
		title := titleStyle.Render("New Target")
		if t.formType == "edit" {
			title = titleStyle.Render("Edit Target")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", t.form.View())
		return activePanelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Monthly Targets")
	if len(t.targets) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No targets yet. Press n to set one for the focus month."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")

	header := fmt.Sprintf("  %-7s", "Month")
	for _, c := range store.Categories() {
		header += fmt.Sprintf(" %8s", c.Column())
	}
	header += fmt.Sprintf(" %9s %6s %5s %7s", "total", "ml", "zero", "daily")
	rows = append(rows, mutedStyle.Render(header))

	cfg := t.svc.Config()
	for i, target := range t.targets {
		line := fmt.Sprintf("%-7s", calendar.MonthKey(target.Month))
		for _, c := range store.Categories() {
			line += fmt.Sprintf(" %8s", duration.FormatLayout(target.Duration(c), duration.LayoutHM))
		}
		line += fmt.Sprintf(" %9s %6d %5d %7s",
			duration.FormatLayout(target.Total(), duration.LayoutHM),
			cfg.MLEquivalent(target.Metric),
			target.ZeroDays,
			formatHours(perDay(target)),
		)

		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+line))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new for focus month  enter: edit"))
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// perDay spreads the target's total evenly across its month.
func perDay(target store.MonthlyTarget) time.Duration {
	return target.Total() / time.Duration(calendar.DaysIn(target.Month))
}
