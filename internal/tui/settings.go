package tui

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mymonth/internal/duration"
	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
)

// editableSettings lists the keys shown in the settings form, in order.
// Week days start on Monday.
var editableSettings = []string{
	store.WeekdayTargetKey(time.Monday),
	store.WeekdayTargetKey(time.Tuesday),
	store.WeekdayTargetKey(time.Wednesday),
	store.WeekdayTargetKey(time.Thursday),
	store.WeekdayTargetKey(time.Friday),
	store.WeekdayTargetKey(time.Saturday),
	store.WeekdayTargetKey(time.Sunday),
	store.SettingPenaltyThreshold,
	store.SettingPenaltyUnit,
	store.SettingMetricUnit,
	store.SettingMetricDisplay,
}

var settingTitles = map[string]string{
	store.WeekdayTargetKey(time.Monday):    "Monday target",
	store.WeekdayTargetKey(time.Tuesday):   "Tuesday target",
	store.WeekdayTargetKey(time.Wednesday): "Wednesday target",
	store.WeekdayTargetKey(time.Thursday):  "Thursday target",
	store.WeekdayTargetKey(time.Friday):    "Friday target",
	store.WeekdayTargetKey(time.Saturday):  "Saturday target",
	store.WeekdayTargetKey(time.Sunday):    "Sunday target",
	store.SettingPenaltyThreshold:          "Penalty threshold",
	store.SettingPenaltyUnit:               "Penalty per unit",
	store.SettingMetricUnit:                "Metric unit",
	store.SettingMetricDisplay:             "Display (ml) per unit",
	store.SettingFocusMonth:                "Focus month",
}

type settingsModel struct {
	store  *store.Store
	svc    *report.Service
	width  int
	height int

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	values map[string]*string
}

func newSettingsModel(s *store.Store, svc *report.Service) settingsModel {
	values := make(map[string]*string, len(editableSettings))
	for _, k := range editableSettings {
		v := ""
		values[k] = &v
	}
	return settingsModel{
		store:  s,
		svc:    svc,
		values: values,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings()
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Load settings: %v", err), isError: true}
		}
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(settingsDataMsg); ok {
		s.settings = msg.settings
		return s, nil
	}
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) current() map[string]string {
	m := make(map[string]string, len(s.settings))
	for _, st := range s.settings {
		m[st.Key] = st.Value
	}
	return m
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.current()
	for _, k := range editableSettings {
		*s.values[k] = cur[k]
	}

	var targets, scoring []huh.Field
	for i, k := range editableSettings {
		input := huh.NewInput().Title(settingTitles[k]).Value(s.values[k])
		if i < 7 {
			targets = append(targets, input.Placeholder("e.g. 2h 30m").Validate(validatePositiveDuration))
		} else {
			scoring = append(scoring, input)
		}
	}

	s.form = huh.NewForm(
		huh.NewGroup(targets...).Title("Daily targets"),
		huh.NewGroup(scoring...).Title("Scoring"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.saveSettings()
	}

	return s, cmd
}

// saveSettings validates the edited values as a whole before writing any of
// them, then swaps the service configuration.
func (s settingsModel) saveSettings() tea.Cmd {
	edits := make(map[string]string, len(s.values))
	for k, v := range s.values {
		edits[k] = *v
	}
	merged, cfg, err := mergeSettings(s.current(), edits)
	if err != nil {
		return errStatus("Settings not saved: %v", err)
	}

	for _, k := range editableSettings {
		if err := s.store.SetSetting(k, merged[k]); err != nil {
			return errStatus("Save settings: %v", err)
		}
	}
	if err := s.svc.SetConfig(cfg); err != nil {
		return errStatus("Apply settings: %v", err)
	}

	return tea.Batch(
		s.refresh(),
		func() tea.Msg { return configChangedMsg{} },
		func() tea.Msg { return statusMsg{text: "Settings saved"} },
	)
}

// mergeSettings overlays trimmed edits on base and builds the resulting
// domain configuration.
func mergeSettings(base, edits map[string]string) (map[string]string, report.Config, error) {
	merged := maps.Clone(base)
	if merged == nil {
		merged = make(map[string]string, len(edits))
	}
	for k, v := range edits {
		merged[k] = strings.TrimSpace(v)
	}
	cfg, err := report.ConfigFromSettings(merged)
	if err != nil {
		return nil, cfg, err
	}
	return merged, cfg, nil
}

func validatePositiveDuration(s string) error {
	if duration.Parse(s) <= 0 {
		return fmt.Errorf("must be a positive duration")
	}
	return nil
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Settings")
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Settings")
	hint := mutedStyle.Render("Press enter to edit settings")

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		name := settingTitles[setting.Key]
		if name == "" {
			name = setting.Key
		}
		label := lipgloss.NewStyle().Width(24).Render(name)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, hint)

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// formatSettingValue normalizes duration settings to the canonical layout.
func formatSettingValue(k, v string) string {
	switch k {
	case store.SettingPenaltyUnit:
		return duration.Format(duration.Parse(v))
	}
	if strings.HasPrefix(k, "target_") {
		return duration.Format(duration.Parse(v))
	}
	return v
}
