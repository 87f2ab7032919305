package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mymonth/internal/export"
	"github.com/sadopc/mymonth/internal/logger"
	"github.com/sadopc/mymonth/internal/report"
	"github.com/sadopc/mymonth/internal/store"
)

// Options configures the TUI.
type Options struct {
	// ExportDir receives exported files; empty means the home directory.
	ExportDir string
	// HistoryYears is how many full years before the current one the
	// trends view covers.
	HistoryYears int
}

var exportFormats = []string{"Days CSV", "Summary JSON"}

// App is the root Bubble Tea model.
type App struct {
	store  *store.Store
	svc    *report.Service
	opts   Options
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	month    monthModel
	trends   trendsModel
	targets  targetsModel
	settings settingsModel

	help    help.Model
	status  string
	isError bool
}

func NewApp(s *store.Store, svc *report.Service, opts Options) App {
	h := help.New()
	h.ShowAll = false

	return App{
		store:      s,
		svc:        svc,
		opts:       opts,
		activeView: viewMonth,
		month:      newMonthModel(s, svc),
		trends:     newTrendsModel(svc, opts.HistoryYears),
		targets:    newTargetsModel(s, svc),
		settings:   newSettingsModel(s, svc),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return a.month.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.month.setSize(a.width, contentHeight)
		a.trends.setSize(a.width, contentHeight)
		a.targets.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewMonth
			return a, a.month.loadData()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewTrends
			return a, a.trends.refresh()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewTargets
			return a, a.targets.refresh()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.settings.refresh()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case statusMsg:
		a.status = msg.text
		a.isError = msg.isError
		if msg.isError {
			logger.Warn("tui", "status", msg.text)
		}
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.isError = false
		a.exportPicking = false
		return a, nil

	// Data messages go to their view even when it is not in front.
	case monthDataMsg:
		var cmd tea.Cmd
		a.month, cmd = a.month.update(msg)
		return a, cmd

	case trendsDataMsg:
		var cmd tea.Cmd
		a.trends, cmd = a.trends.update(msg)
		return a, cmd

	case targetsDataMsg:
		var cmd tea.Cmd
		a.targets, cmd = a.targets.update(msg)
		return a, cmd

	case settingsDataMsg:
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case recordSavedMsg, configChangedMsg:
		// Every view that shows derived numbers reloads.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.month, cmd = a.month.update(msg)
		cmds = append(cmds, cmd)
		a.trends, cmd = a.trends.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewMonth:
		a.month, cmd = a.month.update(msg)
	case viewTrends:
		a.trends, cmd = a.trends.update(msg)
	case viewTargets:
		a.targets, cmd = a.targets.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewMonth:
		return a.month.formActive
	case viewTargets:
		return a.targets.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewMonth:
		return a.month.loadData()
	case viewTrends:
		return a.trends.refresh()
	case viewTargets:
		return a.targets.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewMonth:
		content = a.month.view()
	case viewTrends:
		content = a.trends.view()
	case viewTargets:
		content = a.targets.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("mymonth")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isError {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	today := mutedStyle.Render(" " + a.svc.Today().Format("Mon Jan 2"))

	left := footerStyle.Render(helpView)
	right := status + today

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  to "+a.exportDir()))
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) exportDir() string {
	if a.opts.ExportDir != "" {
		return a.opts.ExportDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func (a App) doExport(format int) tea.Cmd {
	dir := a.exportDir()
	today := a.svc.Today()
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		var path string
		if format == 0 {
			records, err := a.store.ListRecords()
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			path = filepath.Join(dir, export.FileName("days", "csv", today))
			if err := export.ToCSV(records, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			sums, err := a.svc.History(today, a.opts.HistoryYears)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
			}
			path = filepath.Join(dir, export.FileName("summary", "json", today))
			if err := export.SummaryToJSON(sums, a.svc.Config(), path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		logger.Info("exported", "path", path)
		return exportDoneMsg{path: path}
	}
}
