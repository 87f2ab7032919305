package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewMonth viewState = iota
	viewTrends
	viewTargets
	viewSettings
)

var viewNames = []string{"Month", "Trends", "Targets", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// recordSavedMsg is sent after a day was written, so other views can reload.
type recordSavedMsg struct {
	date time.Time
}

type configChangedMsg struct{}

// --- Helpers ---

func errStatus(format string, err error) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: fmt.Sprintf(format, err), isError: true}
	}
}

// formatPercent renders a score ratio as a whole percentage.
func formatPercent(score float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(score*100)))
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}
