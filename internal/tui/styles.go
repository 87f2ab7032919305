package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/mymonth/internal/store"
)

// Color palette
var (
	colorPrimary   = lipgloss.Color("#6C63FF")
	colorMuted     = lipgloss.Color("#666666")
	colorSuccess   = lipgloss.Color("#2ECC71")
	colorWarning   = lipgloss.Color("#F39C12")
	colorError     = lipgloss.Color("#E74C3C")
	colorFg        = lipgloss.Color("#C0CAF5")
	colorSubtle    = lipgloss.Color("#414868")
	colorHighlight = lipgloss.Color("#7AA2F7")
)

// categoryColors follows store.Categories order.
var categoryColors = [store.NumCategories]lipgloss.Color{
	lipgloss.Color("#6C63FF"),
	lipgloss.Color("#2EC4B6"),
	lipgloss.Color("#F39C12"),
	lipgloss.Color("#2ECC71"),
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#3498DB"),
}

func categoryStyle(c store.Category) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(categoryColors[c])
}

// Styles
var (
	// Tabs
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtle).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Padding(1, 2)

	// Text
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	successStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	highlightStyle = lipgloss.NewStyle().
			Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	normalItemStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	// Days in the daily table
	futureDayStyle = lipgloss.NewStyle().
			Foreground(colorSubtle)

	todayStyle = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)
)

// backlogStyle colors a backlog by whether it is behind schedule.
func backlogStyle(behind bool) lipgloss.Style {
	if behind {
		return errorStyle
	}
	return successStyle
}

// scoreStyle colors a score ratio against the 100% mark.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 1:
		return successStyle
	case score >= 0.75:
		return warningStyle
	default:
		return errorStyle
	}
}
