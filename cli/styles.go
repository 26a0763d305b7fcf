package cli

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#60A5FA"))
	faintStyle     = lipgloss.NewStyle().Faint(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7F1D1D")).Padding(0, 1)
	checkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFBA08"))
	nameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#4F46E5"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#3C3C3C"))
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	gutterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#334155")).Padding(0, 1)
	focusBoxStyle  = inputBoxStyle.BorderForeground(lipgloss.Color("#60A5FA"))
	activeChoice   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0F172A")).Background(lipgloss.Color("#60A5FA")).Padding(0, 1)
	inactiveChoice = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Padding(0, 1)
	titleBarStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#2D2D30")).Foreground(lipgloss.Color("#D4D4D4")).Padding(0, 1)
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#3C3C3C"))
	focusPaneStyle = paneStyle.BorderForeground(lipgloss.Color("#60A5FA"))
)
