package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		MarginBottom(1)

	dimStyle = lipgloss.NewStyle().
		Foreground(colorDim)

	warnStyle = lipgloss.NewStyle().
		Foreground(colorWarning)

	headerBarStyle = lipgloss.NewStyle().
		Background(colorSubtle).
		Foreground(colorText).
		Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
		Foreground(colorDim).
		MarginTop(1)
)
