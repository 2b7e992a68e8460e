package tui

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 34

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(lipgloss.Color("240")).
			PaddingRight(1)

	mainStyle = lipgloss.NewStyle().PaddingLeft(2)

	itemStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeItemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")).
		Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// boxStyle draws a left line, yellow when the field has focus.
func boxStyle(focused bool) lipgloss.Style {
	color := lipgloss.Color("240")
	if focused {
		color = lipgloss.Color("3")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(color).
		PaddingLeft(1)
}
