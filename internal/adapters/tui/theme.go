package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	active   lipgloss.Style
	cursor   lipgloss.Style
	label    lipgloss.Style
	focused  lipgloss.Style
	errorMsg lipgloss.Style
	sidebar  lipgloss.Style
	panel    lipgloss.Style
	input    lipgloss.Style
	status   lipgloss.Style
	alert    lipgloss.Style
}

func newTheme() theme {
	return theme{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		cursor:   lipgloss.NewStyle().Reverse(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Width(14),
		focused:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		errorMsg: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		sidebar:  lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, true, false, false).BorderForeground(lipgloss.Color("238")).PaddingRight(1),
		panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		input:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		alert:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("124")).Padding(0, 1),
	}
}
