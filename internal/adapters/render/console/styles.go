package console

import (
	"github.com/bnema/rag-agents-cli/internal/application"
	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	agent     lipgloss.Style
	active    lipgloss.Style
	folder    lipgloss.Style
	section   lipgloss.Style
	empty     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	citation  lipgloss.Style
	link      lipgloss.Style
	key       lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		agent:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		active:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		folder:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		section:   lipgloss.NewStyle().MarginTop(1),
		empty:     lipgloss.NewStyle().Faint(true),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("159")),
		citation:  lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		link:      lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39")),
		key:       lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

// ToneStyle maps a status tone to its color.
func ToneStyle(tone application.Tone) lipgloss.Style {
	switch tone {
	case application.ToneMuted:
		return lipgloss.NewStyle().Faint(true)
	case application.TonePending:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	case application.ToneSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	case application.ToneError:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	}
}
