// Package tui é o navegador de mapeamento cultural no terminal.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#1B5E20")
	colorAccent  = lipgloss.Color("#F9A825")
	colorMuted   = lipgloss.Color("#78909C")
	colorDanger  = lipgloss.Color("#C62828")
	colorBorder  = lipgloss.Color("#B0BEC5")
)

// Styles agrupa os estilos usados pelo modelo.
type Styles struct {
	Header    lipgloss.Style
	TabActive lipgloss.Style
	Tab       lipgloss.Style
	Filter    lipgloss.Style
	FilterOn  lipgloss.Style
	Muted     lipgloss.Style
	Error     lipgloss.Style
	Content   lipgloss.Style
}

func DefaultStyles() Styles {
	tab := lipgloss.NewStyle().Padding(0, 2).Foreground(colorMuted)
	filter := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorPrimary).Padding(0, 1),
		TabActive: tab.Foreground(colorPrimary).Bold(true).Underline(true),
		Tab:       tab,
		Filter:    filter,
		FilterOn:  filter.BorderForeground(colorAccent),
		Muted:     lipgloss.NewStyle().Foreground(colorMuted),
		Error:     lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
		Content:   lipgloss.NewStyle().Padding(0, 1),
	}
}
