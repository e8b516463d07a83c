package report

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	risk    lipgloss.Style
	good    lipgloss.Style
	objects lipgloss.Style
	hint    lipgloss.Style
	plus    lipgloss.Style
	minus   lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain, plain}
	}
	return styles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true),
		header: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")),
		risk: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true),
		good: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		objects: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		plus: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		minus: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
	}
}
