package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	header lipgloss.Style
	title  lipgloss.Style
	label  lipgloss.Style
	dim    lipgloss.Style
	user   lipgloss.Style
	nice   lipgloss.Style
	system lipgloss.Style
	iowait lipgloss.Style
	irq    lipgloss.Style
	steal  lipgloss.Style
	used   lipgloss.Style
	buffer lipgloss.Style
	cache  lipgloss.Style
	read   lipgloss.Style
	write  lipgloss.Style
	warn   lipgloss.Style
	crit   lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header: lipgloss.NewStyle().Bold(true).Reverse(true),
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		label:  lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		user:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		nice:   lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		system: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		iowait: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		irq:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		steal:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		used:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		buffer: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		cache:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		read:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		write:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		crit:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}
