package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Pane borders
var (
	StyleFocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62"))

	StyleUnfocusedBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

// Task status, as ANSI color numbers so they follow the terminal theme.
var (
	StyleStatusRunning  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	StyleStatusComplete = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	StyleStatusFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	StyleStatusPending  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var (
	StyleTitle      = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	StyleHelp       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	StyleSeat       = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	StyleSuggestion = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Italic(true)
	StyleError      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	StyleSelected   = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("0"))
)
