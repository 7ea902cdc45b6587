// Package ui provides terminal output helpers using Charm libraries.
//
// Every operator-facing line the CLI prints goes through this package so that
// colour, quiet mode and spinner behaviour stay consistent across commands.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette.
var (
	// Orange is the primary accent colour, close to the Juju brand orange.
	Orange = lipgloss.Color("#E95420")

	Teal    = lipgloss.Color("#14B8A6")
	Red     = lipgloss.Color("#EF4444")
	Amber   = lipgloss.Color("#F59E0B")
	Green   = lipgloss.Color("#22C55E")
	DimGray = lipgloss.Color("#9CA3AF")
)

// Text styles.
var (
	// TitleStyle for main headings
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Orange)

	// SuccessStyle for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green).
			Bold(true)

	// ErrorStyle for error messages
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// WarningStyle for warning messages
	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// InfoStyle for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5E7EB"))

	// DimStyle for less important text
	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	// CodeStyle for inline commands and hook names
	CodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F3F4F6")).
			Background(lipgloss.Color("#374151")).
			Padding(0, 1)

	// SpinnerStyle for the spinner frame
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Teal)
)

// Box styles.
var (
	// BoxStyle for content boxes
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Orange).
			Padding(0, 1)

	// BoxTitleStyle for box titles
	BoxTitleStyle = lipgloss.NewStyle().
			Foreground(Orange).
			Bold(true)
)

// Status indicator styles used by doctor output.
var (
	StatusOKStyle      = lipgloss.NewStyle().Foreground(Green)
	StatusWarningStyle = lipgloss.NewStyle().Foreground(Amber)
	StatusErrorStyle   = lipgloss.NewStyle().Foreground(Red)
)
