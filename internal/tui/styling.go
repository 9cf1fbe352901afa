package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Palette. Status colours use the terminal's own ANSI slots so they follow the user's theme.
var (
	brightText = lipgloss.ANSIColor(termenv.ANSIBrightWhite)
	okColor    = lipgloss.ANSIColor(termenv.ANSIBrightGreen)
	warnColor  = lipgloss.ANSIColor(termenv.ANSIBrightYellow)
	failColor  = lipgloss.Color("#ff0000")
	accent     = lipgloss.Color("#3a96dd")
	silkColor  = lipgloss.Color("#C49FFF")
	muted      = lipgloss.Color("#767676")
)

var (
	TitleStyle   = lipgloss.NewStyle().Foreground(brightText).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(okColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(warnColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(failColor).Bold(true)
	SpinnerStyle = lipgloss.NewStyle().Foreground(silkColor)

	// Browser rows. The selected row drops the indent to make room for the cursor.
	ItemStyle         = lipgloss.NewStyle().PaddingLeft(2).Foreground(brightText)
	SelectedItemStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	DescriptionStyle  = lipgloss.NewStyle().Foreground(muted)
	PlaceholderStyle  = lipgloss.NewStyle().Foreground(muted).PaddingLeft(1)

	PaginationStyle = list.DefaultStyles().PaginationStyle.PaddingLeft(2)
	HelpStyle       = list.DefaultStyles().HelpStyle.PaddingLeft(2).PaddingBottom(1)
)
