// Package tui renders progress and the mod browser when entwine runs in a terminal.
package tui

func SuccessIcon(colorize bool) string {
	return icon("✅", colorize, SuccessStyle.Render)
}

func ErrorIcon(colorize bool) string {
	return icon("❌", colorize, ErrorStyle.Render)
}

// WarningIcon marks mods that load but fall outside their declared Silk window.
func WarningIcon(colorize bool) string {
	return icon("⚠", colorize, WarningStyle.Render)
}

// StateIcon picks the success or error icon for a yes/no column in status output.
func StateIcon(ok bool, colorize bool) string {
	if ok {
		return SuccessIcon(colorize)
	}
	return ErrorIcon(colorize)
}

func icon(glyph string, colorize bool, render func(...string) string) string {
	if colorize {
		return render(glyph)
	}
	return glyph
}
