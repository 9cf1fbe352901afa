package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HeaderConfig is the content of the browser's top bar: the app and its version on the left,
// extras after them, and Status pinned to the right edge when it fits.
type HeaderConfig struct {
	App     string
	Version string
	Extras  []string
	Status  string
}

// The bar fades from Silk cyan to violet.
var gradient = []string{
	"#89DCEB", "#99C9F5", "#B0B0FF", "#C49FFF", "#DB8AFF",
}

// Header paints a gradient bar exactly width cells wide. Cells sharing a gradient band are
// rendered as one run.
func Header(cfg HeaderConfig, width int) string {
	if width <= 0 {
		return ""
	}
	cells := headerCells(cfg, width)

	var out strings.Builder
	for start := 0; start < width; {
		band := gradientAt(start, width)
		end := start + 1
		for end < width && gradientAt(end, width) == band {
			end++
		}
		out.WriteString(bandStyle(band).Render(string(cells[start:end])))
		start = end
	}
	return out.String()
}

// headerCells lays the text onto width blank cells.
func headerCells(cfg HeaderConfig, width int) []rune {
	cells := []rune(strings.Repeat(" ", width))

	parts := append([]string{cfg.App, "v" + cfg.Version}, cfg.Extras...)
	left := []rune(" " + strings.Join(parts, " | "))
	copy(cells, left)

	status := []rune(cfg.Status + " ")
	if cfg.Status != "" && len(left)+1+len(status) <= width {
		copy(cells[width-len(status):], status)
	}
	return cells
}

func bandStyle(background string) lipgloss.Style {
	foreground := "#FFFFFF"
	if isLight(background) {
		foreground = "#000000"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(background)).
		Foreground(lipgloss.Color(foreground)).
		Bold(true)
}

func gradientAt(col int, width int) string {
	if width < 1 {
		width = 1
	}
	return gradient[col*len(gradient)/width]
}

// isLight uses Rec. 709 relative luminance.
func isLight(hex string) bool {
	r, g, b := hexToRGB(hex)
	return 0.2126*r+0.7152*g+0.0722*b > 0.5
}

func hexToRGB(h string) (r, g, b float64) {
	h = strings.TrimPrefix(h, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0
	}
	channel := func(s string) float64 {
		v, _ := strconv.ParseUint(s, 16, 8)
		return float64(v) / 255
	}
	return channel(h[0:2]), channel(h[2:4]), channel(h[4:6])
}
