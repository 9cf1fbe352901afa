package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	xterm "github.com/charmbracelet/x/term"
	"golang.org/x/term"
)

const defaultWidth = 80

// fileDescriptor is satisfied by *os.File and anything else backed by one.
type fileDescriptor interface {
	Fd() uintptr
}

var (
	isTerminalFunc = term.IsTerminal
	getSizeFunc    = xterm.GetSize
)

func isTerminal(stream interface{}) bool {
	file, ok := stream.(fileDescriptor)
	return ok && isTerminalFunc(int(file.Fd()))
}

// dumbTerminal reports a TERM that cannot move the cursor, such as an editor's output pane.
func dumbTerminal() bool {
	return os.Getenv("TERM") == "dumb"
}

// ShouldUseTUI decides whether progress and the mod browser render interactively.
func ShouldUseTUI(quiet bool, in io.Reader, out io.Writer) bool {
	if quiet || dumbTerminal() {
		return false
	}
	return isTerminal(in) && isTerminal(out)
}

// ProgramOptions wires a Bubble Tea program to in and out and drops the renderer when either is not a terminal.
func ProgramOptions(in io.Reader, out io.Writer) []tea.ProgramOption {
	options := []tea.ProgramOption{tea.WithInput(in), tea.WithOutput(out)}
	if !isTerminal(in) || !isTerminal(out) {
		options = append(options, tea.WithoutRenderer())
	}
	return options
}

// Width reports the column count of the terminal behind writer, or 80 when it is not a terminal.
func Width(writer io.Writer) int {
	if !isTerminal(writer) {
		return defaultWidth
	}
	width, _, err := getSizeFunc(writer.(fileDescriptor).Fd())
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
