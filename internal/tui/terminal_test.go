package tui

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeReader struct{ io.Reader }
type fakeWriter struct{ io.Writer }

func (reader fakeReader) Fd() uintptr { return 1 }
func (writer fakeWriter) Fd() uintptr { return 1 }

func TestShouldUseTUIHonorsQuiet(t *testing.T) {
	restore := mockTerminalDetection(t, true)
	defer restore()

	assert.False(t, ShouldUseTUI(true, fakeReader{}, fakeWriter{}))
}

func TestShouldUseTUIRequiresTerminal(t *testing.T) {
	restore := mockTerminalDetection(t, false)
	defer restore()

	assert.False(t, ShouldUseTUI(false, fakeReader{}, fakeWriter{}))
}

func TestShouldUseTUIWhenTerminal(t *testing.T) {
	restore := mockTerminalDetection(t, true)
	defer restore()
	t.Setenv("TERM", "xterm-256color")

	assert.True(t, ShouldUseTUI(false, fakeReader{}, fakeWriter{}))
}

func TestProgramOptionsDisablesRendererWithoutTerminal(t *testing.T) {
	restore := mockTerminalDetection(t, false)
	defer restore()

	opts := ProgramOptions(fakeReader{}, fakeWriter{})
	assert.Len(t, opts, 3)
}

func TestProgramOptionsKeepsRendererWithTerminal(t *testing.T) {
	restore := mockTerminalDetection(t, true)
	defer restore()

	opts := ProgramOptions(fakeReader{}, fakeWriter{})
	assert.Len(t, opts, 2)
}

func TestShouldUseTUISkipsDumbTerminals(t *testing.T) {
	restore := mockTerminalDetection(t, true)
	defer restore()
	t.Setenv("TERM", "dumb")

	assert.False(t, ShouldUseTUI(false, fakeReader{}, fakeWriter{}))
}

func TestStreamsWithoutDescriptorAreNotTerminals(t *testing.T) {
	restore := mockTerminalDetection(t, true)
	defer restore()

	assert.False(t, isTerminal(strings.NewReader("data")))
	assert.False(t, isTerminal(&strings.Builder{}))
	assert.True(t, isTerminal(fakeWriter{}))
}

func TestWidthFallsBackWithoutTerminal(t *testing.T) {
	assert.Equal(t, 80, Width(&strings.Builder{}))

	restore := mockTerminalDetection(t, false)
	defer restore()
	assert.Equal(t, 80, Width(fakeWriter{}))
}

func TestWidthUsesTerminalSize(t *testing.T) {
	restore := mockTerminalDetection(t, true)
	defer restore()
	previous := getSizeFunc
	defer func() { getSizeFunc = previous }()

	getSizeFunc = func(uintptr) (int, int, error) { return 132, 40, nil }
	assert.Equal(t, 132, Width(fakeWriter{}))

	getSizeFunc = func(uintptr) (int, int, error) { return 0, 0, errors.New("no size") }
	assert.Equal(t, 80, Width(fakeWriter{}))
}

func mockTerminalDetection(t *testing.T, result bool) func() {
	t.Helper()
	original := isTerminalFunc
	isTerminalFunc = func(_ int) bool { return result }
	return func() { isTerminalFunc = original }
}
