package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/meza/entwine/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isQuit(t *testing.T, cmd tea.Cmd) bool {
	t.Helper()
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestProgressModelCollectsLinesAndQuitsWhenDone(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	messages := make(chan string, 4)
	model := NewProgressModel("Installing Silk", messages)

	updated, _ := model.Update(progressLineMsg("Downloading Silk"))
	messages <- "Extracting Silk"
	updated, cmd := updated.Update(WorkDoneMsg{})

	final := updated.(ProgressModel)
	assert.True(t, isQuit(t, cmd))
	assert.Equal(t, []string{"Downloading Silk", "Extracting Silk"}, final.Lines())
	assert.NoError(t, final.Err())
	assert.Contains(t, final.View(), "Installing Silk")
	assert.Contains(t, final.View(), SuccessIcon(true)+" Extracting Silk")
}

func TestProgressModelShowsFailure(t *testing.T) {
	model := NewProgressModel("Installing Silk", nil)

	updated, _ := model.Update(progressLineMsg("Downloading Silk"))
	updated, _ = updated.Update(WorkDoneMsg{Err: errors.New("network down")})

	final := updated.(ProgressModel)
	assert.EqualError(t, final.Err(), "network down")
	assert.Contains(t, final.View(), ErrorIcon(true)+" Downloading Silk")
	assert.Contains(t, final.View(), "network down")
}

func TestProgressModelCtrlCInterrupts(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	model := NewProgressModel("Installing Silk", nil)

	updated, cmd := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, isQuit(t, cmd))
	assert.Contains(t, updated.View(), "tui.progress.interrupted")
}

func TestProgressModelIgnoresOtherKeys(t *testing.T) {
	model := NewProgressModel("Installing Silk", nil)
	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Nil(t, cmd)
}

func TestProgressModelShowsWaitingBeforeFirstLine(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	model := NewProgressModel("Installing Silk", nil)
	assert.Contains(t, model.View(), "tui.progress.waiting")
}

func TestWaitForLineStopsOnClosedChannel(t *testing.T) {
	assert.Nil(t, waitForLine(nil))

	messages := make(chan string)
	close(messages)
	assert.Nil(t, waitForLine(messages)())
}

func TestProgressModelRendersInTerminal(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	messages := make(chan string, 4)
	tm := teatest.NewTestModel(t, NewProgressModel("Installing Silk", messages), teatest.WithInitialTermSize(60, 10))

	messages <- "Downloading Silk"
	teatest.WaitFor(t, tm.Output(), func(output []byte) bool {
		return bytes.Contains(output, []byte("Downloading Silk"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(WorkDoneMsg{})
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second)).(ProgressModel)
	require.True(t, ok)
	assert.Equal(t, []string{"Downloading Silk"}, final.Lines())
}

func TestRunWithProgressReturnsWorkResult(t *testing.T) {
	t.Setenv("ENTWINE_TEST", "true")
	var out strings.Builder

	err := RunWithProgress(nil, &out, "Installing Silk", func(sink progress.Sink) error {
		sink.Notify("Downloading Silk")
		return nil
	})
	assert.NoError(t, err)

	err = RunWithProgress(nil, &out, "Installing Silk", func(sink progress.Sink) error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}
