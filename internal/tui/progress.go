package tui

import (
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/meza/entwine/internal/i18n"
	"github.com/meza/entwine/internal/progress"
)

const progressBuffer = 64

type progressLineMsg string

// WorkDoneMsg tells the progress model the operation finished.
type WorkDoneMsg struct {
	Err error
}

type ProgressModel struct {
	spinner     spinner.Model
	title       string
	messages    <-chan string
	lines       []string
	finished    bool
	interrupted bool
	err         error
}

func NewProgressModel(title string, messages <-chan string) ProgressModel {
	model := spinner.New(spinner.WithSpinner(spinner.Dot))
	model.Style = SpinnerStyle
	return ProgressModel{
		spinner:  model,
		title:    title,
		messages: messages,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForLine(m.messages))
}

func waitForLine(messages <-chan string) tea.Cmd {
	if messages == nil {
		return nil
	}
	return func() tea.Msg {
		line, ok := <-messages
		if !ok {
			return nil
		}
		return progressLineMsg(line)
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressLineMsg:
		m.lines = append(m.lines, string(msg))
		if m.finished {
			return m, nil
		}
		return m, waitForLine(m.messages)
	case WorkDoneMsg:
		m.finished = true
		m.err = msg.Err
		m.drain()
		return m, tea.Quit
	case tea.KeyMsg:
		if key.Matches(msg, ForceQuit()) {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *ProgressModel) drain() {
	if m.messages == nil {
		return
	}
	for {
		select {
		case line, ok := <-m.messages:
			if !ok {
				return
			}
			m.lines = append(m.lines, line)
		default:
			return
		}
	}
}

func (m ProgressModel) View() string {
	var sb strings.Builder
	sb.WriteString(TitleStyle.Render(m.title))
	sb.WriteString("\n")

	for i, line := range m.lines {
		last := i == len(m.lines)-1
		switch {
		case last && !m.finished:
			sb.WriteString(m.spinner.View() + " " + line)
		case last && m.err != nil:
			sb.WriteString(ErrorIcon(true) + " " + line)
		default:
			sb.WriteString(SuccessIcon(true) + " " + line)
		}
		sb.WriteString("\n")
	}

	if len(m.lines) == 0 && !m.finished {
		sb.WriteString(m.spinner.View() + " " + PlaceholderStyle.Render(i18n.T("tui.progress.waiting")) + "\n")
	}
	if m.err != nil {
		sb.WriteString(ErrorStyle.Render(m.err.Error()) + "\n")
	}
	if m.interrupted {
		sb.WriteString(PlaceholderStyle.Render(i18n.T("tui.progress.interrupted")) + "\n")
	}
	return sb.String()
}

func (m ProgressModel) Lines() []string {
	return append([]string(nil), m.lines...)
}

func (m ProgressModel) Err() error {
	return m.err
}

// RunWithProgress renders a spinner on the calling goroutine while work runs on another one.
// Closing the view early does not cancel the work; RunWithProgress still waits for it.
func RunWithProgress(in io.Reader, out io.Writer, title string, work func(progress.Sink) error) error {
	messages := make(chan string, progressBuffer)
	program := tea.NewProgram(NewProgressModel(title, messages), ProgramOptions(in, out)...)

	done := make(chan error, 1)
	go func() {
		err := work(progress.ChannelSink(messages))
		close(messages)
		done <- err
		program.Send(WorkDoneMsg{Err: err})
	}()

	_, runErr := program.Run()
	workErr := <-done
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return errors.Join(workErr, runErr)
	}
	return workErr
}
