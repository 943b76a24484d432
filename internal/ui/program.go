package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrInterrupted is returned by RunLive when the operator quits the view
// before the operation finished.
var ErrInterrupted = errors.New("interrupted by user")

type stepMsg struct {
	number  int
	status  StepStatus
	message string
}

type noteMsg string

type doneMsg struct {
	err      error
	duration time.Duration
}

// LiveModel is a Bubble Tea model showing a spinner next to the running
// step while the operation progresses.
type LiveModel struct {
	header   string
	progress *Progress
	spinner  spinner.Model
	notes    []string
	width    int
	title    string
	hints    HintFunc

	done        bool
	interrupted bool
	err         error
	duration    time.Duration
}

// NewLiveModel creates the model for a run
func NewLiveModel(config RunnerConfig, hints HintFunc) LiveModel {
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StepRunningStyle

	return LiveModel{
		header:   NewHeader(config.Title, config.Command, config.Params...).SetWidth(width).Render(),
		progress: NewProgress(config.StepNames).SetWidth(width),
		spinner:  s,
		width:    width,
		title:    config.Title,
		hints:    hints,
	}
}

// Init implements tea.Model
func (m LiveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done {
				m.interrupted = true
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width, nil)
		m.progress.SetWidth(m.width)

	case stepMsg:
		m.progress.UpdateStep(msg.number, msg.status, msg.message)

	case noteMsg:
		m.notes = append(m.notes, string(msg))

	case doneMsg:
		m.done = true
		m.err = msg.err
		m.duration = msg.duration
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m LiveModel) View() string {
	var b strings.Builder
	b.WriteString(m.header)
	b.WriteString("\n\n")

	for _, n := range m.notes {
		b.WriteString(NoteStyle.Render(n))
		b.WriteString("\n")
	}
	if len(m.notes) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(m.progress.RenderBar())
	b.WriteString("\n\n")
	for _, s := range m.progress.Steps {
		line := m.progress.RenderStep(s)
		if s.Status == StepRunning && !m.done {
			line += " " + m.spinner.View()
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString("\n")
		b.WriteString(m.result().Render())
		b.WriteString("\n")
	}
	return b.String()
}

// Err returns the operation error once the model is done
func (m LiveModel) Err() error {
	if m.interrupted {
		return ErrInterrupted
	}
	return m.err
}

func (m LiveModel) result() *Result {
	if m.err != nil {
		var hints []string
		if m.hints != nil {
			hints = m.hints(m.err)
		}
		return NewFailureResult(m.title+" failed", m.err, hints).SetWidth(m.width)
	}
	return NewSuccessResult(m.title+" complete", Param{Key: "Duration", Value: m.duration.String()}).SetWidth(m.width)
}

// RunLive runs op under an interactive Bubble Tea view. Quitting the view
// early returns ErrInterrupted; the device may be left mid-sequence.
func RunLive(config RunnerConfig, hints HintFunc, op Operation) error {
	opts := []tea.ProgramOption{}
	if config.Output != nil {
		opts = append(opts, tea.WithOutput(config.Output))
	}
	p := tea.NewProgram(NewLiveModel(config, hints), opts...)

	go func() {
		start := time.Now()
		err := op(
			func(n int, status StepStatus, message string) {
				p.Send(stepMsg{number: n, status: status, message: message})
			},
			func(line string) { p.Send(noteMsg(line)) },
		)
		p.Send(doneMsg{err: err, duration: time.Since(start).Round(time.Millisecond)})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("failed to run terminal view: %w", err)
	}
	return final.(LiveModel).Err()
}
