package ui

import (
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes a run shown as header, step list and result box
type RunnerConfig struct {
	Title     string
	Command   string
	Params    []Param
	StepNames []string
	Output    io.Writer // defaults to os.Stdout
	Width     int       // defaults to the terminal width
}

// Operation is the work a Runner displays. It reports step transitions
// through onStep and free-form lines through onNote.
type Operation func(onStep StepCallback, onNote func(string)) error

// HintFunc returns troubleshooting advice for a failure
type HintFunc func(err error) []string

// Runner prints a run line by line: each completed step is printed once,
// which keeps the output readable when piped or logged.
type Runner struct {
	config   RunnerConfig
	out      io.Writer
	width    int
	progress *Progress
	hints    HintFunc
}

// NewRunner creates a line-oriented runner
func NewRunner(config RunnerConfig, hints HintFunc) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	width := config.Width
	if width == 0 {
		width = GetTerminalWidth()
	}
	p := NewProgress(config.StepNames).SetWidth(width)
	p.ShowBar = false

	return &Runner{
		config:   config,
		out:      config.Output,
		width:    width,
		progress: p,
		hints:    hints,
	}
}

// Run prints the header, executes op and prints the result box
func (r *Runner) Run(op Operation) error {
	start := time.Now()

	header := NewHeader(r.config.Title, r.config.Command, r.config.Params...).SetWidth(r.width)
	_, _ = fmt.Fprintln(r.out, header.Render())
	_, _ = fmt.Fprintln(r.out)

	err := op(r.onStep, r.onNote)
	duration := time.Since(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(r.out)
	_, _ = fmt.Fprintln(r.out, r.result(err, duration).Render())
	return err
}

func (r *Runner) onStep(stepNumber int, status StepStatus, message string) {
	r.progress.UpdateStep(stepNumber, status, message)
	if stepNumber < 1 || stepNumber > r.progress.Total() {
		return
	}
	switch status {
	case StepComplete, StepFailed, StepSkipped:
		_, _ = fmt.Fprintln(r.out, r.progress.RenderStep(r.progress.Steps[stepNumber-1]))
	}
}

func (r *Runner) onNote(line string) {
	_, _ = fmt.Fprintln(r.out, NoteStyle.Render(line))
}

func (r *Runner) result(err error, duration time.Duration) *Result {
	if err != nil {
		var hints []string
		if r.hints != nil {
			hints = r.hints(err)
		}
		return NewFailureResult(r.config.Title+" failed", err, hints).SetWidth(r.width)
	}
	return NewSuccessResult(r.config.Title+" complete", Param{Key: "Duration", Value: duration.String()}).SetWidth(r.width)
}
