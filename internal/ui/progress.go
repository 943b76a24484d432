package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus is the state of one displayed step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// Step is one line of the step list
type Step struct {
	Number  int // 1-based
	Name    string
	Status  StepStatus
	Message string // optional note, e.g. the session id
}

// StepCallback reports a step transition
type StepCallback func(stepNumber int, status StepStatus, message string)

// Progress is a progress bar over a fixed list of named steps
type Progress struct {
	Steps     []Step
	Current   int
	Percent   float64
	ShowBar   bool
	bar       progress.Model
	nameWidth int
}

// NewProgress creates a progress display with one pending step per name
func NewProgress(names []string) *Progress {
	steps := make([]Step, len(names))
	nameWidth := 0
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
		if w := lipgloss.Width(name); w > nameWidth {
			nameWidth = w
		}
	}

	return &Progress{
		Steps:     steps,
		ShowBar:   true,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		nameWidth: nameWidth,
	}
}

// SetWidth adapts the bar to the terminal width
func (p *Progress) SetWidth(width int) *Progress {
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return p
}

// Total returns the number of steps
func (p *Progress) Total() int {
	return len(p.Steps)
}

// UpdateStep sets the status of a step and recomputes the completed share.
// Out of range step numbers are ignored.
func (p *Progress) UpdateStep(stepNumber int, status StepStatus, message string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	s := &p.Steps[stepNumber-1]
	s.Status = status
	if message != "" {
		s.Message = message
	}

	if status == StepRunning {
		p.Current = stepNumber
		return
	}

	done := 0
	for _, st := range p.Steps {
		if st.Status == StepComplete || st.Status == StepSkipped {
			done++
		}
	}
	p.Percent = float64(done) / float64(len(p.Steps))
}

// Render returns the bar followed by the step list
func (p *Progress) Render() string {
	var b strings.Builder
	if p.ShowBar {
		b.WriteString(p.RenderBar())
		b.WriteString("\n\n")
	}
	lines := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		lines[i] = p.RenderStep(s)
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// RenderBar renders the progress bar line with percentage and step counter
func (p *Progress) RenderBar() string {
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, p.Current, len(p.Steps)))
}

// RenderStep renders a single step line: counter, name, marker and note
func (p *Progress) RenderStep(s Step) string {
	var (
		marker string
		style  lipgloss.Style
	)
	switch s.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	padding := p.nameWidth - lipgloss.Width(s.Name) + 2

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", s.Number, len(p.Steps))
	b.WriteString(style.Render(s.Name))
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))
	if s.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + s.Message + ")"))
	}
	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
