package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestHeader_Render(t *testing.T) {
	h := NewHeader("Device Provisioning", "provision", Param{"Address", "192.168.178.1"}, Param{"Settings", "box.export"}).SetWidth(80)
	out := h.Render()

	for _, want := range []string{"DEVICE PROVISIONING", "provision", "Address:", "192.168.178.1", "box.export"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Address:") > strings.Index(out, "Settings:") {
		t.Error("params should render in the order given")
	}
}

func TestResult_Render(t *testing.T) {
	out := NewFailureResult("Provisioning failed", errors.New("boom"), []string{"Check the cable"}).SetWidth(80).Render()
	for _, want := range []string{"FAILED", "Provisioning failed", "boom", "Troubleshooting:", "Check the cable"} {
		if !strings.Contains(out, want) {
			t.Errorf("failure box missing %q:\n%s", want, out)
		}
	}

	out = NewSuccessResult("Done", Param{"Duration", "1.2s"}).SetWidth(80).Render()
	if !strings.Contains(out, "SUCCESS") || !strings.Contains(out, "1.2s") {
		t.Errorf("success box = \n%s", out)
	}
}

func TestProgress_UpdateStep(t *testing.T) {
	p := NewProgress([]string{"one", "two", "three", "four"})

	p.UpdateStep(1, StepRunning, "")
	if p.Current != 1 || p.Percent != 0 {
		t.Errorf("after start: Current = %d, Percent = %v", p.Current, p.Percent)
	}

	p.UpdateStep(1, StepComplete, "sid 0123")
	p.UpdateStep(2, StepSkipped, "")
	if p.Percent != 0.5 {
		t.Errorf("Percent = %v, want 0.5", p.Percent)
	}
	if p.Steps[0].Message != "sid 0123" {
		t.Errorf("Message = %q", p.Steps[0].Message)
	}

	p.UpdateStep(0, StepComplete, "")
	p.UpdateStep(9, StepComplete, "")
	if p.Percent != 0.5 {
		t.Error("out of range steps must be ignored")
	}

	line := p.RenderStep(p.Steps[0])
	if !strings.Contains(line, "[1/4]") || !strings.Contains(line, StepMarkerComplete) || !strings.Contains(line, "(sid 0123)") {
		t.Errorf("RenderStep() = %q", line)
	}
}

func TestRunner_Run(t *testing.T) {
	var buf bytes.Buffer
	r := NewRunner(RunnerConfig{
		Title:     "Provisioning",
		Command:   "provision",
		StepNames: []string{"fetch", "upload"},
		Output:    &buf,
		Width:     80,
	}, nil)

	err := r.Run(func(onStep StepCallback, onNote func(string)) error {
		onNote("local address: 192.168.178.20")
		onStep(1, StepRunning, "")
		onStep(1, StepComplete, "")
		onStep(2, StepRunning, "")
		onStep(2, StepComplete, "")
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"PROVISIONING", "local address: 192.168.178.20", "[1/2] fetch", "[2/2] upload", "SUCCESS"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunner_RunFailure(t *testing.T) {
	var buf bytes.Buffer
	wantErr := errors.New("device gone")
	hints := func(error) []string { return []string{"Reconnect"} }

	r := NewRunner(RunnerConfig{Title: "Provisioning", StepNames: []string{"fetch"}, Output: &buf, Width: 80}, hints)
	err := r.Run(func(onStep StepCallback, _ func(string)) error {
		onStep(1, StepFailed, "")
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want %v", err, wantErr)
	}
	out := buf.String()
	if !strings.Contains(out, "FAILED") || !strings.Contains(out, "Reconnect") || !strings.Contains(out, FailureMarker) {
		t.Errorf("output = \n%s", out)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"I AGREE\n", true},
		{"  I AGREE  \n", true},
		{"I AGREE", true},
		{"i agree\n", false},
		{"yes\n", false},
		{"", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, ProvisionConfirmation("192.168.178.1"))
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "192.168.178.1") {
			t.Errorf("warning box should name the device address")
		}
	}
}

func TestLiveModel_Update(t *testing.T) {
	m := NewLiveModel(RunnerConfig{Title: "Provisioning", StepNames: []string{"fetch", "upload"}, Width: 80}, nil)

	var model tea.Model = m
	model, _ = model.Update(noteMsg("local address: 10.0.0.2"))
	model, _ = model.Update(stepMsg{number: 1, status: StepRunning})
	model, _ = model.Update(stepMsg{number: 1, status: StepComplete})

	view := model.View()
	if !strings.Contains(view, "local address: 10.0.0.2") || !strings.Contains(view, "[1/2] fetch") {
		t.Errorf("View() = \n%s", view)
	}

	model, cmd := model.Update(doneMsg{err: errors.New("upload failed")})
	if cmd == nil {
		t.Error("done should quit the program")
	}
	lm := model.(LiveModel)
	if lm.Err() == nil || lm.Err().Error() != "upload failed" {
		t.Errorf("Err() = %v", lm.Err())
	}
	if !strings.Contains(lm.View(), "FAILED") {
		t.Error("final view should contain the result box")
	}
}

func TestLiveModel_Interrupt(t *testing.T) {
	m := NewLiveModel(RunnerConfig{Title: "Provisioning", StepNames: []string{"fetch"}, Width: 80}, nil)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !errors.Is(model.(LiveModel).Err(), ErrInterrupted) {
		t.Errorf("Err() = %v, want ErrInterrupted", model.(LiveModel).Err())
	}
}
