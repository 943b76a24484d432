package main

import (
	"strings"

	"github.com/muurk/fritzprov/internal/provision"
	"github.com/muurk/fritzprov/internal/ui"
)

// stepTracker turns provisioning progress messages into step list updates.
// Step numbers are 1-based positions in provision.Steps.
type stepTracker struct {
	onStep    ui.StepCallback
	onNote    func(string)
	completed int // highest step marked complete
}

func newStepTracker(onStep ui.StepCallback, onNote func(string)) *stepTracker {
	return &stepTracker{onStep: onStep, onNote: onNote}
}

func (t *stepTracker) progress(msg string) {
	switch {
	case msg == provision.MsgFetchingWelcome:
		t.start(provision.StepFetchWelcome, "")
	case strings.HasPrefix(msg, provision.MsgFetchedWelcome):
		t.complete(provision.StepFetchWelcome, "")
		t.complete(provision.StepExtractSession, "SID "+strings.TrimPrefix(msg, provision.MsgFetchedWelcome))
	case msg == provision.MsgSettingPassword:
		t.start(provision.StepSetPassword, "")
	case msg == provision.MsgSetPassword:
		t.complete(provision.StepSetPassword, "")
		t.complete(provision.StepConfirmPassword, "")
	case msg == provision.MsgAskingReset:
		t.start(provision.StepRequestImport, "")
	case msg == provision.MsgAskedReset:
		t.complete(provision.StepRequestImport, "")
		t.complete(provision.StepConfirmImport, "")
	case msg == provision.MsgResetting:
		t.start(provision.StepUploadSettings, "")
	case msg == provision.MsgRestarting:
		t.complete(provision.StepUploadSettings, "device restarting")
	default:
		t.onNote(msg)
	}
}

// fail marks every step before the failed one complete and the failed one
// failed. Failures without a step (bad file, bad request) touch nothing.
func (t *stepTracker) fail(err error) {
	n := stepNumber(provision.FailedStep(err))
	if n == 0 {
		return
	}
	for i := t.completed + 1; i < n; i++ {
		t.onStep(i, ui.StepComplete, "")
	}
	t.completed = n - 1
	t.onStep(n, ui.StepFailed, "")
}

func (t *stepTracker) start(step provision.Step, note string) {
	t.onStep(stepNumber(step), ui.StepRunning, note)
}

func (t *stepTracker) complete(step provision.Step, note string) {
	n := stepNumber(step)
	t.onStep(n, ui.StepComplete, note)
	if n > t.completed {
		t.completed = n
	}
}

func stepNumber(step provision.Step) int {
	for i, s := range provision.Steps {
		if s == step {
			return i + 1
		}
	}
	return 0
}
