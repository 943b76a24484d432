// Package ui renders the terminal output of the provisioning tools.
//
// Components are built with Lipgloss:
//
//   - Header: banner with run title, command line and parameters
//   - Progress: step list with an optional progress bar
//   - Result: success, warning or failure box with troubleshooting tips
//
// Two runners tie them together. Runner prints completed steps line by
// line and suits pipes and logs. RunLive drives the same components from
// a Bubble Tea program with a spinner on the running step.
//
//	err := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Device Provisioning",
//	    Command:   "provision",
//	    StepNames: names,
//	}, provision.TroubleshootingHints).Run(func(onStep ui.StepCallback, onNote func(string)) error {
//	    onStep(1, ui.StepRunning, "")
//	    ...
//	})
//
// Structured logging is separate and silent unless FRITZPROV_LOG_LEVEL or
// --log-level is set, so the curated output stays clean.
package ui
