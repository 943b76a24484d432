package provision

// Step names one protocol step. The name doubles as the error tag.
type Step string

const (
	StepFetchWelcome    Step = "fetch welcome page"
	StepExtractSession  Step = "extract session id"
	StepSetPassword     Step = "set password"
	StepConfirmPassword Step = "confirm password"
	StepRequestImport   Step = "request import page"
	StepConfirmImport   Step = "confirm import page"
	StepUploadSettings  Step = "upload settings"
)

// Steps lists the protocol steps in execution order.
var Steps = []Step{
	StepFetchWelcome,
	StepExtractSession,
	StepSetPassword,
	StepConfirmPassword,
	StepRequestImport,
	StepConfirmImport,
	StepUploadSettings,
}

// State is how far a run got. Transitions only move forward. A run that
// returns an error ends in StateFailed; Error.State keeps the last state
// reached before the failure.
type State int

const (
	StateNotStarted State = iota
	StatePageFetched
	StatePasswordSet
	StateImportRequested
	StateSettingsUploaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NotStarted"
	case StatePageFetched:
		return "PageFetched"
	case StatePasswordSet:
		return "PasswordSet"
	case StateImportRequested:
		return "ImportRequested"
	case StateSettingsUploaded:
		return "SettingsUploaded"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
