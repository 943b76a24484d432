package provision

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// Kind is the category of a provisioning failure.
type Kind int

const (
	// KindFileNotFound means the settings backup could not be found or read.
	// Reported before any network activity.
	KindFileNotFound Kind = iota
	// KindDeviceUnreachable means the welcome page fetch failed at the transport level.
	KindDeviceUnreachable
	// KindSessionTokenNotFound means the welcome page carried no session id.
	KindSessionTokenNotFound
	// KindRequestFailed means one of the exchanges after the welcome page failed.
	KindRequestFailed
	// KindInvalidRequest means the request itself is unusable (e.g. empty password).
	KindInvalidRequest
)

// String returns a human-readable name for the kind
func (k Kind) String() string {
	switch k {
	case KindFileNotFound:
		return "File Not Found"
	case KindDeviceUnreachable:
		return "Device Unreachable"
	case KindSessionTokenNotFound:
		return "Session Token Not Found"
	case KindRequestFailed:
		return "Request Failed"
	case KindInvalidRequest:
		return "Invalid Request"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// NetworkCause narrows down why a transport-level failure happened
type NetworkCause int

const (
	CauseGeneral NetworkCause = iota
	CauseTimeout
	CauseConnectionRefused
	CauseDNS
	CauseHostUnreachable
	CauseNetworkUnreachable
)

// String returns a short description of the cause
func (c NetworkCause) String() string {
	switch c {
	case CauseTimeout:
		return "timeout"
	case CauseConnectionRefused:
		return "connection refused"
	case CauseDNS:
		return "name resolution failed"
	case CauseHostUnreachable:
		return "host unreachable"
	case CauseNetworkUnreachable:
		return "network unreachable"
	default:
		return "network error"
	}
}

// Error is returned by Provision for every failure.
// Step and State tell the caller how far the device got: a RequestFailed
// error after "set password" means the password is already changed.
type Error struct {
	Kind    Kind         // Category of failure
	Step    Step         // Step that failed (empty for precondition failures)
	Address string       // Device address the run targeted
	State   State        // Last state reached before the failure
	Cause   NetworkCause // Transport failure detail, if any
	Status  int          // HTTP status code for strict-status failures
	Message string       // Human-readable message
	Err     error        // Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Step != "" {
		msg = fmt.Sprintf("%s: %s", e.Step, msg)
	}
	if e.Address != "" {
		msg = fmt.Sprintf("%s (device %s)", msg, e.Address)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyNetwork walks the transport error chain and reports the most
// specific cause it recognises.
func classifyNetwork(err error) NetworkCause {
	if err == nil {
		return CauseGeneral
	}

	if os.IsTimeout(err) {
		return CauseTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CauseDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return CauseConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return CauseHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return CauseNetworkUnreachable
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		return classifyNetwork(urlErr.Err)
	}

	return CauseGeneral
}

func newFileNotFoundError(path string, err error) *Error {
	return &Error{
		Kind:    KindFileNotFound,
		State:   StateNotStarted,
		Message: fmt.Sprintf("can't find settings file at %s", path),
		Err:     err,
	}
}

func newInvalidRequestError(message string) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		State:   StateNotStarted,
		Message: message,
	}
}

func newUnreachableError(address string, err error) *Error {
	cause := classifyNetwork(err)
	msg := fmt.Sprintf("could not reach the device (%s); you must be connected to a freshly reset device via ethernet or WiFi", cause)
	return &Error{
		Kind:    KindDeviceUnreachable,
		Step:    StepFetchWelcome,
		Address: address,
		State:   StateNotStarted,
		Cause:   cause,
		Message: msg,
		Err:     err,
	}
}

func newTokenNotFoundError(address string, err error) *Error {
	return &Error{
		Kind:    KindSessionTokenNotFound,
		Step:    StepExtractSession,
		Address: address,
		State:   StatePageFetched,
		Message: "welcome page has no session id; the device is not in first-boot state or its firmware is unsupported",
		Err:     err,
	}
}

func newRequestError(step Step, address string, state State, err error) *Error {
	cause := classifyNetwork(err)
	return &Error{
		Kind:    KindRequestFailed,
		Step:    step,
		Address: address,
		State:   state,
		Cause:   cause,
		Message: fmt.Sprintf("request failed (%s)", cause),
		Err:     err,
	}
}

func newStatusError(step Step, address string, state State, status int) *Error {
	return &Error{
		Kind:    KindRequestFailed,
		Step:    step,
		Address: address,
		State:   state,
		Status:  status,
		Message: fmt.Sprintf("device answered with HTTP %d", status),
	}
}

func kindOf(err error) (Kind, bool) {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind, true
	}
	return 0, false
}

// IsFileNotFound reports whether err is a FileNotFound failure
func IsFileNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindFileNotFound
}

// IsDeviceUnreachable reports whether err is a DeviceUnreachable failure
func IsDeviceUnreachable(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindDeviceUnreachable
}

// IsSessionTokenNotFound reports whether err is a SessionTokenNotFound failure
func IsSessionTokenNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindSessionTokenNotFound
}

// IsRequestFailed reports whether err is a RequestFailed failure
func IsRequestFailed(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindRequestFailed
}

// FailedStep returns the step tag carried by err, or "" if there is none.
func FailedStep(err error) Step {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Step
	}
	return ""
}

// TroubleshootingHints returns operator advice for a provisioning failure
func TroubleshootingHints(err error) []string {
	var pErr *Error
	if !errors.As(err, &pErr) {
		return []string{"An unexpected error occurred. Run with --log-level debug for details."}
	}

	switch pErr.Kind {
	case KindFileNotFound:
		return []string{
			"Check the settings file path",
			"The backup must be exported from the same model and firmware",
		}

	case KindInvalidRequest:
		return []string{"Provide a non-empty admin password"}

	case KindDeviceUnreachable:
		hints := []string{
			"Connect to the device via ethernet or its factory WiFi",
			"Factory-reset the device so it boots into the setup wizard",
		}
		switch pErr.Cause {
		case CauseTimeout:
			hints = append(hints, "The device did not answer in time; try --timeout 15s")
		case CauseConnectionRefused:
			hints = append(hints, "The web server refused the connection; wait until the device finished booting")
		case CauseDNS:
			hints = append(hints, "Use the IP address instead of a hostname")
		case CauseHostUnreachable, CauseNetworkUnreachable:
			hints = append(hints, "Check that your interface has an address in the device's subnet (provisionctl local-address)")
		}
		if pErr.Address != "" {
			hints = append(hints, "Verify the address: "+pErr.Address)
		}
		return hints

	case KindSessionTokenNotFound:
		return []string{
			"The device already has a password, or is not in first-boot state",
			"Factory-reset the device and try again",
			"Only FRITZ!Box 3490 with FRITZ!OS 6 is verified",
		}

	case KindRequestFailed:
		hints := []string{fmt.Sprintf("The run stopped at %q after reaching state %s", pErr.Step, pErr.State)}
		if pErr.Step != StepSetPassword {
			hints = append(hints, "The admin password may already be changed; log in with it before retrying")
		}
		hints = append(hints, "Retry after a factory reset if the device is in an unknown state")
		return hints
	}

	return []string{"Check the error message for details"}
}
