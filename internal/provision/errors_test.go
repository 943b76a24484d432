package provision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := newRequestError(StepConfirmImport, "10.0.0.1", StatePasswordSet, errors.New("boom"))
	got := err.Error()

	for _, want := range []string{"Request Failed", "confirm import page", "10.0.0.1", "boom"} {
		if !strings.Contains(got, want) {
			t.Errorf("Error() = %q, missing %q", got, want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := os.ErrNotExist
	err := fmt.Errorf("wrapped: %w", newFileNotFoundError("x.export", inner))

	if !errors.Is(err, os.ErrNotExist) {
		t.Error("errors.Is should find the underlying error")
	}
	if !IsFileNotFound(err) {
		t.Error("IsFileNotFound should see through wrapping")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   func(error) bool
	}{
		{"file not found", newFileNotFoundError("a", nil), IsFileNotFound},
		{"unreachable", newUnreachableError("a", errors.New("x")), IsDeviceUnreachable},
		{"token", newTokenNotFoundError("a", ErrNoSessionID), IsSessionTokenNotFound},
		{"request", newRequestError(StepSetPassword, "a", StatePageFetched, errors.New("x")), IsRequestFailed},
		{"status", newStatusError(StepSetPassword, "a", StatePageFetched, 500), IsRequestFailed},
	}

	all := []func(error) bool{IsFileNotFound, IsDeviceUnreachable, IsSessionTokenNotFound, IsRequestFailed}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := 0
			for _, is := range all {
				if is(tt.err) {
					matches++
				}
			}
			if !tt.is(tt.err) || matches != 1 {
				t.Errorf("error %v matched %d predicates", tt.err, matches)
			}
		})
	}

	if IsRequestFailed(errors.New("plain")) || FailedStep(errors.New("plain")) != "" {
		t.Error("plain errors must not match")
	}
}

func TestClassifyNetwork(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want NetworkCause
	}{
		{"nil", nil, CauseGeneral},
		{"deadline", context.DeadlineExceeded, CauseTimeout},
		{"os deadline", os.ErrDeadlineExceeded, CauseTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "fritz.box"}, CauseDNS},
		{
			"refused",
			&url.Error{Op: "Get", URL: "http://x", Err: &net.OpError{Op: "dial", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}},
			CauseConnectionRefused,
		},
		{"host unreachable", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, CauseHostUnreachable},
		{"network unreachable", &net.OpError{Op: "dial", Err: syscall.ENETUNREACH}, CauseNetworkUnreachable},
		{"other", errors.New("weird"), CauseGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyNetwork(tt.err); got != tt.want {
				t.Errorf("classifyNetwork() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTroubleshootingHints(t *testing.T) {
	passwordChanged := func(hints []string) bool {
		for _, h := range hints {
			if strings.Contains(h, "password may already be changed") {
				return true
			}
		}
		return false
	}

	if passwordChanged(TroubleshootingHints(newRequestError(StepSetPassword, "a", StatePageFetched, errors.New("x")))) {
		t.Error("failure at set password must not claim the password changed")
	}
	if !passwordChanged(TroubleshootingHints(newRequestError(StepUploadSettings, "a", StateImportRequested, errors.New("x")))) {
		t.Error("failure after set password should warn the password may be changed")
	}

	hints := TroubleshootingHints(newUnreachableError("192.168.178.1", context.DeadlineExceeded))
	joined := strings.Join(hints, "\n")
	if !strings.Contains(joined, "--timeout") || !strings.Contains(joined, "192.168.178.1") {
		t.Errorf("unreachable hints = %q", hints)
	}

	if len(TroubleshootingHints(errors.New("plain"))) == 0 {
		t.Error("expected a generic hint")
	}
}

func TestKindString(t *testing.T) {
	if KindSessionTokenNotFound.String() != "Session Token Not Found" {
		t.Errorf("String() = %q", KindSessionTokenNotFound.String())
	}
	if Kind(99).String() != "Kind(99)" {
		t.Errorf("String() = %q", Kind(99).String())
	}
}
