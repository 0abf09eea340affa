package cli

import (
	"errors"
	"strings"
	"testing"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "missing port")
	if !strings.Contains(err.Error(), "server.listen_address") {
		t.Errorf("Error() = %q, want field name", err.Error())
	}

	err = NewConfigError("", "file not found")
	if got := err.Error(); got != "config error: file not found" {
		t.Errorf("Error() = %q", got)
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewCommandError("run", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() failed to find wrapped cause")
	}
	if !strings.Contains(err.Error(), "run") {
		t.Errorf("Error() = %q, want command name", err.Error())
	}
}

func TestProbeError(t *testing.T) {
	var err error = NewProbeError("https://example.com/", "dns", "no such host")

	var pe *ProbeError
	if !errors.As(err, &pe) {
		t.Fatal("errors.As() failed")
	}
	if pe.ErrorClass != "dns" {
		t.Errorf("ErrorClass = %q, want dns", pe.ErrorClass)
	}
	if !strings.Contains(err.Error(), "no such host") {
		t.Errorf("Error() = %q", err.Error())
	}
}
