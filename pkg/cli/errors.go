package cli

import "fmt"

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ProbeError represents a failed probe in a one-shot command. It carries
// the error class so callers can map it to an exit code.
type ProbeError struct {
	URL        string
	ErrorClass string
	Message    string
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe of %s failed (%s): %s", e.URL, e.ErrorClass, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// NewProbeError creates a new ProbeError.
func NewProbeError(url, errorClass, message string) *ProbeError {
	return &ProbeError{
		URL:        url,
		ErrorClass: errorClass,
		Message:    message,
	}
}
