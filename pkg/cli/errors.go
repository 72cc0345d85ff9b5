package cli

import (
	"errors"
	"fmt"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/providers"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError represents an invalid flag or argument combination.
type UsageError struct {
	Flag    string
	Message string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid --%s: %s", e.Flag, e.Message)
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

// NewUsageError creates a new UsageError.
func NewUsageError(flag, message string) *UsageError {
	return &UsageError{
		Flag:    flag,
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

// ExitCode maps an error to the process exit status. Invalid input or
// configuration exits 2; anything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var usageErr *UsageError
	var validationErr config.ValidationError
	var providerCfgErr *providers.ConfigError
	var requestErr *providers.ValidationError
	switch {
	case errors.As(err, &usageErr),
		errors.As(err, &validationErr),
		errors.As(err, &providerCfgErr),
		errors.As(err, &requestErr):
		return ExitUsage
	default:
		return ExitFailure
	}
}
