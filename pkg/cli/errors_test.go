package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"costlab-hq/tokenbench/pkg/config"
	"costlab-hq/tokenbench/pkg/providers"
)

func TestUsageError(t *testing.T) {
	err := NewUsageError("trials", "must be at least 1")

	want := "invalid --trials: must be at least 1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestCommandError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewCommandError("run", cause)

	if !strings.Contains(err.Error(), "command run failed") {
		t.Errorf("Error() = %q, want command name", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("CommandError should unwrap to its cause")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "usage", err: NewUsageError("output", "bad"), want: ExitUsage},
		{
			name: "config validation",
			err:  fmt.Errorf("load: %w", config.ValidationError{Errors: []config.FieldError{{Field: "retry.jitter", Message: "bad"}}}),
			want: ExitUsage,
		},
		{
			name: "provider config",
			err:  NewCommandError("run", &providers.ConfigError{Provider: "openai", Field: "api_key", Message: "missing"}),
			want: ExitUsage,
		},
		{name: "runtime failure", err: NewCommandError("run", errors.New("disk full")), want: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
