package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yaklabco/trackmcp/internal/configloader"
	"github.com/yaklabco/trackmcp/pkg/fsutil"
)

// Exit codes for trackmcp.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitError indicates the command ran and failed.
	ExitError = 1

	// ExitUsage indicates invalid command-line usage.
	ExitUsage = 64

	// ExitConfigError indicates configuration file errors.
	ExitConfigError = 65

	// ExitIOError indicates file I/O errors.
	ExitIOError = 74
)

// ErrUsage marks errors caused by bad arguments or flags.
var ErrUsage = errors.New("invalid usage")

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	var validation *configloader.ValidationError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.As(err, &validation):
		return ExitConfigError
	case errors.Is(err, fsutil.ErrNotFound), errors.Is(err, fsutil.ErrPermissionDenied),
		errors.Is(err, fsutil.ErrIsDirectory):
		return ExitIOError
	default:
		return ExitError
	}
}

// usageArgs marks positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		return nil
	}
}

func flagError(_ *cobra.Command, err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}
