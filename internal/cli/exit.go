package cli

import (
	"context"
	"errors"

	"github.com/Ning0612/mistergen/internal/domain"
)

// Process exit codes
const (
	ExitSuccess       = 0
	ExitUnknown       = 1
	ExitConnection    = 30
	ExitCancelled     = 31
	ExitInvalidConfig = 40
	ExitOutputFailure = 41
	ExitLocked        = 50
)

// ExitCode maps a command error to the process exit code.
// Runs that finish with warnings return nil and exit 0.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ExitCancelled
	case errors.Is(err, domain.ErrConfigInvalid),
		errors.Is(err, domain.ErrConfigNotFound),
		errors.Is(err, domain.ErrInvalidConfiguration):
		return ExitInvalidConfig
	case errors.Is(err, domain.ErrGenerationInProgress):
		return ExitLocked
	case errors.Is(err, domain.ErrConnectionFatal):
		return ExitConnection
	case errors.Is(err, domain.ErrFileWriteFailed):
		return ExitOutputFailure
	default:
		return ExitUnknown
	}
}
