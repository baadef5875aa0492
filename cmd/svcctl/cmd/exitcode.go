package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/INNERJOINT/svcctl/internal/fetch"
	"github.com/INNERJOINT/svcctl/internal/lifecycle"
	"github.com/INNERJOINT/svcctl/internal/privilege"
)

// Process exit codes. Callers script against these values.
const (
	ExitOK              = 0
	ExitNotPrivileged   = 1
	ExitUsage           = 2
	ExitInstallRootMiss = 3
	ExitFetchFailed     = 4
	ExitFailure         = 5
)

// usageError marks a malformed invocation.
type usageError struct {
	cmd *cobra.Command
	err error
}

func newUsageError(c *cobra.Command, err error) error {
	return &usageError{cmd: c, err: err}
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func asUsageError(err error) (*usageError, bool) {
	var u *usageError
	ok := errors.As(err, &u)
	return u, ok
}

// ExitCode maps an error returned by Execute to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if _, ok := asUsageError(err); ok {
		return ExitUsage
	}
	switch {
	case errors.Is(err, privilege.ErrNotPrivileged):
		return ExitNotPrivileged
	case errors.Is(err, lifecycle.ErrMissingDownloadURL),
		errors.Is(err, lifecycle.ErrInvalidDownloadURL):
		return ExitUsage
	case errors.Is(err, lifecycle.ErrInstallRootMissing):
		return ExitInstallRootMiss
	case errors.Is(err, fetch.ErrNoTransport),
		errors.Is(err, fetch.ErrFetchFailed):
		return ExitFetchFailed
	default:
		return ExitFailure
	}
}
