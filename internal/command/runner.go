// Package command runs external programs behind an interface so callers can
// be tested without touching the host.
package command

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external programs.
type Runner interface {
	// Run executes name with args and returns its combined output. A non-zero
	// exit status is returned as an error that includes the trimmed output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)

	// Has reports whether name resolves to an executable on PATH.
	Has(name string) bool
}

type execRunner struct{}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, fmt.Errorf("command: %s %s: %s: %w", name, strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return output, nil
}

func (execRunner) Has(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
