// Package privilege gates mutating operations on elevated privileges.
package privilege

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrNotPrivileged is returned when the effective identity is not root.
var ErrNotPrivileged = errors.New("privilege: root privileges required")

// Checker abstracts privilege checking for testability.
type Checker interface {
	// IsPrivileged returns true if the process runs with an effective UID of 0.
	IsPrivileged() bool
}

// Guard rejects operations when the Checker reports an unprivileged identity.
type Guard struct {
	checker Checker
}

// NewGuard returns a Guard backed by checker.
func NewGuard(checker Checker) *Guard {
	return &Guard{checker: checker}
}

// Require returns an error wrapping ErrNotPrivileged if the current identity
// may not perform op. It has no side effects.
func (g *Guard) Require(op string) error {
	if !g.checker.IsPrivileged() {
		return fmt.Errorf("%s: %w", op, ErrNotPrivileged)
	}
	return nil
}

type euidChecker struct{}

// NewChecker returns a Checker that inspects the real effective UID.
func NewChecker() Checker {
	return euidChecker{}
}

func (euidChecker) IsPrivileged() bool {
	return unix.Geteuid() == 0
}
