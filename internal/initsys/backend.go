// Package initsys adapts service registration and control to systemd and to
// SysV-style init scripts.
package initsys

import (
	"context"
	"errors"
	"os"
	"time"
)

// DefaultRestartPause is the pause between stop and start on a legacy restart.
const DefaultRestartPause = time.Second

// Kind identifies the init system that manages the service on this host.
type Kind int

const (
	// KindLegacy is a SysV-style /etc/init.d script with a PID file.
	KindLegacy Kind = iota
	// KindSystemd is the systemd unit supervisor.
	KindSystemd
)

func (k Kind) String() string {
	if k == KindSystemd {
		return "systemd"
	}
	return "sysvinit"
}

// Detect probes once for the systemd runtime marker directory.
func Detect(markerDir string) Kind {
	if info, err := os.Stat(markerDir); err == nil && info.IsDir() {
		return KindSystemd
	}
	return KindLegacy
}

var (
	// ErrAlreadyRunning is reported when a legacy start finds a live PID.
	ErrAlreadyRunning = errors.New("initsys: service already running")

	// ErrNoBootSequencer is reported when neither update-rc.d nor chkconfig exists.
	ErrNoBootSequencer = errors.New("initsys: no boot sequencer (update-rc.d or chkconfig) found")
)

// Config holds the paths the backends read and write.
type Config struct {
	ServiceName  string
	BinaryPath   string
	UnitFilePath string
	ScriptPath   string
	PIDFilePath  string

	// RestartPause is the pause between stop and start on a legacy restart.
	// Default: 1s
	RestartPause time.Duration
}

// Backend is the common surface of both init systems. Mutating operations
// are idempotent and report through Result so that callers can tell degraded
// outcomes from fatal ones.
type Backend interface {
	Kind() Kind

	// WriteDefinition writes the unit file or init script. Overwrites are allowed.
	WriteDefinition() Result

	// Enable registers the service to start on boot.
	Enable(ctx context.Context) Result

	// Disable removes the boot registration.
	Disable(ctx context.Context) Result

	Start(ctx context.Context) Result
	Stop(ctx context.Context) Result

	// IsRunning reports whether the service is currently active.
	IsRunning(ctx context.Context) bool
}

// Set holds both backends plus the detected active kind. Uninstall needs
// both regardless of which one is active.
type Set struct {
	Kind    Kind
	Systemd *Systemd
	Legacy  *Legacy
}

// Active returns the backend selected by Kind.
func (s *Set) Active() Backend {
	if s.Kind == KindSystemd {
		return s.Systemd
	}
	return s.Legacy
}
