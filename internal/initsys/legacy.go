package initsys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/INNERJOINT/svcctl/internal/command"
	"github.com/INNERJOINT/svcctl/internal/fsutil"
	"github.com/INNERJOINT/svcctl/internal/procutil"
)

// Legacy manages the service through an init script and a PID file.
type Legacy struct {
	cfg      Config
	runner   command.Runner
	procs    procutil.Table
	launcher procutil.Launcher
	sleep    func(time.Duration)
	logger   *slog.Logger
}

// NewLegacy creates a Legacy backend.
func NewLegacy(cfg Config, runner command.Runner, procs procutil.Table, launcher procutil.Launcher, logger *slog.Logger) *Legacy {
	if cfg.RestartPause == 0 {
		cfg.RestartPause = DefaultRestartPause
	}
	return &Legacy{
		cfg:      cfg,
		runner:   runner,
		procs:    procs,
		launcher: launcher,
		sleep:    time.Sleep,
		logger:   logger.With("component", "sysvinit"),
	}
}

func (l *Legacy) Kind() Kind { return KindLegacy }

func (l *Legacy) name() string { return filepath.Base(l.cfg.ScriptPath) }

func (l *Legacy) WriteDefinition() Result {
	const op = "sysvinit write script"
	if err := fsutil.WriteFileAtomic(l.cfg.ScriptPath, []byte(GenerateInitScript(l.cfg)), 0o755); err != nil {
		return Fatal(op, err)
	}
	return OK(op, "init script written: "+l.cfg.ScriptPath)
}

// ScriptInstalled reports whether the init script exists and is executable.
func (l *Legacy) ScriptInstalled() bool {
	info, err := os.Stat(l.cfg.ScriptPath)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

// Start launches the binary detached and records its PID. It refuses when
// the PID file names a live process; a stale PID file is overwritten.
func (l *Legacy) Start(_ context.Context) Result {
	const op = "sysvinit start"

	pid, exists := l.readPID()
	if exists && l.procs.Alive(pid) {
		return Degraded(op, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid))
	}
	if exists {
		l.logger.Info("stale pid file found, overwriting", "path", l.cfg.PIDFilePath, "pid", pid)
	}

	newPID, err := l.launcher.Launch(l.cfg.BinaryPath)
	if err != nil {
		return Degraded(op, err)
	}
	if err := fsutil.WriteFileAtomic(l.cfg.PIDFilePath, []byte(strconv.Itoa(newPID)+"\n"), 0o644); err != nil {
		return Degraded(op, fmt.Errorf("initsys: write pid file: %w", err))
	}
	return OK(op, fmt.Sprintf("started (pid %d)", newPID))
}

// Stop signals the recorded process and removes the PID file even when the
// signal could not be delivered.
func (l *Legacy) Stop(_ context.Context) Result {
	const op = "sysvinit stop"

	pid, exists := l.readPID()
	if !exists {
		return OK(op, "not running (no pid file)")
	}

	var signalErr error
	if pid > 0 {
		signalErr = l.procs.Signal(pid, syscall.SIGTERM)
	}
	if _, err := fsutil.RemoveIfExists(l.cfg.PIDFilePath); err != nil {
		return Degraded(op, err)
	}
	if signalErr != nil && l.procs.Alive(pid) {
		return Degraded(op, signalErr)
	}
	return OK(op, fmt.Sprintf("stopped (pid %d)", pid))
}

// Restart stops, pauses for RestartPause, and starts again. It matches the
// init script's restart action, which sleeps for the same pause. Update does
// not use it because the binary is replaced between stop and start.
func (l *Legacy) Restart(ctx context.Context) Result {
	if res := l.Stop(ctx); res.Failed() {
		l.logger.Warn("stop before restart failed", "error", res.Err)
	}
	l.sleep(l.cfg.RestartPause)
	return l.Start(ctx)
}

func (l *Legacy) Enable(ctx context.Context) Result {
	switch {
	case l.runner.Has("update-rc.d"):
		return l.run(ctx, "sysvinit enable", "update-rc.d", l.name(), "defaults")
	case l.runner.Has("chkconfig"):
		return l.run(ctx, "sysvinit enable", "chkconfig", "--add", l.name())
	default:
		return Degraded("sysvinit enable", ErrNoBootSequencer)
	}
}

func (l *Legacy) Disable(ctx context.Context) Result {
	switch {
	case l.runner.Has("update-rc.d"):
		return l.run(ctx, "sysvinit disable", "update-rc.d", "-f", l.name(), "remove")
	case l.runner.Has("chkconfig"):
		return l.run(ctx, "sysvinit disable", "chkconfig", "--del", l.name())
	default:
		return Degraded("sysvinit disable", ErrNoBootSequencer)
	}
}

func (l *Legacy) IsRunning(_ context.Context) bool {
	pid, exists := l.readPID()
	return exists && l.procs.Alive(pid)
}

// readPID returns the recorded PID and whether a PID file exists. An
// unparseable file yields pid 0, which is never alive.
func (l *Legacy) readPID() (int, bool) {
	data, err := os.ReadFile(l.cfg.PIDFilePath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("read pid file", "path", l.cfg.PIDFilePath, "error", err)
		}
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		l.logger.Warn("malformed pid file", "path", l.cfg.PIDFilePath)
		return 0, true
	}
	return pid, true
}

func (l *Legacy) run(ctx context.Context, op, name string, args ...string) Result {
	if _, err := l.runner.Run(ctx, name, args...); err != nil {
		return Degraded(op, err)
	}
	return OK(op, name+" succeeded")
}
