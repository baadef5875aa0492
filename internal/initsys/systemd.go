package initsys

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/INNERJOINT/svcctl/internal/command"
	"github.com/INNERJOINT/svcctl/internal/fsutil"
)

// Systemd manages the service through a unit file and systemctl.
type Systemd struct {
	cfg    Config
	runner command.Runner
	logger *slog.Logger
}

// NewSystemd creates a Systemd backend.
func NewSystemd(cfg Config, runner command.Runner, logger *slog.Logger) *Systemd {
	return &Systemd{
		cfg:    cfg,
		runner: runner,
		logger: logger.With("component", "systemd"),
	}
}

func (s *Systemd) Kind() Kind { return KindSystemd }

func (s *Systemd) unit() string { return filepath.Base(s.cfg.UnitFilePath) }

func (s *Systemd) WriteDefinition() Result {
	const op = "systemd write unit"
	if err := fsutil.WriteFileAtomic(s.cfg.UnitFilePath, []byte(GenerateUnitFile(s.cfg)), 0o644); err != nil {
		return Fatal(op, err)
	}
	return OK(op, "unit file written: "+s.cfg.UnitFilePath)
}

func (s *Systemd) Enable(ctx context.Context) Result {
	if res := s.DaemonReload(ctx); res.Failed() {
		return res
	}
	return s.systemctl(ctx, "enable", "enable", s.unit())
}

func (s *Systemd) Disable(ctx context.Context) Result {
	if !s.isEnabled(ctx) {
		return OK("systemd disable", "unit not enabled")
	}
	return s.systemctl(ctx, "disable", "disable", s.unit())
}

func (s *Systemd) Start(ctx context.Context) Result {
	return s.systemctl(ctx, "start", "start", s.unit())
}

func (s *Systemd) Stop(ctx context.Context) Result {
	if !s.IsRunning(ctx) {
		return OK("systemd stop", "unit not active")
	}
	return s.systemctl(ctx, "stop", "stop", s.unit())
}

// DaemonReload makes systemd re-read unit files.
func (s *Systemd) DaemonReload(ctx context.Context) Result {
	return s.systemctl(ctx, "daemon-reload", "daemon-reload")
}

func (s *Systemd) IsRunning(ctx context.Context) bool {
	_, err := s.runner.Run(ctx, "systemctl", "is-active", "--quiet", s.unit())
	return err == nil
}

func (s *Systemd) isEnabled(ctx context.Context) bool {
	_, err := s.runner.Run(ctx, "systemctl", "is-enabled", "--quiet", s.unit())
	return err == nil
}

// systemctl runs a verb; any failure is degraded since the files are already in place.
func (s *Systemd) systemctl(ctx context.Context, verb string, args ...string) Result {
	op := "systemd " + verb
	if _, err := s.runner.Run(ctx, "systemctl", args...); err != nil {
		return Degraded(op, err)
	}
	return OK(op, "systemctl "+verb+" succeeded")
}
