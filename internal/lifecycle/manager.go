package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/INNERJOINT/svcctl/internal/fsutil"
	"github.com/INNERJOINT/svcctl/internal/initsys"
	"github.com/INNERJOINT/svcctl/internal/privilege"
	"github.com/INNERJOINT/svcctl/internal/procutil"
)

// ArtifactFetcher downloads the service binary and promotes it atomically.
type ArtifactFetcher interface {
	FetchAndPromote(ctx context.Context, url, staged, live string) error
}

// Manager drives the service between absent, installed-stopped and
// installed-running. It holds no lock: concurrent invocations on one host
// are not supported.
type Manager struct {
	cfg      Config
	guard    *privilege.Guard
	fetcher  ArtifactFetcher
	backends *initsys.Set
	procs    procutil.Table
	logger   *slog.Logger
}

// NewManager creates a Manager with defaults applied to cfg.
func NewManager(cfg Config, guard *privilege.Guard, fetcher ArtifactFetcher, backends *initsys.Set, procs procutil.Table, logger *slog.Logger) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		cfg:      cfg,
		guard:    guard,
		fetcher:  fetcher,
		backends: backends,
		procs:    procs,
		logger:   logger.With("component", "lifecycle", "service", cfg.ServiceName),
	}
}

// Report is a read-only snapshot of the service state on the host.
type Report struct {
	InitSystem      initsys.Kind
	BinaryInstalled bool
	UnitInstalled   bool
	ScriptInstalled bool
	Running         bool
}

// Install fetches the binary, writes both the systemd unit and the init
// script, then enables and starts the service through the active backend.
// Enable and start failures are logged and do not fail the install.
func (m *Manager) Install(ctx context.Context) error {
	// 1. Check privileges
	if err := m.guard.Require("install"); err != nil {
		return err
	}
	m.logger.Info("installing service", "init_system", m.backends.Kind)

	// 2. Check installation root
	if info, err := os.Stat(m.cfg.InstallRoot); err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInstallRootMissing, m.cfg.InstallRoot)
	}
	if err := m.cfg.ValidateDownloadURL(); err != nil {
		return err
	}

	// 3. Fetch binary
	if err := m.fetcher.FetchAndPromote(ctx, m.cfg.DownloadURL, m.cfg.StagingPath, m.cfg.BinaryPath); err != nil {
		return fmt.Errorf("lifecycle: install: %w", err)
	}

	// 4. Write both definitions; uninstall relies on finding either.
	if err := m.apply(m.backends.Systemd.WriteDefinition()); err != nil {
		return err
	}
	if err := m.apply(m.backends.Legacy.WriteDefinition()); err != nil {
		return err
	}

	// 5. Enable and start
	active := m.backends.Active()
	if err := m.apply(active.Enable(ctx)); err != nil {
		return err
	}
	if err := m.apply(active.Start(ctx)); err != nil {
		return err
	}

	m.reportRunning(ctx, active)
	return nil
}

// Update stops the service, replaces the binary atomically and starts it
// again. It does not require a prior install.
func (m *Manager) Update(ctx context.Context) error {
	if err := m.guard.Require("update"); err != nil {
		return err
	}
	if err := m.cfg.ValidateDownloadURL(); err != nil {
		return err
	}
	m.logger.Info("updating service", "init_system", m.backends.Kind)

	active := m.backends.Active()
	if err := m.apply(active.Stop(ctx)); err != nil {
		return err
	}

	if err := m.fetcher.FetchAndPromote(ctx, m.cfg.DownloadURL, m.cfg.StagingPath, m.cfg.BinaryPath); err != nil {
		// The live binary is untouched; bring the previous version back up.
		if fsutil.Exists(m.cfg.BinaryPath) {
			m.logger.Warn("update failed, restarting previous binary", "error", err)
			if startErr := m.apply(active.Start(ctx)); startErr != nil {
				m.logger.Error("restart previous binary", "error", startErr)
			}
		}
		return fmt.Errorf("lifecycle: update: %w", err)
	}

	if err := m.apply(active.Start(ctx)); err != nil {
		return err
	}

	m.reportRunning(ctx, active)
	return nil
}

// Uninstall stops and deregisters the service on both backends, kills any
// process still running the binary, and removes every artifact. Missing
// artifacts are not errors.
func (m *Manager) Uninstall(ctx context.Context) error {
	if err := m.guard.Require("uninstall"); err != nil {
		return err
	}
	m.logger.Info("uninstalling service", "init_system", m.backends.Kind)

	// 1. Stop and disable via systemd
	if m.backends.Kind == initsys.KindSystemd {
		m.absorb(m.backends.Systemd.Stop(ctx))
		m.absorb(m.backends.Systemd.Disable(ctx))
	}

	// 2. Stop and deregister the init script
	if m.backends.Legacy.ScriptInstalled() {
		m.absorb(m.backends.Legacy.Stop(ctx))
		m.absorb(m.backends.Legacy.Disable(ctx))
	}

	// 3. Kill processes started outside either backend
	m.killStrays()

	// 4. Remove artifacts
	for _, path := range []string{
		m.cfg.BinaryPath,
		m.cfg.StagingPath,
		m.cfg.UnitFilePath,
		m.cfg.ScriptPath,
		m.cfg.PIDFilePath,
	} {
		removed, err := fsutil.RemoveIfExists(path)
		switch {
		case err != nil:
			m.logger.Warn("remove artifact", "path", path, "error", err)
		case removed:
			m.logger.Info("artifact removed", "path", path)
		default:
			m.logger.Debug("artifact already absent", "path", path)
		}
	}

	// 5. Reload unit cache
	if m.backends.Kind == initsys.KindSystemd {
		m.absorb(m.backends.Systemd.DaemonReload(ctx))
	}

	m.logger.Info("service uninstalled")
	return nil
}

// Status reports the observed service state. It requires no privileges.
func (m *Manager) Status(ctx context.Context) Report {
	return Report{
		InitSystem:      m.backends.Kind,
		BinaryInstalled: fsutil.Exists(m.cfg.BinaryPath),
		UnitInstalled:   fsutil.Exists(m.cfg.UnitFilePath),
		ScriptInstalled: m.backends.Legacy.ScriptInstalled(),
		Running:         m.backends.Active().IsRunning(ctx),
	}
}

func (m *Manager) killStrays() {
	name := filepath.Base(m.cfg.BinaryPath)
	pids, err := m.procs.FindByName(name)
	if err != nil {
		m.logger.Warn("scan for stray processes", "error", err)
		return
	}
	for _, pid := range pids {
		if err := m.procs.Signal(pid, syscall.SIGKILL); err != nil {
			m.logger.Warn("kill stray process", "pid", pid, "error", err)
			continue
		}
		m.logger.Info("stray process killed", "pid", pid, "name", name)
	}
}

func (m *Manager) reportRunning(ctx context.Context, active initsys.Backend) {
	if active.IsRunning(ctx) {
		m.logger.Info("service running", "init_system", active.Kind())
		return
	}
	m.logger.Warn("service installed but not running", "init_system", active.Kind())
}

// apply logs a backend result and turns fatal results into errors.
func (m *Manager) apply(res initsys.Result) error {
	switch res.Status {
	case initsys.StatusOK:
		m.logger.Info(res.Message, "op", res.Op)
	case initsys.StatusDegraded:
		m.logger.Warn("step degraded", "op", res.Op, "error", res.Err)
	default:
		m.logger.Error("step failed", "op", res.Op, "error", res.Err)
		return fmt.Errorf("lifecycle: %s: %w", res.Op, res.Err)
	}
	return nil
}

// absorb is apply for teardown steps, where nothing aborts.
func (m *Manager) absorb(res initsys.Result) {
	if err := m.apply(res); err != nil {
		m.logger.Warn("continuing uninstall", "error", err)
	}
}
