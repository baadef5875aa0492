package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/INNERJOINT/svcctl/internal/command"
	"github.com/INNERJOINT/svcctl/internal/fetch"
	"github.com/INNERJOINT/svcctl/internal/initsys"
	"github.com/INNERJOINT/svcctl/internal/lifecycle"
	"github.com/INNERJOINT/svcctl/internal/privilege"
	"github.com/INNERJOINT/svcctl/internal/procutil"
)

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig() (*lifecycle.Config, error) {
	cfg := &lifecycle.Config{}
	if cfgFile != "" {
		parsed, err := lifecycle.ParseConfig(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}
	if downloadURL != "" {
		cfg.DownloadURL = downloadURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newManager wires the host implementations behind the lifecycle manager.
// The init system is probed once here and never again during the run.
func newManager(cfg *lifecycle.Config, logger *slog.Logger) (*lifecycle.Manager, error) {
	runner := command.NewRunner()
	procs := procutil.NewTable(cfg.ProcRoot)

	fetcher, err := fetch.New(cfg.Fetch, runner, logger)
	if err != nil {
		return nil, err
	}

	initCfg := cfg.InitConfig()
	backends := &initsys.Set{
		Kind:    initsys.Detect(cfg.SystemdMarkerDir),
		Systemd: initsys.NewSystemd(initCfg, runner, logger),
		Legacy:  initsys.NewLegacy(initCfg, runner, procs, procutil.NewLauncher(), logger),
	}

	guard := privilege.NewGuard(hostChecker)
	return lifecycle.NewManager(*cfg, guard, fetcher, backends, procs, logger), nil
}

// hostChecker decides whether mutating sub-commands may run.
var hostChecker = privilege.NewChecker()

// setup checks privileges for mutating sub-commands, then loads config and
// builds the manager. A config that fails to load or validate is reported as
// a usage error of c.
func setup(c *cobra.Command, name string, mutating bool) (*lifecycle.Manager, error) {
	if mutating {
		if err := privilege.NewGuard(hostChecker).Require(name); err != nil {
			return nil, fmt.Errorf("svcctl %s: %w", name, err)
		}
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, newUsageError(c, fmt.Errorf("svcctl %s: %w", name, err))
	}
	mgr, err := newManager(cfg, setupLogger(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("svcctl %s: %w", name, err)
	}
	return mgr, nil
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
