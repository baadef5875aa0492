// Package lifecycle installs, updates and removes the managed service.
package lifecycle

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/INNERJOINT/svcctl/internal/fetch"
	"github.com/INNERJOINT/svcctl/internal/initsys"
)

// DefaultServiceName is the default service name.
const DefaultServiceName = "svcagent"

// DefaultBinaryDir is the default directory for the service binary.
const DefaultBinaryDir = "/usr/local/bin"

// DefaultUnitDir is the default directory for the systemd unit file.
const DefaultUnitDir = "/etc/systemd/system"

// DefaultScriptDir is the default directory for the init script.
const DefaultScriptDir = "/etc/init.d"

// DefaultPIDDir is the default directory for the PID file.
const DefaultPIDDir = "/var/run"

// DefaultSystemdMarkerDir exists only on hosts booted with systemd.
const DefaultSystemdMarkerDir = "/run/systemd/system"

// DefaultProcRoot is the default proc filesystem mount point.
const DefaultProcRoot = "/proc"

// DefaultLogLevel is the default log level.
const DefaultLogLevel = "info"

// stagingSuffix names the staged download next to the live binary.
const stagingSuffix = ".download"

// Config holds every host path the manager touches. It is built once and
// passed by value to each component so tests can point it at a sandbox.
type Config struct {
	// ServiceName names the unit, init script and PID file.
	// Default: svcagent
	ServiceName string `yaml:"service_name"`

	// DownloadURL is the HTTPS location of the service executable.
	// Required for install and update.
	DownloadURL string `yaml:"download_url"`

	// BinaryPath is the live service executable.
	// Default: /usr/local/bin/<service_name>
	BinaryPath string `yaml:"binary_path"`

	// StagingPath receives downloads before they are renamed over BinaryPath.
	// It must be on the same filesystem as BinaryPath.
	// Default: <binary_path>.download
	StagingPath string `yaml:"staging_path"`

	// InstallRoot must exist before install proceeds.
	// Default: directory of BinaryPath
	InstallRoot string `yaml:"install_root"`

	// UnitFilePath is the systemd unit file.
	// Default: /etc/systemd/system/<service_name>.service
	UnitFilePath string `yaml:"unit_file_path"`

	// ScriptPath is the SysV init script.
	// Default: /etc/init.d/<service_name>
	ScriptPath string `yaml:"script_path"`

	// PIDFilePath is the PID file used by the init script.
	// Default: /var/run/<service_name>.pid
	PIDFilePath string `yaml:"pid_file_path"`

	// SystemdMarkerDir selects systemd when it exists.
	// Default: /run/systemd/system
	SystemdMarkerDir string `yaml:"systemd_marker_dir"`

	// ProcRoot is the proc filesystem used to find stray processes.
	// Default: /proc
	ProcRoot string `yaml:"proc_root"`

	// RestartPause is the pause between stop and start on a legacy restart.
	// Default: 1s
	RestartPause time.Duration `yaml:"restart_pause"`

	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: info
	LogLevel string `yaml:"log_level"`

	Fetch fetch.Config `yaml:"fetch"`
}

// ApplyDefaults sets default values for zero-valued fields. Paths derive
// from ServiceName and BinaryPath, so those are resolved first.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.BinaryPath == "" {
		c.BinaryPath = filepath.Join(DefaultBinaryDir, c.ServiceName)
	}
	if c.StagingPath == "" {
		c.StagingPath = c.BinaryPath + stagingSuffix
	}
	if c.InstallRoot == "" {
		c.InstallRoot = filepath.Dir(c.BinaryPath)
	}
	if c.UnitFilePath == "" {
		c.UnitFilePath = filepath.Join(DefaultUnitDir, c.ServiceName+".service")
	}
	if c.ScriptPath == "" {
		c.ScriptPath = filepath.Join(DefaultScriptDir, c.ServiceName)
	}
	if c.PIDFilePath == "" {
		c.PIDFilePath = filepath.Join(DefaultPIDDir, c.ServiceName+".pid")
	}
	if c.SystemdMarkerDir == "" {
		c.SystemdMarkerDir = DefaultSystemdMarkerDir
	}
	if c.ProcRoot == "" {
		c.ProcRoot = DefaultProcRoot
	}
	if c.RestartPause == 0 {
		c.RestartPause = initsys.DefaultRestartPause
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Fetch.ApplyDefaults()
}

// Validate checks that required fields are set. DownloadURL is checked
// separately because uninstall and status do not need it.
func (c *Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"ServiceName", c.ServiceName},
		{"BinaryPath", c.BinaryPath},
		{"StagingPath", c.StagingPath},
		{"InstallRoot", c.InstallRoot},
		{"UnitFilePath", c.UnitFilePath},
		{"ScriptPath", c.ScriptPath},
		{"PIDFilePath", c.PIDFilePath},
		{"SystemdMarkerDir", c.SystemdMarkerDir},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("lifecycle: config: %s is required", f.name)
		}
	}
	if filepath.Base(c.ServiceName) != c.ServiceName {
		return fmt.Errorf("lifecycle: config: invalid service name %q", c.ServiceName)
	}
	if filepath.Dir(c.StagingPath) != filepath.Dir(c.BinaryPath) {
		return errors.New("lifecycle: config: StagingPath must be in the same directory as BinaryPath")
	}
	if c.RestartPause < 0 {
		return errors.New("lifecycle: config: RestartPause must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("lifecycle: config: invalid log level %q", c.LogLevel)
	}
	return c.Fetch.Validate()
}

// ValidateDownloadURL checks that DownloadURL is an absolute HTTPS URL.
func (c *Config) ValidateDownloadURL() error {
	if c.DownloadURL == "" {
		return ErrMissingDownloadURL
	}
	u, err := url.Parse(c.DownloadURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDownloadURL, err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: %q is not an https URL", ErrInvalidDownloadURL, c.DownloadURL)
	}
	return nil
}

// InitConfig returns the subset of paths the init backends need.
func (c *Config) InitConfig() initsys.Config {
	return initsys.Config{
		ServiceName:  c.ServiceName,
		BinaryPath:   c.BinaryPath,
		UnitFilePath: c.UnitFilePath,
		ScriptPath:   c.ScriptPath,
		PIDFilePath:  c.PIDFilePath,
		RestartPause: c.RestartPause,
	}
}

// envFileName is read from the config file's directory when present.
const envFileName = ".env"

// ParseConfig reads a YAML config file, applies defaults and validates it.
// ${VAR} references are expanded from a .env file next to the config, then
// from the process environment.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: config: read %s: %w", path, err)
	}
	env, err := readEnvFile(filepath.Join(filepath.Dir(path), envFileName))
	if err != nil {
		return nil, err
	}
	expanded := os.Expand(string(data), func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("lifecycle: config: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// readEnvFile parses a dotenv file without touching the process environment.
// A missing file yields an empty map.
func readEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lifecycle: config: read %s: %w", path, err)
	}
	return env, nil
}
