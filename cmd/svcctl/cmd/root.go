// Package cmd implements the svcctl CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	logLevel    string
	downloadURL string
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("svcctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "svcctl",
	Short: "svcctl manages the lifecycle of a single system service",
	Long: "svcctl installs, updates and removes one named service on a Linux host.\n" +
		"It fetches the service binary over HTTPS, registers it with systemd or a\n" +
		"SysV init script, and keeps the host in a consistent state across runs.\n" +
		"Without a sub-command it runs install.",
	Args:          noArgs,
	RunE:          runInstall,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; overrides config)")
	rootCmd.PersistentFlags().StringVar(&downloadURL, "url", "", "HTTPS download URL of the service binary (overrides config)")
	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return newUsageError(c, err)
	})

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("svcctl version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// noArgs rejects positional arguments, which also covers unknown sub-commands.
func noArgs(c *cobra.Command, args []string) error {
	if len(args) > 0 {
		return newUsageError(c, fmt.Errorf("unknown command or argument %q", args[0]))
	}
	return nil
}

// Execute runs the root command. Errors are printed to stderr, followed by
// the usage text when the invocation itself was malformed.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrln("Error:", err)
		if u, ok := asUsageError(err); ok {
			rootCmd.PrintErr(u.cmd.UsageString())
		}
	}
	return err
}
