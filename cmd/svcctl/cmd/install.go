package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Fetch the service binary, register it and start it",
	Args:  noArgs,
	RunE:  runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, _ []string) error {
	mgr, err := setup(cmd, "install", true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := mgr.Install(ctx); err != nil {
		return fmt.Errorf("svcctl install: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "service installed successfully")
	return nil
}
