package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop the service and remove every installed artifact",
	Args:  noArgs,
	RunE:  runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, _ []string) error {
	mgr, err := setup(cmd, "uninstall", true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := mgr.Uninstall(ctx); err != nil {
		return fmt.Errorf("svcctl uninstall: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "service uninstalled successfully")
	return nil
}
