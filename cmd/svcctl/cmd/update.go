package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Stop the service, replace its binary and start it again",
	Args:  noArgs,
	RunE:  runUpdate,
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	mgr, err := setup(cmd, "update", true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := mgr.Update(ctx); err != nil {
		return fmt.Errorf("svcctl update: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "service updated successfully")
	return nil
}
