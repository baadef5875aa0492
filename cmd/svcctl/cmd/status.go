package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/INNERJOINT/svcctl/internal/lifecycle"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the installed state of the service",
	Args:  noArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	mgr, err := setup(cmd, "status", false)
	if err != nil {
		return err
	}
	printReport(cmd.OutOrStdout(), mgr.Status(context.Background()))
	return nil
}

func printReport(w io.Writer, r lifecycle.Report) {
	fmt.Fprintf(w, "init system: %s\n", r.InitSystem)
	fmt.Fprintf(w, "binary:      %s\n", presence(r.BinaryInstalled))
	fmt.Fprintf(w, "unit file:   %s\n", presence(r.UnitInstalled))
	fmt.Fprintf(w, "init script: %s\n", presence(r.ScriptInstalled))
	if r.Running {
		fmt.Fprintln(w, "state:       running")
	} else {
		fmt.Fprintln(w, "state:       stopped")
	}
}

func presence(ok bool) string {
	if ok {
		return "installed"
	}
	return "absent"
}
