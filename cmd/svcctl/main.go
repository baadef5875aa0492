// Package main is the entry point for the svcctl binary.
package main

import (
	"os"

	"github.com/INNERJOINT/svcctl/cmd/svcctl/cmd"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, date)
	os.Exit(cmd.ExitCode(cmd.Execute()))
}
