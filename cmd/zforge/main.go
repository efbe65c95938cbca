// Package main is the entry point for the zforge CLI.
package main

import (
	"os"

	"github.com/zamaforge/zforge/internal/cli"
)

// Set by -ldflags at build time.
//
//nolint:gochecknoglobals // link-time variables
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	cli.SetBuildInfo(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
