package main

import (
	"os"

	"github.com/matthewsawatzky/themekit/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := cli.NewRootCmd(cli.VersionInfo{Version: version, Commit: commit, Date: date})
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
