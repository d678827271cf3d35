package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// version is set by the build.
var version = "dev"

func main() {
	cmd := &cli.Command{
		Name:    "nexus",
		Usage:   "project file-versioning and collaboration service",
		Version: version,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			workerCmd(),
			retentionCmd(),
		},
		DefaultCommand: "serve",
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
