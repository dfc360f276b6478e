// Package main provides the entry point for the talecache CLI.
package main

import (
	"os"

	"github.com/talecache/talecache/internal/cli"
)

// Build information set via ldflags
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
