// Package main is the entry point for the hubward CLI.
//
// hubward provisions headless hub devices over SSH: it connects to a
// freshly imaged machine, downloads the hub software archive, installs
// dependencies and runs the setup script, reporting progress as it goes.
//
// Commands: init, provision, doctor, services, network, keys.
//
// For detailed usage information, run:
//
//	hubward --help
package main

import (
	"fmt"
	"os"

	"github.com/hubward/hubward/cmd/hubward/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
