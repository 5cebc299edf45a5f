// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the hubward CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hubward",
		Short: "Provision hub devices over SSH",
	}

	// Core commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Provision())
	cmd.AddCommand(Doctor())

	// Post-setup commands
	cmd.AddCommand(Services())
	cmd.AddCommand(Network())

	// Utility commands
	cmd.AddCommand(Keys())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
