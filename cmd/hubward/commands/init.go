package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubward/hubward/cmd/hubward/handlers"
)

// Init returns the command for interactively creating a hub
// configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "hubward.yaml")
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a hub configuration",
		Long: `Interactively create a hub configuration file.

This command guides you through configuring a hub step by step.
It will ask about:

  - Hub address and SSH account
  - Authentication method (password or private key)
  - Software source (repository owner, name and branch)
  - Installation directory on the hub

Passwords are never written to the file; set HUBWARD_CREDENTIAL in the
environment when provisioning.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "hubward.yaml", "Output file path")

	return cmd
}
