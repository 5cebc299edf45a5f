package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubward/hubward/cmd/hubward/handlers"
)

// Network returns the parent command for managing the hub's container
// network.
func Network() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Manage the hub's container network",
	}

	cmd.AddCommand(networkEnsure())

	return cmd
}

func networkEnsure() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create the configured docker network if it does not exist",
		Long: `Create the configured docker network on the hub if it does not exist.

The network name, driver and subnet come from the network section of
the configuration. Running this command against a hub that already has
the network is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NetworkEnsure(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: hubward.yaml)")

	return cmd
}
