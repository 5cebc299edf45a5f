package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubward/hubward/cmd/hubward/handlers"
)

// Services returns the parent command for managing hub services.
func Services() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage long-running services on a hub",
	}

	cmd.AddCommand(servicesDeploy())

	return cmd
}

func servicesDeploy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Register the configured services under the process supervisor",
		Long: `Register the configured services under the hub's process supervisor.

This command renders the services section of the configuration into a
pm2 ecosystem file, uploads it to the hub's installation directory, and
registers it so the services survive reboots.

The hub must already be provisioned; run 'hubward provision' first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ServicesDeploy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: hubward.yaml)")

	return cmd
}
