package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubward/hubward/cmd/hubward/handlers"
)

// Doctor returns the command for diagnosing a hub before provisioning.
//
// Flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect hubward.yaml)
//	--json: Output the report as JSON
func Doctor() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check a hub's readiness for provisioning",
		Long: `Check a hub's readiness for provisioning.

This command waits for the hub's SSH port, connects, and probes for the
tools the setup pipeline depends on (tar, node, npm, docker, and a
download tool). It exits non-zero when a required tool is missing, with
an installation hint for each.

Examples:
  # Check the hub from hubward.yaml
  hubward doctor

  # Machine-readable report
  hubward doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: hubward.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")

	return cmd
}
