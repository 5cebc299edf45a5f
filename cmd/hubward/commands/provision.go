package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubward/hubward/cmd/hubward/handlers"
)

// Provision returns the command for running the setup pipeline against
// a hub.
//
// Connection parameters come from the configuration file, with flags
// overriding individual fields. The credential is read from the
// HUBWARD_CREDENTIAL environment variable or the config file.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect hubward.yaml)
//	--host: Hub address, overriding the config file
//	--plain: Line-oriented output instead of the dashboard
func Provision() *cobra.Command {
	var opts handlers.ProvisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Set up a hub over SSH",
		Long: `Set up a hub device over SSH.

This command connects to the hub, downloads the software archive,
installs dependencies and runs the setup script. Progress is shown on
an interactive dashboard when stdout is a terminal; use --plain for
line-oriented output suitable for logs.

If no config file is specified, it looks for hubward.yaml in the
current directory. Use 'hubward init' to create one.

Examples:
  # Provision using hubward.yaml in the current directory
  hubward provision

  # Provision using a specific config file
  hubward provision -c office-hub.yaml

  # Provision an ad-hoc hub without a config file
  HUBWARD_CREDENTIAL=secret hubward provision --host 10.1.4.215 --principal root`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Provision(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: hubward.yaml)")
	cmd.Flags().StringVar(&opts.Host, "host", "", "Hub address, overriding the config file")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "SSH port, overriding the config file")
	cmd.Flags().StringVar(&opts.Principal, "principal", "", "SSH user, overriding the config file")
	cmd.Flags().StringVar(&opts.SourceOwner, "source-owner", "", "Repository owner, overriding the config file")
	cmd.Flags().StringVar(&opts.SourceRepo, "source-repo", "", "Repository name, overriding the config file")
	cmd.Flags().StringVar(&opts.SourceBranch, "branch", "", "Branch to install, overriding the config file")
	cmd.Flags().StringVar(&opts.TargetBasePath, "target", "", "Base directory on the hub, overriding the config file")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Line-oriented output instead of the dashboard")

	return cmd
}
