package commands

import (
	"github.com/spf13/cobra"

	"github.com/hubward/hubward/cmd/hubward/handlers"
)

// Keys returns the parent command for SSH key management.
func Keys() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage SSH keys for hub access",
	}

	cmd.AddCommand(keysGenerate())

	return cmd
}

func keysGenerate() *cobra.Command {
	var (
		outputPath string
		bits       int
		comment    string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an SSH key pair for hub access",
		Long: `Generate an RSA key pair for authenticating to hubs.

The private key is written to the output path with mode 0600 and the
public key next to it with a .pub suffix. Add the public key to the
hub's authorized_keys and point private_key_file in hubward.yaml at
the private key.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.KeysGenerate(cmd.Context(), outputPath, bits, comment)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "hubward_rsa", "Private key output path")
	cmd.Flags().IntVar(&bits, "bits", 0, "RSA key size (default 4096)")
	cmd.Flags().StringVar(&comment, "comment", "hubward", "Comment appended to the public key")

	return cmd
}
