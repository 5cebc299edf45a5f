package handlers

import (
	"context"
	"fmt"

	"github.com/hubward/hubward/internal/config/wizard"
	"github.com/hubward/hubward/internal/util/keygen"
)

// Factory function variables for keys - can be replaced in tests.
var (
	// generateKeyPair creates an RSA key pair.
	generateKeyPair = keygen.GenerateRSAKeyPair

	// keysConfirmOverwrite asks before replacing an existing key.
	keysConfirmOverwrite = wizard.ConfirmOverwrite
)

// KeysGenerate creates an RSA key pair for hub access and writes it to
// disk, asking before overwriting an existing key.
func KeysGenerate(ctx context.Context, outputPath string, bits int, comment string) error {
	if bits == 0 {
		bits = keygen.DefaultBits
	}

	if fileExists(outputPath) {
		ok, err := keysConfirmOverwrite(outputPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	pair, err := generateKeyPair(bits)
	if err != nil {
		return err
	}
	if err := pair.WriteFiles(outputPath, comment); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Key pair generated!")
	fmt.Println()
	fmt.Printf("  Private key: %s\n", outputPath)
	fmt.Printf("  Public key:  %s.pub\n", outputPath)
	fmt.Println()
	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Add the public key to the hub:")
	fmt.Printf("     ssh-copy-id -i %s.pub root@<hub-address>\n", outputPath)
	fmt.Println()
	fmt.Println("  2. Point your configuration at the private key:")
	fmt.Println("     hub:")
	fmt.Printf("       private_key_file: %s\n", outputPath)
	fmt.Println()

	return nil
}
