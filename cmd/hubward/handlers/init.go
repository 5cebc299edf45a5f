package handlers

import (
	"context"
	"fmt"

	"github.com/hubward/hubward/internal/config"
	"github.com/hubward/hubward/internal/config/wizard"
)

// Factory function variables for init - can be replaced in tests.
var (
	// wizardFileExists checks if the output file exists.
	wizardFileExists = wizard.FileExists

	// wizardConfirmOverwrite asks before replacing an existing config.
	wizardConfirmOverwrite = wizard.ConfirmOverwrite

	// wizardRun runs the interactive wizard.
	wizardRun = wizard.Run

	// wizardBuildConfig translates wizard answers into a config.
	wizardBuildConfig = wizard.BuildConfig

	// wizardWriteConfig writes the config to a file.
	wizardWriteConfig = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if wizardFileExists(outputPath) {
		ok, err := wizardConfirmOverwrite(outputPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	printWelcome()

	result, err := wizardRun(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	cfg := wizardBuildConfig(result)
	if err := wizardWriteConfig(cfg, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, result)

	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Println()
	fmt.Println("hubward - hub provisioning over SSH")
	fmt.Println("===================================")
	fmt.Println()
	fmt.Println("This wizard creates a hub configuration with sensible defaults.")
	fmt.Println("Passwords stay out of the file; only connection and source")
	fmt.Println("settings are written.")
	fmt.Println()
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, result *wizard.Result) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Hub Summary")
	fmt.Println("-----------")
	fmt.Printf("  Address:   %s:%d\n", result.Host, result.Port)
	fmt.Printf("  Principal: %s\n", result.Principal)
	if result.AuthMethod == wizard.AuthKey {
		fmt.Printf("  Auth:      private key (%s)\n", result.PrivateKeyFile)
	} else {
		fmt.Printf("  Auth:      password via %s\n", config.CredentialEnvVar)
	}
	fmt.Printf("  Source:    %s/%s@%s\n", result.SourceOwner, result.SourceRepo, result.SourceBranch)
	fmt.Printf("  Install:   %s\n", result.TargetBasePath)
	fmt.Println()

	fmt.Println("Next Steps")
	fmt.Println("----------")
	step := 1
	if result.AuthMethod == wizard.AuthPassword {
		fmt.Printf("  %d. Set the hub password:\n", step)
		fmt.Printf("     export %s=<password>\n", config.CredentialEnvVar)
		fmt.Println()
		step++
	}
	fmt.Printf("  %d. Check the hub is ready:\n", step)
	fmt.Printf("     hubward doctor -c %s\n", outputPath)
	fmt.Println()
	step++
	fmt.Printf("  %d. Provision it:\n", step)
	fmt.Printf("     hubward provision -c %s\n", outputPath)
	fmt.Println()
}
