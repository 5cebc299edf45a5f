// Package wizard implements the interactive `hubward init` flow.
package wizard

import (
	"context"
	"fmt"
)

// Auth method choices offered by the wizard. The password itself is
// never collected; it stays in the environment.
const (
	AuthPassword = "password"
	AuthKey      = "key"
)

// Result holds all the answers from the interactive wizard.
type Result struct {
	// Hub identity
	Host      string
	Port      int
	Principal string

	// Authentication
	AuthMethod     string
	PrivateKeyFile string

	// Archive source
	SourceOwner  string
	SourceRepo   string
	SourceBranch string

	// Install target
	TargetBasePath string
}

// Run walks the operator through the configuration questions.
// The context is used for cancellation support (e.g., Ctrl+C).
func Run(ctx context.Context) (*Result, error) {
	result := &Result{
		Port:           22,
		Principal:      "root",
		AuthMethod:     AuthPassword,
		SourceBranch:   "main",
		TargetBasePath: "/opt",
	}

	if err := runHubGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("hub: %w", err)
	}

	if err := runAuthGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("authentication: %w", err)
	}

	if err := runSourceGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	if err := runInstallGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("install: %w", err)
	}

	return result, nil
}
