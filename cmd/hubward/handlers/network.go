package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubward/hubward/internal/config"
	"github.com/hubward/hubward/internal/session"
	"github.com/hubward/hubward/internal/util/shellescape"
)

// NetworkEnsure creates the configured docker network on the hub if it
// does not already exist. The check and the create run over the same
// session, so a second invocation is a no-op.
func NetworkEnsure(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Hub.Host == "" {
		return fmt.Errorf("no hub host configured: create a config with 'hubward init'")
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	timeouts := loadTimeouts()
	req.DialTimeout = timeouts.Dial

	registry := session.NewRegistry(
		session.WithConnectAttempts(timeouts.ConnectAttempts),
		session.WithConnectDelay(timeouts.ConnectDelay),
	)
	defer func() { _ = registry.DisconnectAll() }()

	sess, err := connectHub(ctx, registry, req)
	if err != nil {
		return err
	}

	name := cfg.Network.Name
	result, err := sess.Run(ctx, inspectNetworkCommand(name))
	if err != nil {
		return fmt.Errorf("failed to inspect network %s: %w", name, err)
	}
	if result.ExitCode == 0 {
		fmt.Printf("Network %s already exists\n", name)
		return nil
	}

	result, err = sess.Run(ctx, createNetworkCommand(cfg.Network))
	if err != nil {
		return fmt.Errorf("failed to create network %s: %w", name, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("failed to create network %s (exit code %d): %s",
			name, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	fmt.Printf("Created network %s (driver %s)\n", name, cfg.Network.Driver)
	return nil
}

func inspectNetworkCommand(name string) string {
	return fmt.Sprintf("docker network inspect %s >/dev/null 2>&1", shellescape.Quote(name))
}

func createNetworkCommand(net config.NetworkConfig) string {
	parts := []string{"docker network create", "--driver", shellescape.Quote(net.Driver)}
	if net.Subnet != "" {
		parts = append(parts, "--subnet", shellescape.Quote(net.Subnet))
	}
	parts = append(parts, shellescape.Quote(net.Name))
	return strings.Join(parts, " ")
}
