package handlers

import (
	"context"
	"fmt"

	"github.com/hubward/hubward/internal/provisioning"
	"github.com/hubward/hubward/internal/session"
	"github.com/hubward/hubward/internal/supervisor"
)

// Factory function variables for services - can be replaced in tests.
var (
	// deployServices registers services under the hub's supervisor.
	deployServices = supervisor.Deploy
)

// ServicesDeploy renders the configured services into a supervisor
// ecosystem file, uploads it to the hub's installation directory, and
// registers it with pm2.
func ServicesDeploy(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Hub.Host == "" {
		return fmt.Errorf("no hub host configured: create a config with 'hubward init'")
	}
	if len(cfg.Services) == 0 {
		return fmt.Errorf("no services configured: add a services section to the config")
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

	dir := provisioning.TargetDir(cfg.Setup.TargetBasePath, cfg.Source.Repo)
	if err := deployServices(ctx, sess, dir, cfg.Services); err != nil {
		return err
	}

	fmt.Printf("Registered %d service(s) with the supervisor in %s\n", len(cfg.Services), dir)
	return nil
}
