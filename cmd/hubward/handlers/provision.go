// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/hubward/hubward/internal/config"
	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/provisioning"
	"github.com/hubward/hubward/internal/session"
	"github.com/hubward/hubward/internal/source"
	"github.com/hubward/hubward/internal/ui/tui"
)

// ProvisionOptions carries the provision command's flag overrides.
type ProvisionOptions struct {
	ConfigPath string

	Host      string
	Port      int
	Principal string

	SourceOwner    string
	SourceRepo     string
	SourceBranch   string
	TargetBasePath string

	Plain bool
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads config from file.
	loadConfigFile = config.LoadFile

	// loadTimeouts reads the tuning knobs from the environment.
	loadTimeouts = config.LoadTimeouts

	// fileExists checks if a file exists.
	fileExists = func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	// readFile reads a file, for private keys.
	readFile = os.ReadFile

	// isTerminal reports whether stdout is a terminal.
	isTerminal = func() bool { return isatty.IsTerminal(os.Stdout.Fd()) }

	// runDashboard drives a run under the TUI.
	runDashboard = tui.Run

	// newSource builds the archive source from config.
	newSource = buildSource
)

// Provision runs the setup pipeline against the configured hub.
//
// The run is shown on an interactive dashboard when stdout is a
// terminal; --plain or redirection switches to line-oriented console
// output. A non-nil return means the run did not complete and the
// command exits non-zero.
func Provision(ctx context.Context, opts ProvisionOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	applyOverrides(cfg, opts)

	if cfg.Hub.Host == "" {
		return fmt.Errorf("no hub host configured: pass --host or create %s with 'hubward init'", config.DefaultFileName)
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	src, err := newSource(cfg)
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

	runner := provisioning.NewRunner(
		provisioning.RegistryConnector{Registry: registry},
		src,
		provisioning.WithDefaultRef(source.Ref{
			Owner:  cfg.Source.Owner,
			Repo:   cfg.Source.Repo,
			Branch: cfg.Source.Branch,
		}),
		provisioning.WithTargetBasePath(cfg.Setup.TargetBasePath),
		provisioning.WithInstallAttempts(timeouts.InstallAttempts),
	)

	if opts.Plain || !isTerminal() {
		_, err := runner.Run(ctx, req, progress.NewConsoleSink())
		return err
	}

	target := fmt.Sprintf("%s@%s", req.Principal, req.Host)
	return runDashboard(ctx, target, func(ctx context.Context, sink progress.Sink) error {
		_, err := runner.Run(ctx, req, sink)
		return err
	})
}

// loadConfig loads the named config file, falls back to hubward.yaml in
// the current directory, and finally to an empty config with defaults
// and the credential from the environment, so flag-only invocations
// work without a file.
func loadConfig(configPath string) (*config.Config, error) {
	switch {
	case configPath != "":
		return loadConfigFile(configPath)
	case fileExists(config.DefaultFileName):
		return loadConfigFile(config.DefaultFileName)
	default:
		cfg := &config.Config{}
		cfg.Hub.Credential = os.Getenv(config.CredentialEnvVar)
		cfg.ApplyDefaults()
		return cfg, nil
	}
}

func applyOverrides(cfg *config.Config, opts ProvisionOptions) {
	if opts.Host != "" {
		cfg.Hub.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Hub.Port = opts.Port
	}
	if opts.Principal != "" {
		cfg.Hub.Principal = opts.Principal
	}
	if opts.SourceOwner != "" {
		cfg.Source.Owner = opts.SourceOwner
	}
	if opts.SourceRepo != "" {
		cfg.Source.Repo = opts.SourceRepo
	}
	if opts.SourceBranch != "" {
		cfg.Source.Branch = opts.SourceBranch
	}
	if opts.TargetBasePath != "" {
		cfg.Setup.TargetBasePath = opts.TargetBasePath
	}
}

// buildRequest translates the config into a pipeline request, reading
// the private key file when one is configured.
func buildRequest(cfg *config.Config) (provisioning.Request, error) {
	req := provisioning.Request{
		Host:           cfg.Hub.Host,
		Port:           cfg.Hub.Port,
		Principal:      cfg.Hub.Principal,
		Credential:     cfg.Hub.Credential,
		SourceOwner:    cfg.Source.Owner,
		SourceRepo:     cfg.Source.Repo,
		SourceBranch:   cfg.Source.Branch,
		TargetBasePath: cfg.Setup.TargetBasePath,
	}

	if cfg.Hub.PrivateKeyFile != "" {
		key, err := readFile(expandHome(cfg.Hub.PrivateKeyFile))
		if err != nil {
			return provisioning.Request{}, fmt.Errorf("failed to read private key %s: %w", cfg.Hub.PrivateKeyFile, err)
		}
		req.PrivateKey = key
	}

	if req.Credential == "" && len(req.PrivateKey) == 0 {
		return provisioning.Request{}, fmt.Errorf("no credential: set %s or configure hub.private_key_file", config.CredentialEnvVar)
	}

	return req, nil
}

// buildSource picks the archive source: object storage when configured,
// the public GitHub endpoints otherwise.
func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.Source.S3 == nil {
		return source.GitHub{}, nil
	}

	src, err := source.NewS3(source.S3Config{
		Endpoint:     cfg.Source.S3.Endpoint,
		Region:       cfg.Source.S3.Region,
		Bucket:       cfg.Source.S3.Bucket,
		AccessKey:    cfg.Source.S3.AccessKey,
		SecretKey:    cfg.Source.S3.SecretKey,
		UsePathStyle: cfg.Source.S3.UsePathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage source: %w", err)
	}
	return src, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
