package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hubward/hubward/internal/config"
	"github.com/hubward/hubward/internal/netutil"
	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/preflight"
	"github.com/hubward/hubward/internal/provisioning"
	"github.com/hubward/hubward/internal/session"
)

// Factory function variables for doctor - can be replaced in tests.
var (
	// waitForPort waits for the hub's SSH port to accept connections.
	waitForPort = netutil.WaitForPort

	// checkHub probes the hub for the tools the pipeline needs.
	checkHub = preflight.CheckHub
)

// Report is the doctor command's machine-readable output.
type Report struct {
	Host      string       `json:"host"`
	Port      int          `json:"port"`
	Reachable bool         `json:"reachable"`
	Healthy   bool         `json:"healthy"`
	Tools     []ToolHealth `json:"tools,omitempty"`
}

// ToolHealth is one probed tool in the report.
type ToolHealth struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Found       bool   `json:"found"`
	Path        string `json:"path,omitempty"`
	Version     string `json:"version,omitempty"`
	InstallHint string `json:"installHint,omitempty"`
}

// Doctor checks a hub's readiness for provisioning.
//
// It waits for the SSH port, connects, and probes for the pipeline's
// tool dependencies. Missing required tools make the command fail after
// the full report is printed, so one run surfaces every problem.
func Doctor(ctx context.Context, configPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Hub.Host == "" {
		return fmt.Errorf("no hub host configured: create %s with 'hubward init'", config.DefaultFileName)
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	timeouts := loadTimeouts()
	req.DialTimeout = timeouts.Dial

	if !jsonOutput {
		fmt.Printf("Waiting for %s:%d to accept connections...\n", cfg.Hub.Host, cfg.Hub.Port)
	}
	if err := waitForPort(ctx, cfg.Hub.Host, cfg.Hub.Port, timeouts.PortWait); err != nil {
		if jsonOutput {
			printReport(Report{Host: cfg.Hub.Host, Port: cfg.Hub.Port})
		}
		return fmt.Errorf("hub is not reachable: %w", err)
	}

	registry := session.NewRegistry(
		session.WithConnectAttempts(timeouts.ConnectAttempts),
		session.WithConnectDelay(timeouts.ConnectDelay),
	)
	defer func() { _ = registry.DisconnectAll() }()

	sess, err := connectHub(ctx, registry, req)
	if err != nil {
		if jsonOutput {
			printReport(Report{Host: cfg.Hub.Host, Port: cfg.Hub.Port, Reachable: true})
		}
		return err
	}

	results, err := checkHub(ctx, sess)
	if err != nil {
		return fmt.Errorf("preflight checks failed: %w", err)
	}

	if jsonOutput {
		printReport(buildReport(cfg, results))
	} else {
		renderReport(results)
	}

	if results.HasErrors() {
		return results.Error()
	}
	return nil
}

// connectHub establishes a registry session to the hub, reporting each
// failed attempt on stderr so JSON output stays clean.
func connectHub(ctx context.Context, registry *session.Registry, req provisioning.Request) (*ssh.Session, error) {
	sshCfg := req.SSHConfig()
	sess, err := registry.GetOrCreate(ctx, sshCfg, func(attempt int, err error) {
		fmt.Fprintf(os.Stderr, "Connection attempt %d failed: %v\n", attempt, err)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", session.Key(sshCfg), err)
	}
	return sess, nil
}

func buildReport(cfg *config.Config, results *preflight.CheckResults) Report {
	report := Report{
		Host:      cfg.Hub.Host,
		Port:      cfg.Hub.Port,
		Reachable: true,
		Healthy:   !results.HasErrors(),
	}
	for _, r := range results.Results {
		report.Tools = append(report.Tools, ToolHealth{
			Name:        r.Tool.Name,
			Required:    r.Tool.Required,
			Found:       r.Found,
			Path:        r.Path,
			Version:     r.Version,
			InstallHint: r.Tool.InstallHint,
		})
	}
	return report
}

func printReport(report Report) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(data))
}

func renderReport(results *preflight.CheckResults) {
	fmt.Println()
	fmt.Println("Hub readiness")
	fmt.Println("-------------")
	for _, r := range results.Results {
		switch {
		case r.Found:
			detail := r.Path
			if r.Version != "" {
				detail += fmt.Sprintf(" (%s)", r.Version)
			}
			fmt.Printf("  [OK] %-8s %s\n", r.Tool.Name, detail)
		case r.Tool.Required:
			fmt.Printf("  [!!] %-8s missing, install with: %s\n", r.Tool.Name, r.Tool.InstallHint)
		default:
			fmt.Printf("  [--] %-8s missing (optional)\n", r.Tool.Name)
		}
	}
	fmt.Println()
}
