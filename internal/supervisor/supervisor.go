// Package supervisor renders the hub's process-supervisor app list and
// registers it with pm2 over the session.
package supervisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/util/shellescape"
)

// ConfigFileName is where the rendered app list lands on the hub,
// relative to the service directory. pm2 resolves it by this name.
const ConfigFileName = "ecosystem.config.js"

const configFileMode = os.FileMode(0o644)

// Service describes one supervised process on the hub.
type Service struct {
	Name      string            `yaml:"name"`
	Script    string            `yaml:"script"`
	Args      string            `yaml:"args,omitempty"`
	Instances int               `yaml:"instances,omitempty"`
	Env       map[string]string `yaml:"env,omitempty"`
}

// Validate checks the fields pm2 cannot work without.
func (s *Service) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if s.Script == "" {
		return fmt.Errorf("service %s: script is required", s.Name)
	}
	return nil
}

// appConfig is the pm2 app entry shape. Field order here is the order
// pm2 users expect to read in the rendered file.
type appConfig struct {
	Name        string            `json:"name"`
	Script      string            `json:"script"`
	Args        string            `json:"args,omitempty"`
	Instances   int               `json:"instances,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	Autorestart bool              `json:"autorestart"`
}

// RenderConfig produces the ecosystem file content for services. The
// body is a JSON object, which is also a valid JavaScript literal, so
// no value ever needs JS-specific escaping.
func RenderConfig(services []Service) ([]byte, error) {
	if len(services) == 0 {
		return nil, fmt.Errorf("no services to render")
	}

	seen := make(map[string]bool)
	apps := make([]appConfig, 0, len(services))
	for i := range services {
		svc := &services[i]
		if err := svc.Validate(); err != nil {
			return nil, err
		}
		if seen[svc.Name] {
			return nil, fmt.Errorf("duplicate service name %q", svc.Name)
		}
		seen[svc.Name] = true

		apps = append(apps, appConfig{
			Name:        svc.Name,
			Script:      svc.Script,
			Args:        svc.Args,
			Instances:   svc.Instances,
			Env:         svc.Env,
			Autorestart: true,
		})
	}

	payload := struct {
		Apps []appConfig `json:"apps"`
	}{Apps: apps}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render supervisor config: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("module.exports = ")
	buf.Write(body)
	buf.WriteString(";\n")
	return buf.Bytes(), nil
}

// Executor runs commands and uploads files on a connected hub.
type Executor interface {
	Run(ctx context.Context, command string, opts ...ssh.RunOption) (*ssh.Result, error)
	Upload(ctx context.Context, src io.Reader, remotePath string, mode os.FileMode) error
}

// Deploy renders the app list, uploads it into dir on the hub and
// registers it: pm2 start, then pm2 save so the list survives reboots.
func Deploy(ctx context.Context, exec Executor, dir string, services []Service) error {
	content, err := RenderConfig(services)
	if err != nil {
		return err
	}

	remotePath := path.Join(dir, ConfigFileName)
	if err := exec.Upload(ctx, bytes.NewReader(content), remotePath, configFileMode); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}

	for _, command := range []string{startCommand(), saveCommand()} {
		result, err := exec.Run(ctx, command, ssh.WithWorkDir(dir))
		if err != nil {
			return fmt.Errorf("supervisor registration: %w", err)
		}
		if result.ExitCode != 0 {
			return fmt.Errorf("%s failed (exit code %d): %s",
				command, result.ExitCode, strings.TrimSpace(result.Stderr))
		}
	}
	return nil
}

func startCommand() string {
	return fmt.Sprintf("pm2 start %s", shellescape.Quote(ConfigFileName))
}

func saveCommand() string {
	return "pm2 save"
}
