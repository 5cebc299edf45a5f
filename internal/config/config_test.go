package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubward/hubward/internal/supervisor"
)

func supervisorService(name, script string) supervisor.Service {
	return supervisor.Service{Name: name, Script: script}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hubward.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfigFile(t, `
hub:
  host: 10.1.4.215
  principal: root
  credential: hunter2
source:
  owner: acme
  repo: hub
  branch: stable
setup:
  target_base_path: /srv
services:
  - name: hub-api
    script: dist/api.js
    instances: 2
    env:
      PORT: "8080"
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "10.1.4.215", cfg.Hub.Host)
	assert.Equal(t, "root", cfg.Hub.Principal)
	assert.Equal(t, "hunter2", cfg.Hub.Credential)
	assert.Equal(t, "stable", cfg.Source.Branch)
	assert.Equal(t, "/srv", cfg.Setup.TargetBasePath)

	require.Len(t, cfg.Services, 1)
	assert.Equal(t, "hub-api", cfg.Services[0].Name)
	assert.Equal(t, 2, cfg.Services[0].Instances)
	assert.Equal(t, "8080", cfg.Services[0].Env["PORT"])
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeConfigFile(t, `
hub:
  host: hub.local
  principal: admin
  credential: x
source:
  owner: acme
  repo: hub
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 22, cfg.Hub.Port)
	assert.Equal(t, "main", cfg.Source.Branch)
	assert.Equal(t, "/opt", cfg.Setup.TargetBasePath)
	assert.Equal(t, "hub-net", cfg.Network.Name)
	assert.Equal(t, "bridge", cfg.Network.Driver)
	assert.Equal(t, ":8090", cfg.Daemon.Listen)
}

func TestLoadFileCredentialFromEnv(t *testing.T) {
	t.Setenv(CredentialEnvVar, "from-env")

	path := writeConfigFile(t, `
hub:
  host: hub.local
  principal: root
  credential: from-file
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Hub.Credential)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFileBadYAML(t *testing.T) {
	path := writeConfigFile(t, "hub: [unterminated")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Hub.Host = "hub.local"
		cfg.Hub.Principal = "root"
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.Hub.Host = "" },
			wantErr: "hub.host is required",
		},
		{
			name:    "missing principal",
			mutate:  func(c *Config) { c.Hub.Principal = "" },
			wantErr: "hub.principal is required",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Hub.Port = 70000 },
			wantErr: "hub.port must be between 1 and 65535",
		},
		{
			name:    "bad subnet",
			mutate:  func(c *Config) { c.Network.Subnet = "not-a-cidr" },
			wantErr: "invalid network.subnet",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.Source.S3 = &S3SourceConfig{Region: "eu-central-1"} },
			wantErr: "source.s3.bucket is required",
		},
		{
			name: "service without script",
			mutate: func(c *Config) {
				c.Services = append(c.Services, supervisorService("hub-api", ""))
			},
			wantErr: "services[0]: service hub-api: script is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
