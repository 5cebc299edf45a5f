package config

import (
	"fmt"
	"net"

	"github.com/hubward/hubward/internal/supervisor"
)

// Config holds the hubward configuration, usually read from
// hubward.yaml.
type Config struct {
	Hub     HubConfig     `mapstructure:"hub" yaml:"hub"`
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Setup   SetupConfig   `mapstructure:"setup" yaml:"setup,omitempty"`
	Network NetworkConfig `mapstructure:"network" yaml:"network,omitempty"`
	Daemon  DaemonConfig  `mapstructure:"daemon" yaml:"daemon,omitempty"`

	// Services is the supervised app list deployed by
	// `hubward services deploy`.
	Services []supervisor.Service `mapstructure:"services" yaml:"services,omitempty"`
}

// HubConfig identifies the hub and how to authenticate against it.
type HubConfig struct {
	Host      string `mapstructure:"host" yaml:"host"`
	Port      int    `mapstructure:"port" yaml:"port,omitempty"`
	Principal string `mapstructure:"principal" yaml:"principal"`

	// Credential is the SSH password. Usually left empty in the file
	// and supplied through HUBWARD_CREDENTIAL.
	Credential string `mapstructure:"credential" yaml:"credential,omitempty"`

	// PrivateKeyFile points at a PEM key used instead of a password.
	PrivateKeyFile string `mapstructure:"private_key_file" yaml:"private_key_file,omitempty"`
}

// SourceConfig names where setup archives come from.
type SourceConfig struct {
	Owner  string `mapstructure:"owner" yaml:"owner"`
	Repo   string `mapstructure:"repo" yaml:"repo"`
	Branch string `mapstructure:"branch" yaml:"branch,omitempty"`

	S3 *S3SourceConfig `mapstructure:"s3" yaml:"s3,omitempty"`
}

// S3SourceConfig configures presigned downloads from a private bucket.
type S3SourceConfig struct {
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region       string `mapstructure:"region" yaml:"region,omitempty"`
	Bucket       string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey    string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey    string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style,omitempty"`
}

// SetupConfig controls where the archive lands on the hub.
type SetupConfig struct {
	TargetBasePath string `mapstructure:"target_base_path" yaml:"target_base_path,omitempty"`
}

// NetworkConfig describes the container network `hubward network ensure`
// maintains on the hub.
type NetworkConfig struct {
	Name   string `mapstructure:"name" yaml:"name,omitempty"`
	Driver string `mapstructure:"driver" yaml:"driver,omitempty"`
	Subnet string `mapstructure:"subnet" yaml:"subnet,omitempty"`
}

// DaemonConfig configures hubd.
type DaemonConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen,omitempty"`
}

// Validate checks the configuration for common errors and returns a
// detailed error if validation fails.
func (c *Config) Validate() error {
	if c.Hub.Host == "" {
		return fmt.Errorf("hub.host is required")
	}
	if c.Hub.Principal == "" {
		return fmt.Errorf("hub.principal is required")
	}
	if c.Hub.Port < 0 || c.Hub.Port > 65535 {
		return fmt.Errorf("hub.port must be between 1 and 65535, got %d", c.Hub.Port)
	}

	if c.Network.Subnet != "" {
		if _, _, err := net.ParseCIDR(c.Network.Subnet); err != nil {
			return fmt.Errorf("invalid network.subnet: %w", err)
		}
	}

	if c.Source.S3 != nil && c.Source.S3.Bucket == "" {
		return fmt.Errorf("source.s3.bucket is required when source.s3 is set")
	}

	for i := range c.Services {
		if err := c.Services[i].Validate(); err != nil {
			return fmt.Errorf("services[%d]: %w", i, err)
		}
	}

	return nil
}

// ApplyDefaults applies sensible defaults to the configuration.
func (c *Config) ApplyDefaults() {
	if c.Hub.Port == 0 {
		c.Hub.Port = 22
	}
	if c.Source.Branch == "" {
		c.Source.Branch = "main"
	}
	if c.Setup.TargetBasePath == "" {
		c.Setup.TargetBasePath = "/opt"
	}
	if c.Network.Name == "" {
		c.Network.Name = "hub-net"
	}
	if c.Network.Driver == "" {
		c.Network.Driver = "bridge"
	}
	if c.Daemon.Listen == "" {
		c.Daemon.Listen = ":8090"
	}
}
