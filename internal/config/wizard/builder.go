package wizard

import "github.com/hubward/hubward/internal/config"

// BuildConfig creates a Config struct from the wizard result. Only
// values that differ from the loader's defaults are set, so the written
// file stays small.
func BuildConfig(result *Result) *config.Config {
	cfg := &config.Config{}

	cfg.Hub.Host = result.Host
	cfg.Hub.Principal = result.Principal
	if result.Port != 22 {
		cfg.Hub.Port = result.Port
	}
	if result.AuthMethod == AuthKey {
		cfg.Hub.PrivateKeyFile = result.PrivateKeyFile
	}

	cfg.Source.Owner = result.SourceOwner
	cfg.Source.Repo = result.SourceRepo
	if result.SourceBranch != "" && result.SourceBranch != "main" {
		cfg.Source.Branch = result.SourceBranch
	}

	if result.TargetBasePath != "" && result.TargetBasePath != "/opt" {
		cfg.Setup.TargetBasePath = result.TargetBasePath
	}

	return cfg
}
