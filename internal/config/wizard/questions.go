package wizard

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// runHubGroup prompts for the hub address and principal.
func runHubGroup(ctx context.Context, result *Result) error {
	portInput := strconv.Itoa(result.Port)

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Hub Address").
				Description("Hostname or IP of the hub device").
				Placeholder("10.1.4.215").
				Value(&result.Host).
				Validate(validateHost),
			huh.NewInput().
				Title("SSH Port").
				Value(&portInput).
				Validate(validatePort),
			huh.NewInput().
				Title("Principal").
				Description("Account used to log in to the hub").
				Value(&result.Principal).
				Validate(validatePrincipal),
		).Title("Hub"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	// validatePort already vouched for the value.
	result.Port, _ = strconv.Atoi(strings.TrimSpace(portInput))
	return nil
}

// runAuthGroup prompts for the authentication method. The password is
// never asked for here; it is supplied via HUBWARD_CREDENTIAL at run
// time so it does not land in the config file.
func runAuthGroup(ctx context.Context, result *Result) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Authentication").
				Description("How hubward logs in to the hub").
				Options(
					huh.NewOption("Password via HUBWARD_CREDENTIAL", AuthPassword),
					huh.NewOption("Private key file", AuthKey),
				).
				Value(&result.AuthMethod),
		).Title("Authentication"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	if result.AuthMethod == AuthKey {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Private Key File").
					Description("Path to a PEM private key, e.g. from `hubward keys generate`").
					Placeholder("~/.ssh/hubward_rsa").
					Value(&result.PrivateKeyFile).
					Validate(validateKeyFile),
			).Title("Key"),
		).RunWithContext(ctx)
	}

	return nil
}

// runSourceGroup prompts for where setup archives come from.
func runSourceGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Source Owner").
				Placeholder("acme").
				Value(&result.SourceOwner).
				Validate(validateOwner),
			huh.NewInput().
				Title("Source Repository").
				Placeholder("hub").
				Value(&result.SourceRepo).
				Validate(validateRepo),
			huh.NewInput().
				Title("Branch").
				Value(&result.SourceBranch),
		).Title("Archive Source"),
	).RunWithContext(ctx)
}

// runInstallGroup prompts for the install target directory.
func runInstallGroup(ctx context.Context, result *Result) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Target Base Path").
				Description("Directory on the hub the archive is installed under").
				Value(&result.TargetBasePath).
				Validate(validateAbsolutePath),
		).Title("Install Target"),
	).RunWithContext(ctx)
}

func validateHost(s string) error {
	if strings.TrimSpace(s) == "" {
		return errHostRequired
	}
	return nil
}

func validatePrincipal(s string) error {
	if strings.TrimSpace(s) == "" {
		return errPrincipalRequired
	}
	return nil
}

func validatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return errPortInvalid
	}
	return nil
}

func validateOwner(s string) error {
	if strings.TrimSpace(s) == "" {
		return errOwnerRequired
	}
	return nil
}

func validateRepo(s string) error {
	if strings.TrimSpace(s) == "" {
		return errRepoRequired
	}
	return nil
}

func validateKeyFile(s string) error {
	if strings.TrimSpace(s) == "" {
		return errKeyFileRequired
	}
	return nil
}

func validateAbsolutePath(s string) error {
	if !strings.HasPrefix(s, "/") {
		return errPathNotAbsolute
	}
	return nil
}
