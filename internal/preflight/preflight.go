// Package preflight inspects a hub for the tools provisioning depends
// on. Checks run over the hub's session, not on the local machine.
package preflight

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/util/shellescape"
)

// Tool represents a remote tool the pipeline may need.
type Tool struct {
	// Name is the binary name to look for on the hub's PATH.
	Name string

	// Required indicates if this tool is mandatory.
	Required bool

	// Description explains what the tool is used for.
	Description string

	// InstallHint is a command suggestion for installing the tool on
	// the hub.
	InstallHint string
}

// HubTools returns the set of tools a hub is checked for.
func HubTools() []Tool {
	return []Tool{
		{
			Name:        "tar",
			Required:    true,
			Description: "Required for extracting setup archives",
			InstallHint: "apt-get install -y tar",
		},
		{
			Name:        "curl",
			Description: "Preferred download tool for fetching archives",
			InstallHint: "apt-get install -y curl",
		},
		{
			Name:        "wget",
			Description: "Fallback download tool for fetching archives",
			InstallHint: "apt-get install -y wget",
		},
		{
			Name:        "node",
			Required:    true,
			Description: "Runtime for the hub services",
			InstallHint: "apt-get install -y nodejs",
		},
		{
			Name:        "npm",
			Required:    true,
			Description: "Required for installing service dependencies",
			InstallHint: "apt-get install -y npm",
		},
		{
			Name:        "docker",
			Required:    true,
			Description: "Container runtime backing the hub network",
			InstallHint: "curl -fsSL https://get.docker.com | sh",
		},
		{
			Name:        "pm2",
			Description: "Process supervisor keeping hub services alive",
			InstallHint: "npm install -g pm2",
		},
	}
}

// Executor runs commands on a connected hub.
type Executor interface {
	Run(ctx context.Context, command string, opts ...ssh.RunOption) (*ssh.Result, error)
}

// CheckResult contains the result of checking a single tool.
type CheckResult struct {
	Tool    Tool
	Found   bool
	Path    string
	Version string
}

// CheckResults contains the results of checking multiple tools.
type CheckResults struct {
	Results []CheckResult
	Missing []Tool
}

// HasTransferTool reports whether at least one download tool is
// present. The pipeline needs curl or wget, not both.
func (r *CheckResults) HasTransferTool() bool {
	for _, result := range r.Results {
		if result.Found && isTransferTool(result.Tool) {
			return true
		}
	}
	return false
}

// missingTransferTool reports whether download tools were checked and
// none was found. Tool lists that never include curl or wget are not
// penalized.
func (r *CheckResults) missingTransferTool() bool {
	checked := false
	for _, result := range r.Results {
		if isTransferTool(result.Tool) {
			checked = true
			if result.Found {
				return false
			}
		}
	}
	return checked
}

// HasErrors returns true if any required tool or every transfer tool
// is missing.
func (r *CheckResults) HasErrors() bool {
	for _, tool := range r.Missing {
		if tool.Required {
			return true
		}
	}
	return r.missingTransferTool()
}

// Error returns an error describing everything missing, or nil.
func (r *CheckResults) Error() error {
	var missing []string
	for _, tool := range r.Missing {
		if tool.Required {
			missing = append(missing, fmt.Sprintf("%s (install: %s)", tool.Name, tool.InstallHint))
		}
	}
	if r.missingTransferTool() {
		missing = append(missing, "curl or wget (install: apt-get install -y curl)")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("hub is missing required tools: %s", strings.Join(missing, ", "))
}

func isTransferTool(tool Tool) bool {
	return tool.Name == "curl" || tool.Name == "wget"
}

// Check verifies that the specified tools are available on the hub.
// Transport failures abort the check; a missing tool does not.
func Check(ctx context.Context, exec Executor, tools []Tool) (*CheckResults, error) {
	results := &CheckResults{}

	for _, tool := range tools {
		result := CheckResult{Tool: tool}

		lookup, err := exec.Run(ctx, lookPathCommand(tool.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to check for %s: %w", tool.Name, err)
		}
		if lookup.ExitCode == 0 {
			result.Found = true
			result.Path = strings.TrimSpace(lookup.Stdout)
			// Best effort; some tools have no --version.
			result.Version = toolVersion(ctx, exec, tool.Name)
		} else {
			results.Missing = append(results.Missing, tool)
		}

		results.Results = append(results.Results, result)
	}

	return results, nil
}

// CheckHub checks the default hub tool set.
func CheckHub(ctx context.Context, exec Executor) (*CheckResults, error) {
	return Check(ctx, exec, HubTools())
}

func lookPathCommand(name string) string {
	return fmt.Sprintf("command -v %s", shellescape.Quote(name))
}

func versionCommand(name string) string {
	return fmt.Sprintf("%s --version 2>/dev/null", shellescape.Quote(name))
}

// toolVersion attempts to read a tool's version from the hub.
// Returns empty string if it cannot be determined.
func toolVersion(ctx context.Context, exec Executor, name string) string {
	result, err := exec.Run(ctx, versionCommand(name))
	if err != nil || result.ExitCode != 0 {
		return ""
	}
	lines := strings.Split(result.Stdout, "\n")
	return strings.TrimSpace(lines[0])
}
