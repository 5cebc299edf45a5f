package provisioning

import (
	"fmt"
	"path"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/util/retry"
)

func (r *Runner) createTargetDirectory(rc *RunContext) error {
	result, err := rc.Exec.Run(rc, mkdirCommand(rc.TargetDir))
	if err != nil {
		return fmt.Errorf("%s: %w", StateCreateTargetDirectory, err)
	}
	if result.ExitCode != 0 {
		return &CommandError{
			Stage:    StateCreateTargetDirectory,
			Message:  failureMessage(fmt.Sprintf("failed to create %s", rc.TargetDir), result),
			ExitCode: result.ExitCode,
		}
	}
	return nil
}

func (r *Runner) detectTransferTool(rc *RunContext) error {
	for _, tool := range transferTools {
		result, err := rc.Exec.Run(rc, commandExists(tool))
		if err != nil {
			return fmt.Errorf("%s: %w", StateDetectTransferTool, err)
		}
		if result.ExitCode == 0 {
			rc.Tool = tool
			rc.Sink.Publish(progress.Info(fmt.Sprintf("Using %s for downloads", tool)))
			return nil
		}
	}
	return &PreconditionError{
		Message: "Neither curl nor wget is available on the hub. Install one of them and run setup again.",
	}
}

func (r *Runner) fetchArchive(rc *RunContext) error {
	url := rc.Request.ArchiveURL
	if url == "" {
		resolved, err := r.source.ArchiveURL(rc, rc.Ref)
		if err != nil {
			return fmt.Errorf("%s: failed to resolve archive URL for %s: %w", StateFetchArchive, rc.Ref, err)
		}
		url = resolved
	}

	code, err := rc.Exec.RunStreaming(rc, downloadCommand(rc.Tool, url, rc.ArchivePath),
		rc.forwardStdout, rc.forwardStderr)
	if err != nil {
		return fmt.Errorf("%s: %w", StateFetchArchive, err)
	}
	if code != 0 {
		return &CommandError{
			Stage:    StateFetchArchive,
			Message:  fmt.Sprintf("download of the setup archive failed (exit code %d)", code),
			ExitCode: code,
		}
	}

	// Some tools exit 0 after writing an error page or nothing at all;
	// trust the filesystem, not the tool.
	result, err := rc.Exec.Run(rc, fileExists(rc.ArchivePath))
	if err != nil {
		return fmt.Errorf("%s: %w", StateFetchArchive, err)
	}
	if result.ExitCode != 0 {
		return &CommandError{
			Stage:   StateFetchArchive,
			Message: fmt.Sprintf("download reported success but %s does not exist on the hub", rc.ArchivePath),
		}
	}
	return nil
}

func (r *Runner) verifyArchive(rc *RunContext) error {
	result, err := rc.Exec.Run(rc, verifyArchiveCommand(rc.ArchivePath))
	if err != nil {
		return fmt.Errorf("%s: %w", StateVerifyArchive, err)
	}
	if result.ExitCode != 0 {
		return &CommandError{
			Stage:    StateVerifyArchive,
			Message:  failureMessage(fmt.Sprintf("%s is not a readable tar.gz archive", rc.ArchivePath), result),
			ExitCode: result.ExitCode,
		}
	}
	return nil
}

func (r *Runner) extractArchive(rc *RunContext) error {
	result, err := rc.Exec.Run(rc, extractCommand(rc.ArchivePath, rc.TargetDir))
	if err != nil {
		return fmt.Errorf("%s: %w", StateExtractArchive, err)
	}
	if result.ExitCode != 0 {
		return &CommandError{
			Stage:    StateExtractArchive,
			Message:  failureMessage(fmt.Sprintf("failed to extract into %s", rc.TargetDir), result),
			ExitCode: result.ExitCode,
		}
	}
	return nil
}

func (r *Runner) installDependencies(rc *RunContext) error {
	manifest := path.Join(rc.TargetDir, manifestFile)
	result, err := rc.Exec.Run(rc, fileExists(manifest))
	if err != nil {
		return fmt.Errorf("%s: %w", StateInstallDependencies, err)
	}
	if result.ExitCode != 0 {
		rc.Sink.Publish(progress.Info("No package.json found, skipping dependency installation."))
		return nil
	}

	install := func() error {
		result, err := rc.Exec.Run(rc, npmInstallCommand(), ssh.WithWorkDir(rc.TargetDir))
		if err != nil {
			return err
		}
		if result.ExitCode != 0 {
			return &CommandError{
				Stage:    StateInstallDependencies,
				Message:  failureMessage("npm install failed", result),
				ExitCode: result.ExitCode,
			}
		}
		return nil
	}

	// Package installs fail transiently on cold hubs; retry them.
	return retry.WithFixedDelay(rc, install,
		retry.WithAttempts(r.installAttempts),
		retry.WithDelay(r.retryDelay),
		retry.WithNotify(func(attempt int, err error) {
			rc.Sink.Publish(progress.Info(fmt.Sprintf("Dependency install attempt %d failed: %v", attempt, err)))
		}),
	)
}

func (r *Runner) executeSetupScript(rc *RunContext) error {
	script := path.Join(rc.TargetDir, setupScriptFile)
	result, err := rc.Exec.Run(rc, fileExists(script))
	if err != nil {
		return fmt.Errorf("%s: %w", StateExecuteSetupScript, err)
	}
	if result.ExitCode != 0 {
		return &CommandError{
			Stage:   StateExecuteSetupScript,
			Message: fmt.Sprintf("%s not found in %s", setupScriptFile, rc.TargetDir),
		}
	}

	code, err := rc.Exec.RunStreaming(rc, setupScriptCommand(),
		rc.forwardStdout, rc.forwardStderr, ssh.WithWorkDir(rc.TargetDir))
	if err != nil {
		return fmt.Errorf("%s: %w", StateExecuteSetupScript, err)
	}
	if code != 0 {
		return &CommandError{
			Stage:    StateExecuteSetupScript,
			Message:  fmt.Sprintf("setup script exited with code %d", code),
			ExitCode: code,
		}
	}
	return nil
}

// failureMessage renders a command failure with its exit code and a
// compressed stderr tail.
func failureMessage(what string, result *ssh.Result) string {
	msg := fmt.Sprintf("%s (exit code %d)", what, result.ExitCode)
	if tail := stderrTail(result.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}
