package provisioning

import (
	"context"

	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/source"
)

// State names the position of a pipeline run in its stage sequence.
type State string

const (
	// StateInit is the state before any remote operation.
	StateInit State = "init"
	// StateCreateTargetDirectory creates the installation directory.
	StateCreateTargetDirectory State = "create-target-directory"
	// StateDetectTransferTool probes for a usable download tool.
	StateDetectTransferTool State = "detect-transfer-tool"
	// StateFetchArchive downloads the setup archive onto the hub.
	StateFetchArchive State = "fetch-archive"
	// StateVerifyArchive checks the downloaded archive is readable.
	StateVerifyArchive State = "verify-archive"
	// StateExtractArchive unpacks the archive into the target directory.
	StateExtractArchive State = "extract-archive"
	// StateInstallDependencies installs packages from the manifest.
	StateInstallDependencies State = "install-dependencies"
	// StateExecuteSetupScript runs the archive's setup script.
	StateExecuteSetupScript State = "execute-setup-script"
	// StateComplete is the terminal state of a successful run.
	StateComplete State = "complete"
	// StateFailed is the terminal state of a failed run.
	StateFailed State = "failed"
)

// RunContext carries the parameters and intermediate results of one
// pipeline run. It is populated by the runner as stages complete and
// passed to each subsequent stage.
type RunContext struct {
	context.Context

	Request Request
	Exec    Executor
	Sink    progress.Sink

	// Ref is the source ref after defaults were applied.
	Ref source.Ref
	// TargetDir is where the archive contents end up.
	TargetDir string
	// ArchivePath is the download destination for the tarball.
	ArchivePath string
	// Tool is the transfer tool detected on the hub.
	Tool string

	state State
}

// State returns the run's current position in the stage sequence.
func (rc *RunContext) State() State {
	return rc.state
}

func (rc *RunContext) forwardStdout(chunk []byte) {
	rc.Sink.Publish(progress.Stdout(string(chunk)))
}

func (rc *RunContext) forwardStderr(chunk []byte) {
	rc.Sink.Publish(progress.Stderr(string(chunk)))
}
