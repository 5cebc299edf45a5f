package provisioning

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/hubward/hubward/internal/progress"
	"github.com/hubward/hubward/internal/session"
	"github.com/hubward/hubward/internal/source"
)

const (
	defaultTargetBasePath  = "/opt"
	defaultInstallAttempts = 2
	defaultRetryDelay      = 2 * time.Second

	manifestFile    = "package.json"
	setupScriptFile = "setup.sh"
	fallbackDirName = "hub"
)

// stage is one named, ordered step of the pipeline.
type stage struct {
	ordinal int
	state   State
	message string
	run     func(rc *RunContext) error
}

// Runner executes the setup pipeline against hubs. One Runner serves
// any number of runs; per-run state lives in the RunContext.
type Runner struct {
	connector Connector
	source    source.Source

	base            string
	defaultRef      source.Ref
	installAttempts int
	retryDelay      time.Duration
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithTargetBasePath sets the directory archives are installed under
// when a request does not name one.
func WithTargetBasePath(base string) RunnerOption {
	return func(r *Runner) {
		if base != "" {
			r.base = base
		}
	}
}

// WithDefaultRef sets the source ref used for request fields left empty.
func WithDefaultRef(ref source.Ref) RunnerOption {
	return func(r *Runner) {
		r.defaultRef = ref
	}
}

// WithInstallAttempts sets the attempt bound for the dependency
// install stage. Values below 1 are ignored.
func WithInstallAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 1 {
			r.installAttempts = n
		}
	}
}

// WithRetryDelay sets the fixed delay between install attempts.
func WithRetryDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.retryDelay = d
	}
}

// NewRunner creates a pipeline runner.
func NewRunner(connector Connector, src source.Source, opts ...RunnerOption) *Runner {
	r := &Runner{
		connector:       connector,
		source:          src,
		base:            defaultTargetBasePath,
		installAttempts: defaultInstallAttempts,
		retryDelay:      defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the full pipeline for req, publishing progress events to
// sink in completion order. It returns the terminal state of the run:
// StateComplete on success, StateFailed once any stage has failed, or
// StateInit when the request never passed validation and no remote
// operation was attempted.
//
// Exactly one terminal event (success or error) is published per run
// that gets past validation; no events follow it.
func (r *Runner) Run(ctx context.Context, req Request, sink progress.Sink) (State, error) {
	if sink == nil {
		sink = progress.SinkFunc(func(progress.Event) {})
	}

	if err := req.Validate(); err != nil {
		return StateInit, err
	}

	rc := &RunContext{
		Context: ctx,
		Request: req,
		Sink:    sink,
		state:   StateInit,
	}
	r.resolve(rc)

	cfg := req.SSHConfig()
	identity := session.Key(cfg)
	exec, err := r.connector.Connect(ctx, cfg, func(attempt int, err error) {
		sink.Publish(progress.Info(fmt.Sprintf("Connection attempt %d failed: %v", attempt, err)))
	})
	if err != nil {
		rc.state = StateFailed
		sink.Publish(progress.Error(fmt.Sprintf("Failed to connect to %s: %v", identity, err)))
		return StateFailed, err
	}
	rc.Exec = exec
	sink.Publish(progress.Connected(fmt.Sprintf("Connected to %s", identity)))

	for _, st := range r.stages() {
		rc.state = st.state
		sink.Publish(progress.Step(st.ordinal, st.message))
		if err := st.run(rc); err != nil {
			rc.state = StateFailed
			sink.Publish(progress.Error(err.Error()))
			return StateFailed, err
		}
	}

	rc.state = StateComplete
	sink.Publish(progress.Success("Setup completed successfully!", map[string]any{"path": rc.TargetDir}))
	return StateComplete, nil
}

// resolve fills the request's optional fields from the runner's
// defaults and derives the on-hub paths for the run.
func (r *Runner) resolve(rc *RunContext) {
	ref := rc.Request.Ref()
	if ref.Owner == "" {
		ref.Owner = r.defaultRef.Owner
	}
	if ref.Repo == "" {
		ref.Repo = r.defaultRef.Repo
	}
	if ref.Branch == "" {
		ref.Branch = r.defaultRef.Branch
	}
	if ref.Branch == "" {
		ref.Branch = "main"
	}
	rc.Ref = ref

	base := rc.Request.TargetBasePath
	if base == "" {
		base = r.base
	}
	rc.TargetDir = TargetDir(base, ref.Repo)
	rc.ArchivePath = rc.TargetDir + ".tar.gz"
}

// TargetDir returns the installation directory for a repo under base,
// with the same defaults a run resolves. Callers that operate on an
// already-provisioned hub use it to find the installation.
func TargetDir(base, repo string) string {
	if base == "" {
		base = defaultTargetBasePath
	}
	name := repo
	if name == "" {
		name = fallbackDirName
	}
	return path.Join(base, name)
}

func (r *Runner) stages() []stage {
	return []stage{
		{1, StateCreateTargetDirectory, "Creating target directory...", r.createTargetDirectory},
		{2, StateDetectTransferTool, "Checking for download tools...", r.detectTransferTool},
		{3, StateFetchArchive, "Downloading repository archive...", r.fetchArchive},
		{4, StateVerifyArchive, "Verifying archive integrity...", r.verifyArchive},
		{5, StateExtractArchive, "Extracting archive...", r.extractArchive},
		{6, StateInstallDependencies, "Installing dependencies...", r.installDependencies},
		{7, StateExecuteSetupScript, "Running setup script...", r.executeSetupScript},
	}
}
