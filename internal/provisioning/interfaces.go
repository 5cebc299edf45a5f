// Package provisioning drives the multi-stage setup pipeline against a
// hub over an established SSH session.
//
// A run walks a fixed sequence of stages: create the target directory,
// detect a transfer tool, fetch the setup archive, verify it, extract
// it, install dependencies (when a manifest is present), and execute
// the setup script. Each stage announces itself on the progress sink
// before running, and the first unrecoverable failure ends the run
// with a single error event. Session acquisition and reuse are
// delegated to a Connector, typically backed by the session registry.
package provisioning

import (
	"context"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/session"
)

// Executor runs commands on a connected hub. *ssh.Session implements it;
// tests substitute scripted fakes.
type Executor interface {
	// Run executes a command and waits for completion.
	Run(ctx context.Context, command string, opts ...ssh.RunOption) (*ssh.Result, error)

	// RunStreaming executes a command, delivering output chunks to the
	// callbacks as they arrive, and returns the final exit code.
	RunStreaming(ctx context.Context, command string, onStdout, onStderr func(chunk []byte), opts ...ssh.RunOption) (int, error)
}

// Connector supplies a connected Executor for a hub. Failed connection
// attempts are reported through notify before any retry decision.
type Connector interface {
	Connect(ctx context.Context, cfg *ssh.Config, notify func(attempt int, err error)) (Executor, error)
}

// RegistryConnector adapts a session.Registry to the Connector
// interface, so pipeline runs share live sessions per identity.
type RegistryConnector struct {
	Registry *session.Registry
}

// Connect implements Connector.
func (c RegistryConnector) Connect(ctx context.Context, cfg *ssh.Config, notify func(attempt int, err error)) (Executor, error) {
	sess, err := c.Registry.GetOrCreate(ctx, cfg, notify)
	if err != nil {
		return nil, err
	}
	return sess, nil
}
