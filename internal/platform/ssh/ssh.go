package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/hubward/hubward/internal/util/shellescape"
)

// DefaultPort is the SSH port used when Config.Port is zero.
const DefaultPort = 22

const (
	defaultDialTimeout = 10 * time.Second

	// streamChunkSize is the read buffer size for streaming execution.
	// Chunks are delivered to callbacks at most this large.
	streamChunkSize = 4096
)

// Config holds the connection parameters for one hub session.
type Config struct {
	Host string
	Port int
	User string

	// Password authenticates with a password. At least one of Password
	// and PrivateKey must be set; when both are set the key is tried first.
	Password string

	// PrivateKey is a PEM-encoded private key for key-based authentication.
	PrivateKey []byte

	// DialTimeout bounds the TCP connect and the SSH handshake.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Validate checks that the config identifies an authenticatable target.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if c.Host == "" {
		return fmt.Errorf("config host cannot be empty")
	}
	if c.User == "" {
		return fmt.Errorf("config user cannot be empty")
	}
	if c.Password == "" && len(c.PrivateKey) == 0 {
		return fmt.Errorf("config needs a password or a private key")
	}
	return nil
}

// Result is the outcome of one synchronous command.
// ExitCode is the authoritative success signal; stderr content alone does
// not mean the command failed.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Session owns one authenticated connection to a hub.
// The zero value is not usable; construct with NewSession.
type Session struct {
	config *Config
	signer ssh.Signer

	mu     sync.Mutex
	client *ssh.Client
}

// NewSession validates the config and prepares a session. It does not
// connect; call Connect (typically under the registry's retry guard).
func NewSession(cfg *Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg

	// Apply defaults to copy
	if configCopy.Port == 0 {
		configCopy.Port = DefaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Default for freshly imaged devices
	}

	s := &Session{config: &configCopy}

	// Parse private key once during construction
	if len(configCopy.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		s.signer = signer
	}

	return s, nil
}

// Addr returns the host:port the session connects to.
func (s *Session) Addr() string {
	return net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
}

// User returns the principal the session authenticates as.
func (s *Session) User() string {
	return s.config.User
}

// Connect performs one authentication attempt against the hub, replacing
// any previous transport handle. Credential rejection surfaces as
// *AuthenticationError, network and handshake failures as
// *ConnectivityError.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}

	clientConfig := &ssh.ClientConfig{
		User:            s.config.User,
		Auth:            s.authMethods(),
		HostKeyCallback: s.config.HostKeyCallback,
		Timeout:         s.config.DialTimeout,
	}

	addr := s.Addr()
	dialer := net.Dialer{Timeout: s.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return &ConnectivityError{Addr: addr, Err: err}
	}

	// Bound the handshake too; NewClientConn does not honor Timeout itself.
	_ = conn.SetDeadline(time.Now().Add(s.config.DialTimeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		_ = conn.Close()
		if isAuthFailure(err) {
			return &AuthenticationError{User: s.config.User, Addr: addr, Err: err}
		}
		return &ConnectivityError{Addr: addr, Err: err}
	}

	_ = conn.SetDeadline(time.Time{})

	s.client = ssh.NewClient(sshConn, chans, reqs)
	return nil
}

func (s *Session) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod
	if s.signer != nil {
		methods = append(methods, ssh.PublicKeys(s.signer))
	}
	if s.config.Password != "" {
		methods = append(methods, ssh.Password(s.config.Password))
	}
	return methods
}

// IsHealthy reports whether the transport can accept a command without
// reconnecting. The probe is an SSH-level keepalive roundtrip, not a remote
// command, so it is cheap and has no side effects on the hub.
func (s *Session) IsHealthy() bool {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	if client == nil {
		return false
	}
	_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

// Run executes the command on the hub and waits for completion. The command
// goes through the principal's shell, so pipes, redirects, and compound
// commands behave as written; callers quote untrusted values
// (internal/util/shellescape).
//
// A non-zero exit is reported through Result.ExitCode with a nil error; the
// error return is reserved for transport failures.
func (s *Session) Run(ctx context.Context, command string, opts ...RunOption) (*Result, error) {
	client, err := s.conn()
	if err != nil {
		return nil, err
	}

	sess, err := client.NewSession()
	if err != nil {
		return nil, &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("failed to open channel: %w", err)}
	}
	defer func() { _ = sess.Close() }()

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(BuildCommand(command, opts...)) }()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		<-done
		return nil, ctx.Err()
	case err := <-done:
		result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				result.ExitCode = exitErr.ExitStatus()
				return result, nil
			}
			return nil, &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("command transport failed: %w", err)}
		}
		return result, nil
	}
}

// RunStreaming executes the command on the hub, delivering output chunks to
// onStdout and onStderr as they arrive, and returns the final exit code.
//
// Chunk order matches the byte order of each stream independently; relative
// interleaving of the two streams is best-effort, because the transport does
// not guarantee it either. Nil callbacks discard that stream.
func (s *Session) RunStreaming(ctx context.Context, command string, onStdout, onStderr func([]byte), opts ...RunOption) (int, error) {
	client, err := s.conn()
	if err != nil {
		return 0, err
	}

	sess, err := client.NewSession()
	if err != nil {
		return 0, &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("failed to open channel: %w", err)}
	}
	defer func() { _ = sess.Close() }()

	stdoutPipe, err := sess.StdoutPipe()
	if err != nil {
		return 0, &ConnectivityError{Addr: s.Addr(), Err: err}
	}
	stderrPipe, err := sess.StderrPipe()
	if err != nil {
		return 0, &ConnectivityError{Addr: s.Addr(), Err: err}
	}

	if err := sess.Start(BuildCommand(command, opts...)); err != nil {
		return 0, &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("failed to start command: %w", err)}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go streamChunks(&wg, stdoutPipe, onStdout)
	go streamChunks(&wg, stderrPipe, onStderr)

	done := make(chan error, 1)
	go func() {
		// Pipes must be drained before Wait.
		wg.Wait()
		done <- sess.Wait()
	}()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		<-done
		return 0, ctx.Err()
	case err := <-done:
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				return exitErr.ExitStatus(), nil
			}
			return 0, &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("command transport failed: %w", err)}
		}
		return 0, nil
	}
}

func streamChunks(wg *sync.WaitGroup, r io.Reader, onChunk func([]byte)) {
	defer wg.Done()
	buf := make([]byte, streamChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 && onChunk != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onChunk(chunk)
		}
		if err != nil {
			return
		}
	}
}

// Upload writes src to remotePath on the hub through the session's stdin,
// then applies mode. No secondary transport is used.
func (s *Session) Upload(ctx context.Context, src io.Reader, remotePath string, mode os.FileMode) error {
	client, err := s.conn()
	if err != nil {
		return err
	}

	sess, err := client.NewSession()
	if err != nil {
		return &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("failed to open channel: %w", err)}
	}
	defer func() { _ = sess.Close() }()

	sess.Stdin = src
	var stderr bytes.Buffer
	sess.Stderr = &stderr

	quoted := shellescape.Quote(remotePath)
	command := fmt.Sprintf("cat > %s && chmod %o %s", quoted, mode.Perm(), quoted)

	done := make(chan error, 1)
	go func() { done <- sess.Run(command) }()

	select {
	case <-ctx.Done():
		_ = sess.Close()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			var exitErr *ssh.ExitError
			if errors.As(err, &exitErr) {
				return fmt.Errorf("upload to %s failed (exit %d): %s",
					remotePath, exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
			}
			return &ConnectivityError{Addr: s.Addr(), Err: fmt.Errorf("upload transport failed: %w", err)}
		}
		return nil
	}
}

// Close releases the transport. Closing an already-closed session is not an
// error.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close connection to %s: %w", s.Addr(), err)
	}
	return nil
}

func (s *Session) conn() (*ssh.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil, &ConnectivityError{Addr: s.Addr(), Err: errors.New("session is not connected")}
	}
	return s.client, nil
}

// RunOption adjusts how a single command runs.
type RunOption func(*runOptions)

type runOptions struct {
	workDir string
}

// WithWorkDir roots the command at dir on the hub.
func WithWorkDir(dir string) RunOption {
	return func(o *runOptions) {
		o.workDir = dir
	}
}

// BuildCommand returns the exact shell text a session executes for
// command under opts. Exposed so Executor test doubles can resolve
// options the same way a live session would.
func BuildCommand(command string, opts ...RunOption) string {
	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.workDir != "" {
		return fmt.Sprintf("cd %s && %s", shellescape.Quote(o.workDir), command)
	}
	return command
}
