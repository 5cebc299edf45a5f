package ssh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hubward/hubward/internal/testing/sshtest"
)

func testConfig(srv *sshtest.Server) *Config {
	return &Config{
		Host:     srv.Host(),
		Port:     srv.Port(),
		User:     "root",
		Password: "secret",
	}
}

func connectedSession(t *testing.T, srv *sshtest.Server) *Session {
	t.Helper()
	sess, err := NewSession(testConfig(srv))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestNewSession_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: "config cannot be nil",
		},
		{
			name:    "empty host",
			config:  &Config{User: "root", Password: "x"},
			wantErr: "host cannot be empty",
		},
		{
			name:    "empty user",
			config:  &Config{Host: "10.1.4.215", Password: "x"},
			wantErr: "user cannot be empty",
		},
		{
			name:    "no credential",
			config:  &Config{Host: "10.1.4.215", User: "root"},
			wantErr: "password or a private key",
		},
		{
			name:    "invalid private key",
			config:  &Config{Host: "10.1.4.215", User: "root", PrivateKey: []byte("not a key")},
			wantErr: "failed to parse private key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewSession(tt.config)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewSession_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{Host: "10.1.4.215", User: "root", Password: "x"}
	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if got := sess.Addr(); got != "10.1.4.215:22" {
		t.Errorf("Addr() = %q, want default port 22", got)
	}
	if got := sess.User(); got != "root" {
		t.Errorf("User() = %q, want root", got)
	}
	// The caller's struct must not be mutated.
	if cfg.Port != 0 {
		t.Errorf("caller config mutated: Port = %d", cfg.Port)
	}
}

func TestSession_ConnectAndHealth(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	sess, err := NewSession(testConfig(srv))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if sess.IsHealthy() {
		t.Error("expected unconnected session to be unhealthy")
	}

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !sess.IsHealthy() {
		t.Error("expected connected session to be healthy")
	}
	if got := srv.AuthAttempts(); got != 1 {
		t.Errorf("expected 1 auth attempt, got %d", got)
	}

	if err := sess.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if sess.IsHealthy() {
		t.Error("expected closed session to be unhealthy")
	}
	// Teardown is idempotent.
	if err := sess.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSession_ConnectAuthRejected(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	cfg := testConfig(srv)
	cfg.Password = "wrong"
	sess, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	err = sess.Connect(context.Background())
	if err == nil {
		t.Fatal("expected authentication error, got nil")
	}
	if !IsAuthentication(err) {
		t.Errorf("expected AuthenticationError, got %T: %v", err, err)
	}
	if IsConnectivity(err) {
		t.Error("auth rejection must not classify as connectivity")
	}
}

func TestSession_ConnectUnreachable(t *testing.T) {
	t.Parallel()

	// Grab a port with no listener behind it.
	srv := sshtest.Start(t)
	port := srv.Port()
	sess, err := NewSession(&Config{
		Host:        "127.0.0.1",
		Port:        port + 1,
		User:        "root",
		Password:    "x",
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	err = sess.Connect(context.Background())
	if err == nil {
		t.Fatal("expected connectivity error, got nil")
	}
	if !IsConnectivity(err) {
		t.Errorf("expected ConnectivityError, got %T: %v", err, err)
	}
}

func TestSession_ConnectCancelledContext(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	sess, err := NewSession(testConfig(srv))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sess.Connect(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got: %v", err)
	}
}

func TestSession_Run(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t,
		sshtest.WithCredentials("root", "secret"),
		sshtest.WithCommand("echo hello", sshtest.Response{Stdout: "hello\n"}),
		sshtest.WithCommand("tar -tzf", sshtest.Response{Stderr: "tar: not a gzip file\n", ExitCode: 2}),
	)
	sess := connectedSession(t, srv)

	t.Run("zero exit", func(t *testing.T) {
		result, err := sess.Run(context.Background(), "echo hello")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.ExitCode != 0 {
			t.Errorf("ExitCode = %d, want 0", result.ExitCode)
		}
		if result.Stdout != "hello\n" {
			t.Errorf("Stdout = %q", result.Stdout)
		}
	})

	t.Run("non-zero exit is a result, not an error", func(t *testing.T) {
		result, err := sess.Run(context.Background(), "tar -tzf /opt/hub/hub.tar.gz")
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.ExitCode != 2 {
			t.Errorf("ExitCode = %d, want 2", result.ExitCode)
		}
		if !strings.Contains(result.Stderr, "not a gzip file") {
			t.Errorf("Stderr = %q", result.Stderr)
		}
	})

	t.Run("not connected", func(t *testing.T) {
		cold, err := NewSession(testConfig(srv))
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		_, err = cold.Run(context.Background(), "true")
		if !IsConnectivity(err) {
			t.Errorf("expected ConnectivityError for unconnected session, got: %v", err)
		}
	})
}

func TestSession_RunWorkDir(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))
	sess := connectedSession(t, srv)

	if _, err := sess.Run(context.Background(), "npm install", WithWorkDir("/opt/hub")); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !srv.SawCommand("cd '/opt/hub' && npm install") {
		t.Errorf("expected workdir-wrapped command, got %v", srv.Commands())
	}
}

func TestSession_RunStreaming(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t,
		sshtest.WithCredentials("root", "secret"),
		sshtest.WithCommand("curl -fsSL", sshtest.Response{
			Handler: func(_ io.Reader, stdout, stderr io.Writer) int {
				// Two writes per stream to exercise chunk ordering.
				_, _ = io.WriteString(stdout, "downloading ")
				_, _ = io.WriteString(stderr, "progress 50%\n")
				_, _ = io.WriteString(stdout, "done\n")
				_, _ = io.WriteString(stderr, "progress 100%\n")
				return 0
			},
		}),
		sshtest.WithCommand("bash setup.sh", sshtest.Response{Stderr: "setup.sh: line 3: boom\n", ExitCode: 1}),
	)
	sess := connectedSession(t, srv)

	t.Run("chunks preserve per-stream order", func(t *testing.T) {
		var out, errOut bytes.Buffer
		code, err := sess.RunStreaming(context.Background(), "curl -fsSL -o /tmp/a.tar.gz https://example.com/a.tar.gz",
			func(chunk []byte) { out.Write(chunk) },
			func(chunk []byte) { errOut.Write(chunk) },
		)
		if err != nil {
			t.Fatalf("RunStreaming: %v", err)
		}
		if code != 0 {
			t.Errorf("exit code = %d, want 0", code)
		}
		if out.String() != "downloading done\n" {
			t.Errorf("stdout chunks out of order: %q", out.String())
		}
		if errOut.String() != "progress 50%\nprogress 100%\n" {
			t.Errorf("stderr chunks out of order: %q", errOut.String())
		}
	})

	t.Run("exit code surfaces", func(t *testing.T) {
		code, err := sess.RunStreaming(context.Background(), "bash setup.sh", nil, nil)
		if err != nil {
			t.Fatalf("RunStreaming: %v", err)
		}
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
	})
}

func TestSession_Upload(t *testing.T) {
	t.Parallel()

	var received bytes.Buffer
	srv := sshtest.Start(t,
		sshtest.WithCredentials("root", "secret"),
		sshtest.WithCommand("cat > ", sshtest.Response{
			Handler: func(in io.Reader, _, _ io.Writer) int {
				_, _ = io.Copy(&received, in)
				return 0
			},
		}),
	)
	sess := connectedSession(t, srv)

	content := "module.exports = { apps: [] };\n"
	err := sess.Upload(context.Background(), strings.NewReader(content), "/opt/hub/ecosystem.config.js", 0o644)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if received.String() != content {
		t.Errorf("uploaded content = %q, want %q", received.String(), content)
	}
	if !srv.SawCommand("cat > '/opt/hub/ecosystem.config.js' && chmod 644 '/opt/hub/ecosystem.config.js'") {
		t.Errorf("unexpected upload command, got %v", srv.Commands())
	}
}

func TestSession_ReconnectReplacesTransport(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t,
		sshtest.WithCredentials("root", "secret"),
		sshtest.WithCommand("echo hello", sshtest.Response{Stdout: "hello\n"}),
	)
	sess := connectedSession(t, srv)

	_ = sess.Close()
	if sess.IsHealthy() {
		t.Fatal("expected closed session to be unhealthy")
	}

	// Same object reconnects in place.
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if !sess.IsHealthy() {
		t.Error("expected reconnected session to be healthy")
	}
	result, err := sess.Run(context.Background(), "echo hello")
	if err != nil || result.ExitCode != 0 {
		t.Errorf("Run after reconnect: result=%+v err=%v", result, err)
	}
}
