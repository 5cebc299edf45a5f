package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/testing/sshtest"
)

func serverConfig(srv *sshtest.Server) *ssh.Config {
	return &ssh.Config{
		Host:     srv.Host(),
		Port:     srv.Port(),
		User:     "root",
		Password: "secret",
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  *ssh.Config
		want string
	}{
		{
			name: "explicit port",
			cfg:  &ssh.Config{Host: "10.1.4.215", Port: 2222, User: "admin"},
			want: "admin@10.1.4.215:2222",
		},
		{
			name: "default port",
			cfg:  &ssh.Config{Host: "hub.local", User: "root"},
			want: "root@hub.local:22",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Key(tt.cfg); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry()
	defer func() { _ = reg.DisconnectAll() }()

	sess, err := reg.GetOrCreate(context.Background(), serverConfig(srv), nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !sess.IsHealthy() {
		t.Error("expected healthy session")
	}
	if got := reg.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
	wantKey := Key(serverConfig(srv))
	if keys := reg.Keys(); len(keys) != 1 || keys[0] != wantKey {
		t.Errorf("Keys() = %v, want [%s]", keys, wantKey)
	}
}

func TestRegistry_ReusesHealthySession(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry()
	defer func() { _ = reg.DisconnectAll() }()

	first, err := reg.GetOrCreate(context.Background(), serverConfig(srv), nil)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	second, err := reg.GetOrCreate(context.Background(), serverConfig(srv), nil)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}

	if first != second {
		t.Error("expected the same session to be reused")
	}
	if got := srv.AuthAttempts(); got != 1 {
		t.Errorf("reuse must not re-authenticate: %d auth attempts", got)
	}
	if got := reg.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestRegistry_ReconnectsStaleSession(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry()
	defer func() { _ = reg.DisconnectAll() }()

	first, err := reg.GetOrCreate(context.Background(), serverConfig(srv), nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	// Simulate a dropped connection.
	_ = first.Close()

	second, err := reg.GetOrCreate(context.Background(), serverConfig(srv), nil)
	if err != nil {
		t.Fatalf("GetOrCreate after drop: %v", err)
	}
	if !second.IsHealthy() {
		t.Error("expected reconnected session to be healthy")
	}
	if got := srv.AuthAttempts(); got != 2 {
		t.Errorf("expected a fresh handshake after drop, got %d auth attempts", got)
	}
	// Same identity throughout.
	if got := reg.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestRegistry_ConnectRetryNotifies(t *testing.T) {
	t.Parallel()

	srv := sshtest.Start(t)
	deadPort := srv.Port() + 1

	reg := NewRegistry(WithConnectAttempts(3), WithConnectDelay(10*time.Millisecond))

	var mu sync.Mutex
	var attempts []int
	notify := func(attempt int, err error) {
		mu.Lock()
		attempts = append(attempts, attempt)
		mu.Unlock()
	}

	cfg := &ssh.Config{
		Host:        "127.0.0.1",
		Port:        deadPort,
		User:        "root",
		Password:    "x",
		DialTimeout: 500 * time.Millisecond,
	}
	_, err := reg.GetOrCreate(context.Background(), cfg, notify)
	if err == nil {
		t.Fatal("expected connect to fail")
	}
	if !ssh.IsConnectivity(err) {
		t.Errorf("expected ConnectivityError in chain, got: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 {
		t.Fatalf("expected 3 failure notifications, got %d", len(attempts))
	}
	for i, a := range attempts {
		if a != i+1 {
			t.Errorf("notification %d carried attempt %d", i, a)
		}
	}
	if got := reg.Len(); got != 0 {
		t.Errorf("failed connect left %d entries behind", got)
	}
}

func TestRegistry_AuthFailureSurfaces(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry(WithConnectAttempts(2), WithConnectDelay(10*time.Millisecond))

	cfg := serverConfig(srv)
	cfg.Password = "wrong"
	_, err := reg.GetOrCreate(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("expected auth failure")
	}
	if !ssh.IsAuthentication(err) {
		t.Errorf("expected AuthenticationError in chain, got: %v", err)
	}
	// Auth failures are retryable: both attempts hit the server.
	if got := srv.AuthAttempts(); got != 2 {
		t.Errorf("expected 2 auth attempts, got %d", got)
	}
}

func TestRegistry_SerializesPerIdentity(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry()
	defer func() { _ = reg.DisconnectAll() }()

	const workers = 8
	sessions := make([]*ssh.Session, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := reg.GetOrCreate(context.Background(), serverConfig(srv), nil)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			sessions[i] = sess
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("worker %d got a different session", i)
		}
	}
	// Exactly one of the racing callers connected; the rest reused.
	if got := srv.AuthAttempts(); got != 1 {
		t.Errorf("expected 1 auth attempt across %d workers, got %d", workers, got)
	}
}

func TestRegistry_Disconnect(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry()
	cfg := serverConfig(srv)
	sess, err := reg.GetOrCreate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	if err := reg.Disconnect(Key(cfg)); err != nil {
		t.Errorf("Disconnect: %v", err)
	}
	if sess.IsHealthy() {
		t.Error("expected disconnected session to be unhealthy")
	}
	if got := reg.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}

	// Unknown identities are a no-op.
	if err := reg.Disconnect("nobody@nowhere:22"); err != nil {
		t.Errorf("Disconnect unknown key: %v", err)
	}
}

func TestRegistry_DisconnectAll(t *testing.T) {
	t.Parallel()
	srvA := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))
	srvB := sshtest.Start(t, sshtest.WithCredentials("admin", "secret"))

	reg := NewRegistry()
	if _, err := reg.GetOrCreate(context.Background(), serverConfig(srvA), nil); err != nil {
		t.Fatalf("GetOrCreate A: %v", err)
	}
	cfgB := &ssh.Config{Host: srvB.Host(), Port: srvB.Port(), User: "admin", Password: "secret"}
	if _, err := reg.GetOrCreate(context.Background(), cfgB, nil); err != nil {
		t.Fatalf("GetOrCreate B: %v", err)
	}
	if got := reg.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	if err := reg.DisconnectAll(); err != nil {
		t.Errorf("DisconnectAll: %v", err)
	}
	if got := reg.Len(); got != 0 {
		t.Errorf("Len() = %d, want 0", got)
	}
}

func TestRegistry_Get(t *testing.T) {
	t.Parallel()
	srv := sshtest.Start(t, sshtest.WithCredentials("root", "secret"))

	reg := NewRegistry()
	defer func() { _ = reg.DisconnectAll() }()

	cfg := serverConfig(srv)
	if _, ok := reg.Get(Key(cfg)); ok {
		t.Error("Get before connect should report nothing")
	}

	created, err := reg.GetOrCreate(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	got, ok := reg.Get(Key(cfg))
	if !ok || got != created {
		t.Errorf("Get returned %v, %v; want the registered session", got, ok)
	}
}
