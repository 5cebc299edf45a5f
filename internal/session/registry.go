// Package session manages the pool of live SSH sessions, one per
// target identity. The registry hands out healthy sessions, reconnects
// stale ones under the retry policy, and serializes all work for a
// given identity so concurrent callers never race on one connection.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/hubward/hubward/internal/platform/ssh"
	"github.com/hubward/hubward/internal/util/retry"
)

const (
	defaultConnectAttempts = 3
	defaultConnectDelay    = 2 * time.Second
)

// NotifyFunc receives one call per failed connection attempt, with the
// 1-based attempt number and the error that failed it.
type NotifyFunc func(attempt int, err error)

// Key returns the registry identity for a session config:
// user@host:port, with the default port applied.
func Key(cfg *ssh.Config) string {
	port := cfg.Port
	if port == 0 {
		port = ssh.DefaultPort
	}
	return fmt.Sprintf("%s@%s", cfg.User, net.JoinHostPort(cfg.Host, strconv.Itoa(port)))
}

type entry struct {
	mu   sync.Mutex
	sess *ssh.Session
}

// Registry tracks at most one live session per identity.
type Registry struct {
	attempts int
	delay    time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

// Option customizes a Registry.
type Option func(*Registry)

// WithConnectAttempts sets the attempt bound for establishing a
// session. Values below 1 are ignored.
func WithConnectAttempts(n int) Option {
	return func(r *Registry) {
		if n >= 1 {
			r.attempts = n
		}
	}
}

// WithConnectDelay sets the fixed delay between connection attempts.
func WithConnectDelay(d time.Duration) Option {
	return func(r *Registry) {
		r.delay = d
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		attempts: defaultConnectAttempts,
		delay:    defaultConnectDelay,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the live session for the config's identity.
//
// A healthy existing session is returned as-is, with no new handshake
// or authentication. A stale one is replaced in place under the same
// identity. Establishing a connection runs under the registry's retry
// policy; notify, if non-nil, observes each failed attempt. Calls for
// the same identity are serialized, so at most one connection attempt
// per identity is in flight.
func (r *Registry) GetOrCreate(ctx context.Context, cfg *ssh.Config, notify NotifyFunc) (*ssh.Session, error) {
	key := Key(cfg)

	r.mu.Lock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sess != nil {
		if e.sess.IsHealthy() {
			return e.sess, nil
		}
		// Stale transport: tear down and rebuild from the caller's
		// current config so fresh credentials take effect.
		_ = e.sess.Close()
		e.sess = nil
	}

	sess, err := ssh.NewSession(cfg)
	if err != nil {
		r.drop(key, e)
		return nil, err
	}

	err = retry.WithFixedDelay(ctx,
		func() error { return sess.Connect(ctx) },
		retry.WithAttempts(r.attempts),
		retry.WithDelay(r.delay),
		retry.WithNotify(notify),
		retry.WithOnRetry(func(int, error) { _ = sess.Close() }),
	)
	if err != nil {
		r.drop(key, e)
		return nil, err
	}

	e.sess = sess
	return sess, nil
}

// drop removes an entry that never got a live session, so failed
// connects do not leave phantom identities behind.
func (r *Registry) drop(key string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.entries[key]; ok && cur == e {
		delete(r.entries, key)
	}
}

// Get returns the session for key if one is registered.
func (r *Registry) Get(key string) (*ssh.Session, bool) {
	r.mu.Lock()
	e, ok := r.entries[key]
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil, false
	}
	return e.sess, true
}

// Disconnect closes and removes the session for key. Unknown keys are
// a no-op.
func (r *Registry) Disconnect(key string) error {
	r.mu.Lock()
	e, ok := r.entries[key]
	if ok {
		delete(r.entries, key)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return nil
	}
	return e.sess.Close()
}

// DisconnectAll closes every registered session, continuing past
// individual failures, and empties the registry.
func (r *Registry) DisconnectAll() error {
	var errs []error
	for _, key := range r.Keys() {
		if err := r.Disconnect(key); err != nil {
			errs = append(errs, fmt.Errorf("disconnect %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Keys returns the registered identities in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
