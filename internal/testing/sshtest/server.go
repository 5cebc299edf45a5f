// Package sshtest runs an in-process SSH server that plays the part of a hub
// in tests. Commands are matched against scripted rules, authentication
// attempts are counted, and every received command is recorded so tests can
// assert what was (and was not) executed remotely.
package sshtest

import (
	"io"
	"net"
	"strings"
	"sync"
	"testing"

	gliderssh "github.com/gliderlabs/ssh"
)

// Response is the scripted outcome for a matched command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int

	// Handler takes over the session when set; the other fields are
	// ignored. It receives the command's stdin and both output streams
	// and returns the exit code.
	Handler func(in io.Reader, stdout, stderr io.Writer) int
}

type rule struct {
	pattern  string
	response Response
}

// Server is an in-process SSH server for tests.
type Server struct {
	host string
	port int

	user     string
	password string

	mu           sync.Mutex
	rules        []rule
	commands     []string
	authAttempts int

	srv *gliderssh.Server
}

// Option configures the test server before it starts.
type Option func(*Server)

// WithCredentials requires password authentication as user/password.
// Without this option every authentication attempt is accepted.
func WithCredentials(user, password string) Option {
	return func(s *Server) {
		s.user = user
		s.password = password
	}
}

// WithCommand scripts a response for commands containing pattern.
// Rules are checked in registration order; the first match wins.
func WithCommand(pattern string, response Response) Option {
	return func(s *Server) {
		s.rules = append(s.rules, rule{pattern: pattern, response: response})
	}
}

// Start launches the server on a loopback port and registers cleanup.
func Start(t *testing.T, opts ...Option) *Server {
	t.Helper()

	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("sshtest: listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	s.host = "127.0.0.1"
	s.port = addr.Port

	s.srv = &gliderssh.Server{Handler: s.handle}
	if s.password != "" {
		s.srv.PasswordHandler = func(ctx gliderssh.Context, password string) bool {
			s.mu.Lock()
			s.authAttempts++
			s.mu.Unlock()
			return ctx.User() == s.user && password == s.password
		}
	}

	go func() { _ = s.srv.Serve(ln) }()
	t.Cleanup(func() { _ = s.srv.Close() })

	return s
}

// Host returns the loopback address the server listens on.
func (s *Server) Host() string { return s.host }

// Port returns the listening port.
func (s *Server) Port() int { return s.port }

// AuthAttempts returns how many password authentications were attempted.
func (s *Server) AuthAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authAttempts
}

// Commands returns every exec command received, in arrival order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// SawCommand reports whether any received command contains pattern.
func (s *Server) SawCommand(pattern string) bool {
	for _, cmd := range s.Commands() {
		if strings.Contains(cmd, pattern) {
			return true
		}
	}
	return false
}

// Script appends a rule after the server has started. Useful for tests that
// change remote behavior between runs.
func (s *Server) Script(pattern string, response Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{pattern: pattern, response: response})
}

func (s *Server) handle(sess gliderssh.Session) {
	command := sess.RawCommand()

	s.mu.Lock()
	s.commands = append(s.commands, command)
	var matched *Response
	for i := range s.rules {
		if strings.Contains(command, s.rules[i].pattern) {
			matched = &s.rules[i].response
			break
		}
	}
	s.mu.Unlock()

	if matched == nil {
		// Unscripted commands succeed silently, like a quiet shell.
		_ = sess.Exit(0)
		return
	}

	if matched.Handler != nil {
		code := matched.Handler(sess, sess, sess.Stderr())
		_ = sess.Exit(code)
		return
	}

	if matched.Stdout != "" {
		_, _ = io.WriteString(sess, matched.Stdout)
	}
	if matched.Stderr != "" {
		_, _ = io.WriteString(sess.Stderr(), matched.Stderr)
	}
	_ = sess.Exit(matched.ExitCode)
}
