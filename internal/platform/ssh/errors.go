package ssh

import (
	"errors"
	"fmt"
	"strings"
)

// AuthenticationError reports a credential rejection by the hub. It is
// retryable by the caller's retry guard in case of transient server-side
// lockouts.
type AuthenticationError struct {
	User string
	Addr string
	Err  error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed for %s@%s: %v", e.User, e.Addr, e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// ConnectivityError reports a network, dial, handshake, or transport failure
// reaching the hub. It is retryable by the caller's retry guard.
type ConnectivityError struct {
	Addr string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("cannot reach %s: %v", e.Addr, e.Err)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsConnectivity reports whether err is a connectivity failure.
func IsConnectivity(err error) bool {
	var connErr *ConnectivityError
	return errors.As(err, &connErr)
}

// isAuthFailure distinguishes a rejected credential from other handshake
// failures. x/crypto/ssh folds both into the handshake error, so the auth
// case is recognized by its stable message.
func isAuthFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "unable to authenticate")
}
