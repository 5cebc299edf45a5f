// Package ssh implements the remote session layer for hub provisioning.
//
// A Session owns one authenticated connection to a hub and exposes
// synchronous and streaming command execution, a cheap liveness probe, file
// upload over the session, and idempotent teardown. Connection retry policy
// belongs to the caller (see internal/session and internal/util/retry); a
// Session's Connect performs exactly one authentication attempt and reports
// the failure class through typed errors.
//
// Security: host key verification is disabled by default, which matches the
// trust model of provisioning a freshly imaged device on a private network.
// Configure HostKeyCallback when the hub's key is known.
package ssh
