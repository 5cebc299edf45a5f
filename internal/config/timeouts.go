package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Dial            time.Duration // Timeout for the SSH TCP dial
	PortWait        time.Duration // Timeout for waiting for the SSH port after a reboot
	ConnectAttempts int           // Maximum number of connect attempts
	ConnectDelay    time.Duration // Fixed delay between connect attempts
	InstallAttempts int           // Maximum number of dependency install attempts
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - HUBWARD_TIMEOUT_DIAL (default: 10s)
//   - HUBWARD_TIMEOUT_PORT_WAIT (default: 2m)
//   - HUBWARD_CONNECT_ATTEMPTS (default: 3)
//   - HUBWARD_CONNECT_DELAY (default: 2s)
//   - HUBWARD_INSTALL_ATTEMPTS (default: 2)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		Dial:            parseDuration("HUBWARD_TIMEOUT_DIAL", 10*time.Second),
		PortWait:        parseDuration("HUBWARD_TIMEOUT_PORT_WAIT", 2*time.Minute),
		ConnectAttempts: parseInt("HUBWARD_CONNECT_ATTEMPTS", 3),
		ConnectDelay:    parseDuration("HUBWARD_CONNECT_DELAY", 2*time.Second),
		InstallAttempts: parseInt("HUBWARD_INSTALL_ATTEMPTS", 2),
	}
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}
