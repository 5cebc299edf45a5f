package config

import (
	"testing"
	"time"
)

func TestLoadTimeoutsDefaults(t *testing.T) {
	timeouts := LoadTimeouts()

	if timeouts.Dial != 10*time.Second {
		t.Errorf("Dial = %v, want 10s", timeouts.Dial)
	}
	if timeouts.PortWait != 2*time.Minute {
		t.Errorf("PortWait = %v, want 2m", timeouts.PortWait)
	}
	if timeouts.ConnectAttempts != 3 {
		t.Errorf("ConnectAttempts = %d, want 3", timeouts.ConnectAttempts)
	}
	if timeouts.ConnectDelay != 2*time.Second {
		t.Errorf("ConnectDelay = %v, want 2s", timeouts.ConnectDelay)
	}
	if timeouts.InstallAttempts != 2 {
		t.Errorf("InstallAttempts = %d, want 2", timeouts.InstallAttempts)
	}
}

func TestLoadTimeoutsFromEnv(t *testing.T) {
	t.Setenv("HUBWARD_TIMEOUT_DIAL", "3s")
	t.Setenv("HUBWARD_CONNECT_ATTEMPTS", "5")

	timeouts := LoadTimeouts()
	if timeouts.Dial != 3*time.Second {
		t.Errorf("Dial = %v, want 3s", timeouts.Dial)
	}
	if timeouts.ConnectAttempts != 5 {
		t.Errorf("ConnectAttempts = %d, want 5", timeouts.ConnectAttempts)
	}
}

func TestLoadTimeoutsInvalidValuesFallBack(t *testing.T) {
	t.Setenv("HUBWARD_TIMEOUT_DIAL", "soon")
	t.Setenv("HUBWARD_CONNECT_ATTEMPTS", "many")

	timeouts := LoadTimeouts()
	if timeouts.Dial != 10*time.Second {
		t.Errorf("Dial = %v, want default 10s", timeouts.Dial)
	}
	if timeouts.ConnectAttempts != 3 {
		t.Errorf("ConnectAttempts = %d, want default 3", timeouts.ConnectAttempts)
	}
}
