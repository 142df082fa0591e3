package config

import (
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv(EnvPort, "")
	t.Setenv(EnvProbeTimeout, "")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("default Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.ProbeTimeout() != DefaultProbeTimeout*time.Second {
		t.Errorf("default ProbeTimeout = %v, want %v", cfg.ProbeTimeout(), DefaultProbeTimeout*time.Second)
	}
	if cfg.Headless() {
		t.Error("default Headless = true, want false")
	}
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvHeadless, "1")
	t.Setenv(EnvProbeParallel, "8")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port())
	}
	if !cfg.Headless() {
		t.Error("Headless = false, want true")
	}
	if cfg.ProbeParallel() != 8 {
		t.Errorf("ProbeParallel = %d, want 8", cfg.ProbeParallel())
	}
}

func TestNew_InvalidPort(t *testing.T) {
	t.Setenv(EnvPort, "70000")

	if _, err := New(); err == nil {
		t.Error("New() should reject out-of-range port")
	}
}
