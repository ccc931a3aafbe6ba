package config

import (
	"testing"
	"time"
)

func TestTelemetryConfigDefaults(t *testing.T) {
	cfg := TelemetryConfig{}
	cfg.SetDefaults()
	if cfg.ReadoutInterval() != 5*time.Second {
		t.Fatalf("expected default interval 5s, got %s", cfg.ReadoutInterval())
	}
	if cfg.Listener.Addr != "localhost:13000" {
		t.Fatalf("expected default addr, got %s", cfg.Listener.Addr)
	}
}

func TestTelemetryConfigValues(t *testing.T) {
	cfg := TelemetryConfig{ReadoutIntervalSeconds: 2}
	if cfg.ReadoutInterval() != 2*time.Second {
		t.Fatalf("expected interval 2s, got %s", cfg.ReadoutInterval())
	}
	cfg.ReadoutIntervalSeconds = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative interval")
	}
}
