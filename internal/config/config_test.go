package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RelayBaseURL != "http://localhost:9000" {
		t.Errorf("unexpected relay base URL: %s", cfg.RelayBaseURL)
	}
	if cfg.QualitySampleInterval != time.Second {
		t.Errorf("expected 1s sample interval, got %s", cfg.QualitySampleInterval)
	}
	if cfg.EscalationRejectDelay <= cfg.EscalationAcceptSettle {
		t.Error("reject delay should be longer than accept settle")
	}
	if cfg.PingPeriod >= cfg.PongWait {
		t.Error("ping period must be less than pong wait")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("RELAY_BASE_URL", "http://relay.internal:8443/")
	t.Setenv("QUALITY_SAMPLE_INTERVAL_MS", "250")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test , http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.RelayBaseURL != "http://relay.internal:8443" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.RelayBaseURL)
	}
	if cfg.QualitySampleInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms interval, got %s", cfg.QualitySampleInterval)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Errorf("expected trimmed origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("RELAY_TIMEOUT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Error("expected error for invalid RELAY_TIMEOUT")
	}
}
