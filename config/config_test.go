package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.ImportBucket != "schedule-imports" {
		t.Errorf("ImportBucket = %q", cfg.ImportBucket)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.Kulliyyah != "KICT" || cfg.Session != "2024/2025" {
		t.Errorf("schedule form defaults wrong: %q %q", cfg.Kulliyyah, cfg.Session)
	}
	if !cfg.InsecureTLS {
		t.Error("InsecureTLS should default to true for the registration system")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CACHE_TTL_MINUTES", "3")
	t.Setenv("SCHEDULE_KULLIYYAH", "ENGIN")
	t.Setenv("SCHEDULE_INSECURE_TLS", "false")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.CacheTTL != 3*time.Minute {
		t.Errorf("CacheTTL = %v, want 3m", cfg.CacheTTL)
	}
	if cfg.Kulliyyah != "ENGIN" {
		t.Errorf("Kulliyyah = %q, want ENGIN", cfg.Kulliyyah)
	}
	if cfg.InsecureTLS {
		t.Error("InsecureTLS override not applied")
	}
}
