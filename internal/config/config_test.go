package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "FINALIZE_MODE", "SWEEP_INTERVAL_SECONDS", "ANSWER_RATE_LIMIT", "ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverPostgres)
	}
	if cfg.FinalizeMode != FinalizeModeSync {
		t.Errorf("FinalizeMode = %q, want %q", cfg.FinalizeMode, FinalizeModeSync)
	}
	if cfg.SweepInterval != 30*time.Second {
		t.Errorf("SweepInterval = %v, want 30s", cfg.SweepInterval)
	}
	if cfg.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", cfg.AllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("FINALIZE_MODE", "bogus")
	t.Setenv("ANSWER_RATE_LIMIT", "0")
	t.Setenv("ALLOWED_ORIGINS", " https://a.test , ,https://b.test")

	cfg := Load()
	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, StoreDriverMemory)
	}
	if cfg.FinalizeMode != FinalizeModeSync {
		t.Errorf("FinalizeMode = %q, want fallback %q", cfg.FinalizeMode, FinalizeModeSync)
	}
	if cfg.AnswerRateLimit != 0 {
		t.Errorf("AnswerRateLimit = %d, want 0", cfg.AnswerRateLimit)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.test" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}
