package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.MaxConnections != 1024 || cfg.ThreadPoolSize != 8 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.Backend != BackendMemory {
		t.Fatalf("default backend = %q, want memory", cfg.Backend)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CONNECTIONS", "16")
	t.Setenv("BACKEND", "relational")
	t.Setenv("RELATIONAL_DSN", "/tmp/x.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.MaxConnections != 16 || cfg.Backend != BackendRelational {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"zero max connections", func(c *Config) { c.MaxConnections = 0 }},
		{"zero pool size", func(c *Config) { c.ThreadPoolSize = 0 }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown backend", func(c *Config) { c.Backend = "cloud" }},
		{"relational without dsn", func(c *Config) { c.Backend = BackendRelational; c.RelationalDSN = "" }},
	}
	for _, tc := range cases {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		tc.mut(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate accepted a bad config", tc.name)
		}
	}
}

func TestGetEnvIntFallbackOnGarbage(t *testing.T) {
	t.Setenv("MAX_CONNECTIONS", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxConnections != 1024 {
		t.Fatalf("MaxConnections = %d, want the 1024 fallback", cfg.MaxConnections)
	}
}
