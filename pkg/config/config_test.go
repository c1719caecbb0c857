package config

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		t.Fatalf("process: %v", err)
	}
	if cfg.Floor.AcceptWindow != time.Minute {
		t.Fatalf("expected 1m accept window, got %s", cfg.Floor.AcceptWindow)
	}
	if cfg.Floor.SpeakingLimit != 5*time.Minute {
		t.Fatalf("expected 5m speaking limit, got %s", cfg.Floor.SpeakingLimit)
	}
	if cfg.Sweeper.Interval != 20*time.Second {
		t.Fatalf("expected 20s sweep interval, got %s", cfg.Sweeper.Interval)
	}
	if !cfg.Floor.StrictAccept {
		t.Fatal("expected strict accept by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SWEEPER_INTERVAL", "5s")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		t.Fatalf("process: %v", err)
	}
	if cfg.Sweeper.Interval != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.Sweeper.Interval)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("expected memory driver, got %s", cfg.Database.Driver)
	}
	if len(cfg.Server.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.Server.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		if err := envconfig.Process("", cfg); err != nil {
			t.Fatalf("process: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"zero accept window", func(c *Config) { c.Floor.AcceptWindow = 0 }},
		{"negative speaking limit", func(c *Config) { c.Floor.SpeakingLimit = -time.Second }},
		{"zero interval", func(c *Config) { c.Sweeper.Interval = 0 }},
		{"zero concurrency", func(c *Config) { c.Sweeper.Concurrency = 0 }},
		{"default secret in production", func(c *Config) { c.Server.Environment = "production" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
