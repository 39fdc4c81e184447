package config

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		DatabaseURL:        "postgres://localhost/perfreview",
		JWTSecret:          "secret",
		JWTTTL:             time.Hour,
		Environment:        "development",
		MaxBodyBytes:       4096,
		RateLimitPerMinute: 60,
		DBMaxConns:         10,
		DBMinConns:         2,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"missing database url": func(c *Config) { c.DatabaseURL = " " },
		"missing jwt secret":   func(c *Config) { c.JWTSecret = "" },
		"short prod secret": func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "short"
		},
		"seed without password": func(c *Config) {
			c.RunSeed = true
			c.SeedAdminEmail = "admin@example.com"
		},
		"tiny body limit":   func(c *Config) { c.MaxBodyBytes = 10 },
		"zero rate limit":   func(c *Config) { c.RateLimitPerMinute = 0 },
		"min above max":     func(c *Config) { c.DBMinConns = 20 },
		"non-positive ttl":  func(c *Config) { c.JWTTTL = 0 },
		"bad proxy entry":   func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "gateway"} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("RUN_SEED", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.0.2.7 ")

	cfg := Load()
	if cfg.Addr != ":9090" {
		t.Fatalf("expected addr override, got %q", cfg.Addr)
	}
	if cfg.RunSeed {
		t.Fatal("expected RUN_SEED=false to be honored")
	}
	if cfg.RateLimitPerMinute != 120 {
		t.Fatalf("expected fallback rate limit, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Fatalf("expected 2h ttl, got %v", cfg.JWTTTL)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.0.2.7" {
		t.Fatalf("expected two trusted proxies, got %q", cfg.TrustedProxies)
	}
}

func TestProxyPrefixes(t *testing.T) {
	cfg := validConfig()
	prefixes, err := cfg.ProxyPrefixes()
	if err != nil || len(prefixes) != 0 {
		t.Fatalf("expected no proxies by default, got %v %v", prefixes, err)
	}

	cfg.TrustedProxies = []string{"10.1.2.3/8", "192.0.2.7", "::ffff:198.51.100.1"}
	prefixes, err = cfg.ProxyPrefixes()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"10.0.0.0/8", "192.0.2.7/32", "198.51.100.1/32"}
	for i, prefix := range prefixes {
		if prefix.String() != want[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, want[i], prefix)
		}
	}
}
