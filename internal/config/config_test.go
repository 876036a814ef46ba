package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GATEWAY_PORT", "APP_ENV", "BASE_DOMAINS", "CART_BACKEND", "BACKEND_TIMEOUT_SEC"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.Production() {
		t.Fatalf("default environment must not be production")
	}
	if cfg.CartBackend != "memory" {
		t.Fatalf("expected memory cart backend, got %s", cfg.CartBackend)
	}
	if cfg.BaseDomains != nil {
		t.Fatalf("expected no base domains, got %v", cfg.BaseDomains)
	}
	if cfg.BackendTimeout != 15*time.Second {
		t.Fatalf("expected 15s backend timeout, got %s", cfg.BackendTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("BASE_DOMAINS", " koperasihub.id, ,koperasi-hub-fe.test ")
	t.Setenv("CART_BACKEND", "Redis")
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("GATEWAY_RATE_LIMIT_BURST", "7")
	t.Setenv("GATEWAY_TRUSTED_PROXIES", "10.0.0.0/8, 127.0.0.1")

	cfg := Load()
	if !cfg.Production() {
		t.Fatalf("expected production")
	}
	if len(cfg.BaseDomains) != 2 || cfg.BaseDomains[1] != "koperasi-hub-fe.test" {
		t.Fatalf("unexpected base domains %v", cfg.BaseDomains)
	}
	if cfg.CartBackend != "redis" {
		t.Fatalf("expected redis, got %s", cfg.CartBackend)
	}
	if cfg.RedisDB != 0 {
		t.Fatalf("expected fallback for invalid int, got %d", cfg.RedisDB)
	}
	if cfg.RateLimitBurst != 7 {
		t.Fatalf("expected burst 7, got %d", cfg.RateLimitBurst)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "127.0.0.1" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
}
