package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	AppEnv         string
	BackendURL     string
	BackendTimeout time.Duration
	BaseDomains    []string

	CartBackend string
	CartDir     string
	CartTTL     time.Duration
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitPerMinute       int
	RateLimitBurst           int
	TenantRateLimitPerMinute int
	TenantRateLimitBurst     int
	// TrustedProxies are IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies           []string

	LogLevel  string
	LogFormat string
	LogOutput string
	LogFile   string
}

func Load() Config {
	port := os.Getenv("GATEWAY_PORT")
	if port == "" {
		port = "3000"
	}

	return Config{
		Port:           port,
		AppEnv:         readString("APP_ENV", "development"),
		BackendURL:     readString("BACKEND_URL", "http://localhost:8000/api"),
		BackendTimeout: time.Duration(readInt("BACKEND_TIMEOUT_SEC", 15)) * time.Second,
		BaseDomains:    readList("BASE_DOMAINS"),

		CartBackend: strings.ToLower(readString("CART_BACKEND", "memory")),
		CartDir:     readString("CART_DIR", "data/carts"),
		CartTTL:     time.Duration(readInt("CART_TTL_HOURS", 24*30)) * time.Hour,
		DatabaseURL: os.Getenv("DB_DSN"),

		RedisAddr:     readString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       readInt("REDIS_DB", 0),

		RateLimitPerMinute:       readInt("GATEWAY_RATE_LIMIT_PER_MIN", 600),
		RateLimitBurst:           readInt("GATEWAY_RATE_LIMIT_BURST", 100),
		TenantRateLimitPerMinute: readInt("GATEWAY_TENANT_RATE_LIMIT_PER_MIN", 3000),
		TenantRateLimitBurst:     readInt("GATEWAY_TENANT_RATE_LIMIT_BURST", 300),
		TrustedProxies:           readList("GATEWAY_TRUSTED_PROXIES"),

		LogLevel:  readString("LOG_LEVEL", "info"),
		LogFormat: readString("LOG_FORMAT", "json"),
		LogOutput: readString("LOG_OUTPUT", "stdout"),
		LogFile:   readString("LOG_FILE", "logs/koperasihub.log"),
	}
}

// Production controls the Secure flag on session cookies.
func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func readString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func readList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
