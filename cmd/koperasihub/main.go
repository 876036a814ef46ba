package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"koperasihub/internal/backend"
	"koperasihub/internal/cart"
	"koperasihub/internal/config"
	"koperasihub/internal/gate"
	"koperasihub/internal/httpapi"
	"koperasihub/internal/logging"
	"koperasihub/internal/session"
	"koperasihub/internal/store"
	filestore "koperasihub/internal/store/file"
	"koperasihub/internal/store/memory"
	"koperasihub/internal/store/postgres"
	redisstore "koperasihub/internal/store/redis"
	"koperasihub/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "koperasihub-gateway"

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	cfg := config.Load()
	logger, closeLog, err := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
		File:   cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("gateway stopped", "error", err)
		_ = closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	shutdownTelemetry := telemetry.Setup(serviceName, logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	storage, closeStorage, err := openCartStorage(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	api, err := backend.New(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.BackendTimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	domains := gate.NewDomains(cfg.BaseDomains)
	metrics := httpapi.NewMetrics()
	handler := httpapi.NewHandler(httpapi.Options{
		Backend:       api,
		Carts:         cart.NewService(storage, logger),
		Metrics:       metrics,
		Logger:        logger,
		SecureCookies: cfg.Production(),
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:     cfg.RateLimitPerMinute,
		IPBurst:         cfg.RateLimitBurst,
		TenantPerMinute: cfg.TenantRateLimitPerMinute,
		TenantBurst:     cfg.TenantRateLimitBurst,
		TrustedProxies:  cfg.TrustedProxies,
	}, domains, metrics)

	routes := session.Middleware(gate.New(domains).Middleware(metrics.ObserveGate, handler.Routes()))
	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(logger, metrics, domains, limiter.Middleware(routes)), serviceName)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.BackendTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", server.Addr, "backend", cfg.BackendURL, "cart_backend", cfg.CartBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("gateway stopped cleanly")
	return nil
}

// openCartStorage picks the cart persistence backend from CART_BACKEND.
func openCartStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.CartStorage, func(), error) {
	noop := func() {}
	switch cfg.CartBackend {
	case "", "memory":
		return memory.NewStore(), noop, nil
	case "file":
		st, err := filestore.NewStore(cfg.CartDir)
		if err != nil {
			return nil, noop, err
		}
		return st, noop, nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis connect: %w", err)
		}
		return redisstore.NewStore(client, "", cfg.CartTTL), func() { _ = client.Close() }, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, noop, errors.New("DB_DSN is required for the postgres cart backend")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, noop, fmt.Errorf("db connect: %w", err)
		}
		st := postgres.NewStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ensure cart schema: %w", err)
		}
		return st, pool.Close, nil
	default:
		logger.Warn("unknown cart backend, using memory", "cart_backend", cfg.CartBackend)
		return memory.NewStore(), noop, nil
	}
}
