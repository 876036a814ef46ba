package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"koperasihub/internal/store"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

func setupTestStore(t *testing.T) (*Store, *goredis.Client) {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is required for integration tests")
	}
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	prefix := "test:" + uuid.NewString() + ":"
	return NewStore(client, prefix, time.Minute), client
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	st, client := setupTestStore(t)

	if _, err := st.Load(ctx, "cart-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := st.Save(ctx, "cart-1", []byte(`[]`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	ttl, err := client.TTL(ctx, st.prefix+"cart-1").Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected ttl to be set, got %v, %v", ttl, err)
	}
	data, err := st.Load(ctx, "cart-1")
	if err != nil || string(data) != `[]` {
		t.Fatalf("unexpected load %q, %v", data, err)
	}
	if err := st.Remove(ctx, "cart-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := st.Load(ctx, "cart-1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}
