package redis

import (
	"context"
	"errors"
	"time"

	"koperasihub/internal/store"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "koperasihub:cart:"

type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewStore stores carts under prefix+key. A zero ttl keeps records until they
// are removed.
func NewStore(client goredis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	return s.client.Set(ctx, s.prefix+key, data, s.ttl).Err()
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
