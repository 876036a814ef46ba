package store

import "context"

// CartStorage persists serialized cart records by key. Implementations return
// ErrNotFound from Load when no record exists.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}
