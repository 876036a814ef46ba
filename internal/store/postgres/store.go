package postgres

import (
	"context"
	"errors"

	"koperasihub/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cart_records (
	cart_key   TEXT PRIMARY KEY,
	items      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT items::text
		FROM cart_records
		WHERE cart_key = $1
	`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Save upserts the record. The payload must be valid JSON; the caller always
// writes a marshalled item list.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return store.ErrInvalidKey
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cart_records (cart_key, items, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (cart_key) DO UPDATE
		SET items = EXCLUDED.items, updated_at = now()
	`, key, string(data))
	return err
}

func (s *Store) Remove(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM cart_records
		WHERE cart_key = $1
	`, key)
	return err
}
