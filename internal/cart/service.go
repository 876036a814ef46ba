package cart

import (
	"context"
	"log/slog"
	"sync"

	"koperasihub/internal/models"
	"koperasihub/internal/store"

	"github.com/shopspring/decimal"
)

type Snapshot struct {
	Items      []models.CartItem `json:"items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	TotalCount int               `json:"total_count"`
}

func SnapshotOf(s *Store) Snapshot {
	return Snapshot{Items: s.Items(), TotalPrice: s.TotalPrice(), TotalCount: s.TotalCount()}
}

// Service opens carts by key and runs one operation at a time per key so two
// requests from the same visitor cannot interleave their read-modify-write.
type Service struct {
	storage store.CartStorage
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(storage store.CartStorage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{storage: storage, logger: logger, locks: make(map[string]*keyLock)}
}

// Do opens the cart for key, runs fn against it and returns the resulting
// snapshot.
func (s *Service) Do(ctx context.Context, key string, fn func(*Store)) Snapshot {
	unlock := s.lock(key)
	defer unlock()

	cart := Open(ctx, s.storage, key, s.logger)
	if fn != nil {
		fn(cart)
	}
	return SnapshotOf(cart)
}

func (s *Service) Get(ctx context.Context, key string) Snapshot {
	return s.Do(ctx, key, nil)
}

func (s *Service) lock(key string) func() {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &keyLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Handle binds the service to a single cart key.
type Handle struct {
	svc *Service
	key string
}

func (s *Service) Handle(key string) Handle {
	return Handle{svc: s, key: key}
}

func (h Handle) Key() string {
	return h.key
}

func (h Handle) AddItem(ctx context.Context, item models.CartItem) Snapshot {
	return h.svc.Do(ctx, h.key, func(c *Store) { c.AddItem(ctx, item) })
}

func (h Handle) RemoveItem(ctx context.Context, id string) Snapshot {
	return h.svc.Do(ctx, h.key, func(c *Store) { c.RemoveItem(ctx, id) })
}

func (h Handle) UpdateQuantity(ctx context.Context, id string, quantity int) Snapshot {
	return h.svc.Do(ctx, h.key, func(c *Store) { c.UpdateQuantity(ctx, id, quantity) })
}

func (h Handle) ClearCart(ctx context.Context) Snapshot {
	return h.svc.Do(ctx, h.key, func(c *Store) { c.ClearCart(ctx) })
}

func (h Handle) Snapshot(ctx context.Context) Snapshot {
	return h.svc.Get(ctx, h.key)
}
