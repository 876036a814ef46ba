package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"koperasihub/internal/models"
	"koperasihub/internal/store"

	"github.com/shopspring/decimal"
)

// Store is one cart backed by a persisted record. Every mutation rewrites the
// whole record; persistence failures are logged and never returned, so the
// in-memory cart stays usable when storage is not.
type Store struct {
	storage store.CartStorage
	key     string
	items   []models.CartItem
	logger  *slog.Logger
}

// Open loads the record for key. Missing, unreadable or malformed records give
// an empty cart.
func Open(ctx context.Context, storage store.CartStorage, key string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{storage: storage, key: key, logger: logger}

	data, err := storage.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.WarnContext(ctx, "cart load failed", "cart", key, "error", err)
		}
		return s
	}
	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		logger.WarnContext(ctx, "cart record malformed", "cart", key, "error", err)
		return s
	}
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		s.merge(item)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// AddItem merges by id: an existing entry has its quantity increased by the
// incoming quantity, otherwise the item is appended. Quantities below one are
// treated as one.
func (s *Store) AddItem(ctx context.Context, item models.CartItem) {
	s.merge(item)
	s.persist(ctx)
}

func (s *Store) merge(item models.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i].Quantity += item.Quantity
			return
		}
	}
	s.items = append(s.items, item)
}

// RemoveItem is a no-op for unknown ids, but still persists.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.persist(ctx)
}

// UpdateQuantity sets the quantity to max(1, quantity).
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = quantity
			break
		}
	}
	s.persist(ctx)
}

// ClearCart empties the cart and deletes the persisted record.
func (s *Store) ClearCart(ctx context.Context) {
	s.items = nil
	if err := s.storage.Remove(ctx, s.key); err != nil {
		s.logger.WarnContext(ctx, "cart remove failed", "cart", s.key, "error", err)
	}
}

func (s *Store) Items() []models.CartItem {
	out := make([]models.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Contains(id string) bool {
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (s *Store) TotalCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) persist(ctx context.Context) {
	items := s.items
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.WarnContext(ctx, "cart marshal failed", "cart", s.key, "error", err)
		return
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		s.logger.WarnContext(ctx, "cart save failed", "cart", s.key, "error", err)
	}
}
