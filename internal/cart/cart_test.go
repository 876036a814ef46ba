package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"koperasihub/internal/models"
	"koperasihub/internal/store"
	"koperasihub/internal/store/memory"

	"github.com/shopspring/decimal"
)

func item(id string, price int64, qty int) models.CartItem {
	return models.CartItem{ID: id, Name: "Item " + id, Price: decimal.NewFromInt(price), Quantity: qty}
}

func TestAddItemMerges(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	c := Open(ctx, st, "k", nil)

	c.AddItem(ctx, item("p1", 1000, 2))
	c.AddItem(ctx, item("p1", 1000, 3))

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	if items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", items[0].Quantity)
	}

	reopened := Open(ctx, st, "k", nil)
	if reopened.TotalCount() != 5 {
		t.Fatalf("expected persisted count 5, got %d", reopened.TotalCount())
	}
}

func TestAddItemDefaultsQuantity(t *testing.T) {
	ctx := context.Background()
	c := Open(ctx, memory.NewStore(), "k", nil)
	c.AddItem(ctx, item("p1", 10, 0))
	if c.TotalCount() != 1 {
		t.Fatalf("expected quantity to default to 1, got %d", c.TotalCount())
	}
}

func TestUpdateQuantityClamps(t *testing.T) {
	ctx := context.Background()
	c := Open(ctx, memory.NewStore(), "k", nil)
	c.AddItem(ctx, item("p1", 10, 4))

	for _, qty := range []int{0, -3} {
		c.UpdateQuantity(ctx, "p1", qty)
		if got := c.Items()[0].Quantity; got != 1 {
			t.Fatalf("quantity %d: expected clamp to 1, got %d", qty, got)
		}
	}
	c.UpdateQuantity(ctx, "p1", 7)
	if got := c.Items()[0].Quantity; got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	c := Open(ctx, memory.NewStore(), "k", nil)
	c.AddItem(ctx, item("p1", 10, 1))
	c.AddItem(ctx, item("p2", 20, 1))

	c.RemoveItem(ctx, "missing")
	if len(c.Items()) != 2 {
		t.Fatalf("expected cart to be unchanged")
	}
	c.RemoveItem(ctx, "p1")
	if len(c.Items()) != 1 || c.Items()[0].ID != "p2" {
		t.Fatalf("expected only p2 to remain, got %+v", c.Items())
	}
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	c := Open(ctx, memory.NewStore(), "k", nil)
	c.AddItem(ctx, item("p1", 100000, 2))
	c.AddItem(ctx, item("p2", 50000, 1))

	if !c.TotalPrice().Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected 250000, got %s", c.TotalPrice())
	}
	if c.TotalCount() != 3 {
		t.Fatalf("expected count 3, got %d", c.TotalCount())
	}

	c.UpdateQuantity(ctx, "p2", 3)
	if !c.TotalPrice().Equal(decimal.NewFromInt(350000)) {
		t.Fatalf("expected totals to follow updates, got %s", c.TotalPrice())
	}
}

func TestFractionalPrices(t *testing.T) {
	ctx := context.Background()
	c := Open(ctx, memory.NewStore(), "k", nil)
	c.AddItem(ctx, models.CartItem{ID: "p1", Price: decimal.RequireFromString("0.1"), Quantity: 3})
	if !c.TotalPrice().Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("expected exact 0.3, got %s", c.TotalPrice())
	}
}

func TestClearCartRemovesRecord(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	c := Open(ctx, st, "k", nil)
	c.AddItem(ctx, item("p1", 10, 2))
	if !st.Has("k") {
		t.Fatalf("expected record to be persisted")
	}

	c.ClearCart(ctx)
	if c.TotalCount() != 0 {
		t.Fatalf("expected empty cart, got %d", c.TotalCount())
	}
	if st.Has("k") {
		t.Fatalf("expected record to be removed")
	}
}

func TestMalformedRecordLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	for _, raw := range []string{`not json`, `{"id":"p1"}`, `[{"id":"p1","price":"abc"}]`, ``} {
		st := memory.NewStore()
		_ = st.Save(ctx, "k", []byte(raw))
		c := Open(ctx, st, "k", nil)
		if c.TotalCount() != 0 || len(c.Items()) != 0 {
			t.Fatalf("%q: expected empty cart", raw)
		}
	}
}

func TestLoadNormalizesRecord(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	_ = st.Save(ctx, "k", []byte(`[{"id":"p1","price":5,"quantity":1},{"id":"p1","price":5,"quantity":2},{"id":"","quantity":9},{"id":"p2","price":1,"quantity":0}]`))

	c := Open(ctx, st, "k", nil)
	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 entries, got %+v", items)
	}
	if items[0].Quantity != 3 || items[1].Quantity != 1 {
		t.Fatalf("unexpected quantities %+v", items)
	}
}

type failingStorage struct{}

func (failingStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingStorage) Save(ctx context.Context, key string, data []byte) error {
	return errors.New("quota exceeded")
}

func (failingStorage) Remove(ctx context.Context, key string) error {
	return errors.New("quota exceeded")
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	c := Open(ctx, failingStorage{}, "k", nil)
	c.AddItem(ctx, item("p1", 10, 2))
	if c.TotalCount() != 2 {
		t.Fatalf("in-memory cart must keep working, got %d", c.TotalCount())
	}
	c.ClearCart(ctx)
	if c.TotalCount() != 0 {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestServiceSerializesPerKey(t *testing.T) {
	ctx := context.Background()
	st := memory.NewStore()
	svc := NewService(st, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Do(ctx, "visitor", func(c *Store) {
				c.AddItem(ctx, item("p1", 10, 1))
			})
		}()
	}
	wg.Wait()

	snap := svc.Get(ctx, "visitor")
	if snap.TotalCount != 20 {
		t.Fatalf("expected 20 after concurrent adds, got %d", snap.TotalCount)
	}
	if len(svc.locks) != 0 {
		t.Fatalf("expected key locks to be released, got %d", len(svc.locks))
	}
	if _, err := st.Load(ctx, "other"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected other keys to be untouched")
	}
}
