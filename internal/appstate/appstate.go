// Package appstate is the application-state container handed to handlers.
// Handlers depend on these interfaces only, so the cart persistence backend or
// the identity source can change without touching them.
package appstate

import (
	"context"

	"koperasihub/internal/cart"
	"koperasihub/internal/models"
)

type CartStore interface {
	AddItem(ctx context.Context, item models.CartItem) cart.Snapshot
	RemoveItem(ctx context.Context, id string) cart.Snapshot
	UpdateQuantity(ctx context.Context, id string, quantity int) cart.Snapshot
	ClearCart(ctx context.Context) cart.Snapshot
	Snapshot(ctx context.Context) cart.Snapshot
}

type AuthStore interface {
	SetUser(user models.User)
	User() (models.User, bool)
	Logout(ctx context.Context)
}

type State struct {
	Cart CartStore
	Auth AuthStore
}

type contextKey struct{}

func WithState(ctx context.Context, state State) context.Context {
	return context.WithValue(ctx, contextKey{}, state)
}

func FromContext(ctx context.Context) (State, bool) {
	value := ctx.Value(contextKey{})
	if value == nil {
		return State{}, false
	}
	state, ok := value.(State)
	return state, ok
}
