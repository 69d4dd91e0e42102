package cart

import (
	"context"
	"errors"

	"github.com/Makepad-fr/gomarket/internal/store"
)

// ErrNoProvider is returned by Use when ctx carries no cart.
var ErrNoProvider = errors.New("cart: Use must be called within a cart provider")

type ctxKey struct{}

// Provide builds a Store over kv and attaches it to ctx. The returned store is
// still empty; its owner calls Load.
func Provide(ctx context.Context, kv store.KV, opts ...Option) (context.Context, *Store) {
	s := New(kv, opts...)
	return WithCart(ctx, s), s
}

// WithCart attaches c to ctx.
func WithCart(ctx context.Context, c Cart) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Use returns the cart attached to ctx by the nearest provider.
func Use(ctx context.Context) (Cart, error) {
	c, ok := ctx.Value(ctxKey{}).(Cart)
	if !ok || c == nil {
		return nil, ErrNoProvider
	}
	return c, nil
}

// MustUse is Use for call sites where a missing provider is a wiring bug.
func MustUse(ctx context.Context) Cart {
	c, err := Use(ctx)
	if err != nil {
		panic(err)
	}
	return c
}
