// Package cart holds the shopping-cart state: an ordered list of line items,
// loaded once from a key/value store and written back in full after every
// mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/gomarket/internal/model"
	"github.com/Makepad-fr/gomarket/internal/store"
)

// StorageKey is the single slot the cart is persisted under.
const StorageKey = "@GoMarketplace:products"

var (
	// ErrCorruptState means the persisted value could not be decoded. The cart
	// falls back to empty.
	ErrCorruptState = errors.New("cart: stored products are not valid JSON")
	// ErrPersist wraps a failed write. The in-memory mutation still applies.
	ErrPersist = errors.New("cart: persist products")
)

// Cart is what a rendering layer gets from Use.
type Cart interface {
	Products() []model.LineItem
	AddToCart(ctx context.Context, item model.LineItem) error
	Increment(ctx context.Context, id string) error
	Decrement(ctx context.Context, id string) error
}

// Snapshot is a copy of the list as of one commit. Rev grows with every load
// and mutation, so a renderer can drop snapshots older than what it shows.
type Snapshot struct {
	Items []model.LineItem
	Rev   uint64
}

// Store owns the cart state. All mutations are read-modify-write under one
// lock, and the write to kv happens inside the same critical section, so the
// persisted value always matches the last committed list.
type Store struct {
	kv  store.KV
	log logrus.FieldLogger

	mu    sync.Mutex
	items []model.LineItem
	rev   uint64
	subs  []func(Snapshot)
}

var _ Cart = (*Store)(nil)

type Option func(*Store)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) { s.log = log }
}

// New returns an empty store. Call Load to install the persisted cart.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		log:   logrus.StandardLogger(),
		items: []model.LineItem{},
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.WithFields(logrus.Fields{"component": "cart", "key": StorageKey})
	return s
}

// Load replaces the in-memory list with what was last persisted. An absent key
// yields an empty cart; so does an undecodable value, in which case the error
// wraps ErrCorruptState. Stored entries with a quantity below one are dropped.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		s.items = []model.LineItem{}
		s.notify()
		return fmt.Errorf("cart: load products: %w", err)
	}
	if !ok {
		s.items = []model.LineItem{}
		s.log.Debug("no stored products")
		s.notify()
		return nil
	}

	var items []model.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.items = []model.LineItem{}
		s.log.WithError(err).Warn("stored products unreadable, starting empty")
		s.notify()
		return fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	s.items = positive(items)
	s.log.WithField("count", len(s.items)).Debug("products loaded")
	s.notify()
	return nil
}

// Products returns a copy of the current list.
func (s *Store) Products() []model.LineItem {
	return s.Snapshot().Items
}

// Snapshot returns the current list together with its revision.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Items: clone(s.items), Rev: s.rev}
}

// AddToCart appends item, or bumps the quantity of the entry with the same ID
// by one. The other fields of a duplicate are ignored.
func (s *Store) AddToCart(ctx context.Context, item model.LineItem) error {
	return s.update(ctx, "add", func(items []model.LineItem) []model.LineItem {
		for i := range items {
			if items[i].ID == item.ID {
				items[i].Quantity++
				return items
			}
		}
		return append(items, item)
	})
}

// Increment adds one to every entry with the given ID. An unknown ID changes
// nothing but the list is still written.
func (s *Store) Increment(ctx context.Context, id string) error {
	return s.update(ctx, "increment", func(items []model.LineItem) []model.LineItem {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity++
			}
		}
		return items
	})
}

// Decrement takes one from the entry with the given ID. An entry at quantity
// one is removed instead.
func (s *Store) Decrement(ctx context.Context, id string) error {
	return s.update(ctx, "decrement", func(items []model.LineItem) []model.LineItem {
		for i := range items {
			if items[i].ID == id {
				items[i].Quantity--
			}
		}
		return items
	})
}

// Remove drops the entry with the given ID whatever its quantity.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.update(ctx, "remove", func(items []model.LineItem) []model.LineItem {
		out := items[:0]
		for _, it := range items {
			if it.ID != id {
				out = append(out, it)
			}
		}
		return out
	})
}

// Count is the total number of units in the cart.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total is the sum of price times quantity.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var t float64
	for _, it := range s.items {
		t += it.Subtotal()
	}
	return t
}

// Subscribe registers fn to receive a snapshot after every load and committed
// mutation. fn runs with the store locked and must neither call back into it
// nor block on something that might.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// update applies fn to a private copy, commits it, then persists. Entries with
// a quantity below one never survive a commit. A failed write is logged and
// returned but the commit stands.
func (s *Store) update(ctx context.Context, op string, fn func([]model.LineItem) []model.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = positive(fn(clone(s.items)))
	s.notify()

	b, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(b)); err != nil {
		s.log.WithError(err).WithField("op", op).Warn("products not persisted")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	s.log.WithFields(logrus.Fields{"op": op, "count": len(s.items)}).Debug("products persisted")
	return nil
}

// notify bumps the revision and fans the new state out. Callers hold s.mu.
func (s *Store) notify() {
	s.rev++
	for _, fn := range s.subs {
		fn(Snapshot{Items: clone(s.items), Rev: s.rev})
	}
}

// positive returns the entries with a quantity of at least one, never nil.
func positive(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, 0, len(items))
	for _, it := range items {
		if it.Quantity > 0 {
			out = append(out, it)
		}
	}
	return out
}

func clone(items []model.LineItem) []model.LineItem {
	out := make([]model.LineItem, len(items))
	copy(out, items)
	return out
}
