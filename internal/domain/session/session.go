// Package session defines the per-shopper key-value store that holds cart
// lines and the applied promocode between requests.
package session

import (
	"context"
)

// Well-known keys stored for every session.
const (
	KeyCart      = "cart"
	KeyPromocode = "appliedPromocode"
)

// Store is a string key-value store. Writes are last-writer-wins; no locking
// is provided across keys.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Scoped is a Store view restricted to a single session id.
type Scoped struct {
	store  Store
	prefix string
}

// Scope returns a view of store whose keys are namespaced by sid.
func Scope(store Store, sid string) *Scoped {
	return &Scoped{store: store, prefix: "session:" + sid + ":"}
}

// Get implements Store.
func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.Get(ctx, s.prefix+key)
}

// Set implements Store.
func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

// Remove implements Store.
func (s *Scoped) Remove(ctx context.Context, key string) error {
	return s.store.Remove(ctx, s.prefix+key)
}
