package promocode

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/honey-market/internal/domain/session"
)

// Store persists the applied promocode of one session so that it survives
// the move from the cart to checkout.
type Store struct {
	kv    session.Store
	codes *Set
}

// NewStore returns a Store over the session-scoped kv using the Default
// allow-list.
func NewStore(kv session.Store) *Store {
	return &Store{kv: kv, codes: Default}
}

// Apply validates and persists code. Invalid codes leave the stored value
// untouched and return ErrInvalid.
func (s *Store) Apply(ctx context.Context, code string) (string, error) {
	if !s.codes.Contains(code) {
		return "", ErrInvalid
	}
	n := Normalize(code)
	if err := s.kv.Set(ctx, session.KeyPromocode, n); err != nil {
		return "", errors.Wrap(err, "save promocode")
	}
	return n, nil
}

// Load returns the persisted code, or "" when none is applied. A stored
// value that is no longer valid is removed and reported as "".
func (s *Store) Load(ctx context.Context) (string, error) {
	code, ok, err := s.kv.Get(ctx, session.KeyPromocode)
	if err != nil {
		return "", errors.Wrap(err, "load promocode")
	}
	if !ok {
		return "", nil
	}
	if !s.codes.Contains(code) {
		if err := s.kv.Remove(ctx, session.KeyPromocode); err != nil {
			return "", errors.Wrap(err, "clear stale promocode")
		}
		return "", nil
	}
	return Normalize(code), nil
}

// Clear removes any applied code.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, session.KeyPromocode); err != nil {
		return errors.Wrap(err, "clear promocode")
	}
	return nil
}
