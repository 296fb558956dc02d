package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/honey-market/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository holds API keys in memory, keyed by hash.
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[string]auth.APIKeyInfo
}

// NewAPIKeyRepository returns a repository seeded with keys.
func NewAPIKeyRepository(keys ...auth.APIKeyInfo) *APIKeyRepository {
	r := &APIKeyRepository{keys: make(map[string]auth.APIKeyInfo, len(keys))}
	for _, k := range keys {
		r.keys[k.KeyHash] = k
	}
	return r
}

// Add registers a key.
func (r *APIKeyRepository) Add(k auth.APIKeyInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[k.KeyHash] = k
}

// FindByHash looks up an API key by its HMAC-SHA256 hash.
func (r *APIKeyRepository) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[hash]
	if !ok {
		return nil, errors.New("api key not found")
	}
	return &k, nil
}
