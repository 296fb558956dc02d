package memory

import (
	"context"
	"sync"

	"github.com/xenking/honey-market/internal/domain/session"
)

var _ session.Store = (*KV)(nil)

// KV is a process-local session store.
type KV struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewKV returns an empty KV.
func NewKV() *KV {
	return &KV{m: make(map[string]string)}
}

// Get implements session.Store.
func (kv *KV) Get(_ context.Context, key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	return v, ok, nil
}

// Set implements session.Store.
func (kv *KV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
	return nil
}

// Remove implements session.Store.
func (kv *KV) Remove(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.m, key)
	return nil
}
