package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/xenking/honey-market/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository keeps orders in process memory.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
}

// NewOrderRepository returns an empty OrderRepository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]*order.Order)}
}

// Create stores a copy of o.
func (r *OrderRepository) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *o
	cp.Lines = slices.Clone(o.Lines)
	r.orders[o.ID] = &cp
	return nil
}

// Get returns a copy of the order with id.
func (r *OrderRepository) Get(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	cp.Lines = slices.Clone(o.Lines)
	return &cp, nil
}

// ListBySession returns the session's orders, newest first.
func (r *OrderRepository) ListBySession(_ context.Context, sessionID string) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []order.Order
	for _, o := range r.orders {
		if o.SessionID == sessionID {
			cp := *o
			cp.Lines = slices.Clone(o.Lines)
			out = append(out, cp)
		}
	}
	slices.SortFunc(out, func(a, b order.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

// UpdateStatus sets the status of an existing order if it is still from.
func (r *OrderRepository) UpdateStatus(_ context.Context, id string, from, to order.Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	if o.Status != from {
		return order.ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
}
