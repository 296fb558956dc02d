package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/session"
)

// Service is the mutation boundary of the cart. Quantity and stock rules are
// enforced here so that pricing can treat every stored line as valid.
type Service struct {
	products product.Repository
}

// NewService creates a cart Service.
func NewService(products product.Repository) *Service {
	return &Service{products: products}
}

// Lines returns the session's cart lines.
func (s *Service) Lines(ctx context.Context, kv session.Store) ([]Line, error) {
	return NewStore(kv).Load(ctx)
}

// Add puts qty units of the product at weight into the cart. Adding an
// existing (product, weight) pair increases its quantity. An empty weight
// means the product's nominal weight.
func (s *Service) Add(ctx context.Context, kv session.Store, productID int, weight string, qty int) ([]Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, weight, err := s.resolve(ctx, productID, weight)
	if err != nil {
		return nil, err
	}

	store := NewStore(kv)
	lines, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	k := Key{ProductID: productID, Weight: weight}
	next := qty
	i := index(lines, k)
	if i >= 0 {
		next += lines[i].Quantity
	}
	if err := checkLimit(p, next); err != nil {
		return nil, err
	}

	if i >= 0 {
		lines[i].Quantity = next
	} else {
		lines = append(lines, Line{ProductID: productID, Weight: weight, Quantity: next})
	}
	if err := store.Save(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// SetQuantity replaces the quantity of an existing line.
func (s *Service) SetQuantity(ctx context.Context, kv session.Store, productID int, weight string, qty int) ([]Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, weight, err := s.resolve(ctx, productID, weight)
	if err != nil {
		return nil, err
	}

	store := NewStore(kv)
	lines, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	i := index(lines, Key{ProductID: productID, Weight: weight})
	if i < 0 {
		return nil, ErrLineNotFound
	}
	if err := checkLimit(p, qty); err != nil {
		return nil, err
	}

	lines[i].Quantity = qty
	if err := store.Save(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Remove deletes a line. Removing an absent line is not an error.
func (s *Service) Remove(ctx context.Context, kv session.Store, productID int, weight string) ([]Line, error) {
	store := NewStore(kv)
	lines, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}

	if weight == "" {
		if p, err := s.products.GetByID(ctx, productID); err == nil {
			weight = p.Weight
		}
	}
	i := index(lines, Key{ProductID: productID, Weight: weight})
	if i < 0 {
		return lines, nil
	}

	lines = append(lines[:i], lines[i+1:]...)
	if err := store.Save(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, kv session.Store) error {
	return NewStore(kv).Clear(ctx)
}

// resolve loads the product and normalises the requested weight.
func (s *Service) resolve(ctx context.Context, productID int, weight string) (*product.Product, string, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, "", product.ErrNotFound
		}
		return nil, "", errors.Wrap(err, "get product")
	}
	if !p.InStock {
		return nil, "", ErrOutOfStock
	}
	if weight == "" {
		weight = p.Weight
	}
	if !p.HasWeight(weight) {
		return nil, "", ErrUnknownWeight
	}
	return p, weight, nil
}

// Limit returns the largest quantity a single line of p may hold.
func Limit(p *product.Product) int {
	return min(p.Stock, MaxQuantity)
}

func checkLimit(p *product.Product, qty int) error {
	if limit := Limit(p); qty > limit {
		return &QuantityExceedsStockError{ProductID: p.ID, Limit: limit}
	}
	return nil
}
