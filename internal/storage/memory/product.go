package memory

import (
	"context"
	"slices"

	"github.com/xenking/honey-market/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository serves a catalog loaded once at start-up. It is never
// mutated afterwards, so reads need no locking.
type ProductRepository struct {
	products []product.Product
	byID     map[int]int
	bySlug   map[string]int
}

// NewProductRepository indexes products by id and slug.
func NewProductRepository(products []product.Product) *ProductRepository {
	r := &ProductRepository{
		products: slices.Clone(products),
		byID:     make(map[int]int, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}
	for i, p := range r.products {
		r.byID[p.ID] = i
		r.bySlug[p.Slug] = i
	}
	return r
}

// List returns all products in catalog order.
func (r *ProductRepository) List(_ context.Context) ([]product.Product, error) {
	out := make([]product.Product, len(r.products))
	for i := range r.products {
		out[i] = clone(r.products[i])
	}
	return out, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(_ context.Context, id int) (*product.Product, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := clone(r.products[i])
	return &p, nil
}

// GetBySlug returns a single product by its URL slug.
func (r *ProductRepository) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	i, ok := r.bySlug[slug]
	if !ok {
		return nil, product.ErrNotFound
	}
	p := clone(r.products[i])
	return &p, nil
}

// GetByIDs returns the products matching ids. Unknown ids are skipped.
func (r *ProductRepository) GetByIDs(_ context.Context, ids []int) ([]product.Product, error) {
	out := make([]product.Product, 0, len(ids))
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if i, ok := r.byID[id]; ok {
			out = append(out, clone(r.products[i]))
		}
	}
	return out, nil
}

func clone(p product.Product) product.Product {
	p.AvailableWeights = slices.Clone(p.AvailableWeights)
	return p
}
