package cart

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/session"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[int]*product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []int) ([]product.Product, error) {
	return nil, nil
}

type mapKV map[string]string

func (kv mapKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := kv[key]
	return v, ok, nil
}

func (kv mapKV) Set(_ context.Context, key, value string) error {
	kv[key] = value
	return nil
}

func (kv mapKV) Remove(_ context.Context, key string) error {
	delete(kv, key)
	return nil
}

// --- Helpers ---

func newHoney(id, stock int) *product.Product {
	return &product.Product{
		ID:               id,
		Name:             "Livadski med",
		Price:            decimal.NewFromInt(20),
		Weight:           "450g",
		AvailableWeights: []string{"450g", "900g"},
		InStock:          stock > 0,
		Stock:            stock,
	}
}

func newService(products ...*product.Product) *Service {
	byID := make(map[int]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return NewService(&mockProductRepo{byID: byID})
}

// --- Tests ---

func TestAdd_NewLineAndMerge(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	svc := newService(newHoney(1, 50))

	lines, err := svc.Add(ctx, kv, 1, "450g", 2)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	lines, err = svc.Add(ctx, kv, 1, "450g", 3)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)

	lines, err = svc.Add(ctx, kv, 1, "900g", 1)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	stored, err := svc.Lines(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, lines, stored)
}

func TestAdd_EmptyWeightUsesNominal(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	svc := newService(newHoney(1, 50))

	_, err := svc.Add(ctx, kv, 1, "", 1)
	require.NoError(t, err)
	lines, err := svc.Add(ctx, kv, 1, "450g", 1)
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, Line{ProductID: 1, Weight: "450g", Quantity: 2}, lines[0])
}

func TestAdd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		product *product.Product
		id      int
		weight  string
		qty     int
		wantErr error
	}{
		{name: "zero quantity", product: newHoney(1, 5), id: 1, weight: "450g", qty: 0, wantErr: ErrInvalidQuantity},
		{name: "unknown product", product: newHoney(1, 5), id: 2, weight: "450g", qty: 1, wantErr: product.ErrNotFound},
		{name: "out of stock", product: newHoney(1, 0), id: 1, weight: "450g", qty: 1, wantErr: ErrOutOfStock},
		{name: "unknown weight", product: newHoney(1, 5), id: 1, weight: "250g", qty: 1, wantErr: ErrUnknownWeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(tt.product)
			_, err := svc.Add(context.Background(), mapKV{}, tt.id, tt.weight, tt.qty)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAdd_QuantityCaps(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		first     int
		second    int
		wantLimit int
	}{
		{name: "stock below platform cap", stock: 4, first: 3, second: 2, wantLimit: 4},
		{name: "platform cap below stock", stock: 40, first: 8, second: 3, wantLimit: MaxQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := mapKV{}
			svc := newService(newHoney(7, tt.stock))

			_, err := svc.Add(ctx, kv, 7, "450g", tt.first)
			require.NoError(t, err)

			_, err = svc.Add(ctx, kv, 7, "450g", tt.second)
			var qErr *QuantityExceedsStockError
			require.ErrorAs(t, err, &qErr)
			assert.Equal(t, 7, qErr.ProductID)
			assert.Equal(t, tt.wantLimit, qErr.Limit)

			lines, err := svc.Lines(ctx, kv)
			require.NoError(t, err)
			assert.Equal(t, tt.first, lines[0].Quantity)
		})
	}
}

func TestAdd_RepositoryError(t *testing.T) {
	svc := NewService(&mockProductRepo{getErr: errors.New("db down")})
	_, err := svc.Add(context.Background(), mapKV{}, 1, "450g", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get product")
}

func TestSetQuantity(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	svc := newService(newHoney(1, 6))

	_, err := svc.SetQuantity(ctx, kv, 1, "450g", 2)
	require.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.Add(ctx, kv, 1, "450g", 1)
	require.NoError(t, err)

	lines, err := svc.SetQuantity(ctx, kv, 1, "450g", 6)
	require.NoError(t, err)
	assert.Equal(t, 6, lines[0].Quantity)

	_, err = svc.SetQuantity(ctx, kv, 1, "450g", 7)
	var qErr *QuantityExceedsStockError
	require.ErrorAs(t, err, &qErr)

	_, err = svc.SetQuantity(ctx, kv, 1, "450g", -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{}
	svc := newService(newHoney(1, 10))

	_, err := svc.Add(ctx, kv, 1, "450g", 1)
	require.NoError(t, err)
	_, err = svc.Add(ctx, kv, 1, "900g", 1)
	require.NoError(t, err)

	lines, err := svc.Remove(ctx, kv, 1, "")
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "900g", lines[0].Weight)

	lines, err = svc.Remove(ctx, kv, 99, "450g")
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, svc.Clear(ctx, kv))
	assert.NotContains(t, kv, session.KeyCart)
}

func TestStore_CorruptCartIsDropped(t *testing.T) {
	ctx := context.Background()
	kv := mapKV{session.KeyCart: `{"not":"an array"`}

	lines, err := NewStore(kv).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.NotContains(t, kv, session.KeyCart)
}

func TestStore_SkipsNonPositiveQuantities(t *testing.T) {
	kv := mapKV{session.KeyCart: `[{"productId":1,"weight":"450g","quantity":0},{"productId":2,"weight":"900g","quantity":3,"extra":true}]`}

	lines, err := NewStore(kv).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Line{{ProductID: 2, Weight: "900g", Quantity: 3}}, lines)
}

func TestTotalQuantity(t *testing.T) {
	assert.Equal(t, 0, TotalQuantity(nil))
	assert.Equal(t, 5, TotalQuantity([]Line{{Quantity: 2}, {Quantity: 3}}))
}
