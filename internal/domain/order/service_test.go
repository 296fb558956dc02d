package order

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/promocode"
	"github.com/xenking/honey-market/internal/domain/session"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[int]product.Product
	getErr error
}

func (m *mockProductRepo) List(_ context.Context) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetBySlug(_ context.Context, _ string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []int) ([]product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockOrderRepo struct {
	mu        sync.Mutex
	byID      map[string]*Order
	createErr error
}

func newOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{byID: make(map[string]*Order)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) ListBySession(_ context.Context, sid string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.byID {
		if o.SessionID == sid {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id string, from, to Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrInvalidTransition
	}
	o.Status = to
	o.UpdatedAt = at
	return nil
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

const sid = "3f2a1c1e-9a7b-4c1d-8e2f-0a1b2c3d4e5f"

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newCatalog() *mockProductRepo {
	a := product.Product{
		ID: 1, Slug: "sumski-med-tuzla", Name: "Šumski med",
		Price: d("20"), Weight: "450g", AvailableWeights: []string{"450g", "900g"},
		CategorySlug: "sumski-med", Seller: product.Seller{ID: 1, Location: "Tuzla"},
		Rating: 4.8, InStock: true, Stock: 30, Currency: "KM",
	}
	b := product.Product{
		ID: 2, Slug: "livadski-med", Name: "Livadski med",
		Price: d("15"), Weight: "450g", AvailableWeights: []string{"450g", "900g"},
		CategorySlug: "livadski-med", Seller: product.Seller{ID: 2, Location: "Mostar"},
		Rating: 4.1, InStock: true, Stock: 30, Currency: "KM",
	}
	return &mockProductRepo{byID: map[int]product.Product{1: a, 2: b}}
}

type fixture struct {
	svc      *Service
	kv       mapKV
	products *mockProductRepo
	orders   *mockOrderRepo
	cart     *cart.Service
	scoped   session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := newCatalog()
	kv := mapKV{}
	orders := newOrderRepo()
	svc := NewService(products, kv, orders)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return &fixture{
		svc:      svc,
		kv:       kv,
		products: products,
		orders:   orders,
		cart:     cart.NewService(products),
		scoped:   session.Scope(kv, sid),
	}
}

func (f *fixture) add(t *testing.T, id int, weight string, qty int) {
	t.Helper()
	_, err := f.cart.Add(context.Background(), f.scoped, id, weight, qty)
	require.NoError(t, err)
}

func (f *fixture) applyCode(t *testing.T, code string) {
	t.Helper()
	_, err := promocode.NewStore(f.scoped).Apply(context.Background(), code)
	require.NoError(t, err)
}

func validCustomer() Customer {
	return Customer{
		Name:    "Amra Hodžić",
		Email:   "amra@example.ba",
		Phone:   "+38761123456",
		Address: "Maršala Tita 1",
		City:    "Sarajevo",
	}
}

// --- Tests ---

func TestCartAndCheckoutViewsAgree(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, 1, "450g", 2)
	f.add(t, 2, "900g", 1)
	f.applyCode(t, "KOSNICA10")

	cartView, err := f.svc.CartView(ctx, sid)
	require.NoError(t, err)
	checkoutView, err := f.svc.CheckoutView(ctx, sid)
	require.NoError(t, err)

	assert.True(t, cartView.Totals.Equal(checkoutView.Totals))
	assert.True(t, cartView.Totals.DisplayTotal().Equal(checkoutView.Totals.DisplayTotal()))

	// featured 20 -> 17 x2 = 34; 15 @900g = 30; items 64
	ct := cartView.Totals
	assert.True(t, d("64").Equal(ct.ItemsTotal), "items %s", ct.ItemsTotal)
	assert.True(t, d("0").Equal(ct.Delivery))
	assert.True(t, d("10.88").Equal(ct.Tax))
	assert.True(t, d("6.4").Equal(ct.Discount))
	assert.True(t, d("68.48").Equal(ct.Total))
	assert.Equal(t, "kosnica10", ct.Promocode)
	assert.Equal(t, "KM", cartView.Currency)
	assert.True(t, cartView.FreeDeliveryGap.IsZero())
}

func TestCartView_StaleProductIgnored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, 1, "450g", 1)
	f.kv["session:"+sid+":"+session.KeyCart] = `[{"productId":1,"weight":"450g","quantity":1},{"productId":77,"weight":"450g","quantity":4}]`

	view, err := f.svc.CartView(ctx, sid)
	require.NoError(t, err)

	assert.Len(t, view.Lines, 2)
	require.Len(t, view.Totals.Lines, 1)
	assert.True(t, d("17").Equal(view.Totals.ItemsTotal))
	assert.True(t, d("33").Equal(view.FreeDeliveryGap))
}

func TestCartView_EmptyCart(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.CartView(context.Background(), sid)
	require.NoError(t, err)
	assert.Empty(t, view.Totals.Lines)
	assert.True(t, view.Totals.Total.IsZero())
	assert.True(t, view.FreeDeliveryGap.IsZero())
}

func TestCheckoutView_ProductLookupError(t *testing.T) {
	f := newFixture(t)
	f.add(t, 1, "450g", 1)
	f.svc.products = &mockProductRepo{getErr: errors.New("db down")}

	_, err := f.svc.CheckoutView(context.Background(), sid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get products")
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, 1, "900g", 1)
	f.applyCode(t, "promo")

	checkout, err := f.svc.CheckoutView(ctx, sid)
	require.NoError(t, err)

	o, err := f.svc.PlaceOrder(ctx, sid, validCustomer())
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, sid, o.SessionID)
	assert.True(t, checkout.Totals.Total.Equal(o.Total))
	assert.True(t, checkout.Totals.Discount.Equal(o.Discount))
	assert.Equal(t, "promo", o.Promocode)
	require.Len(t, o.Lines, 1)
	assert.Equal(t, "Šumski med", o.Lines[0].Name)
	assert.True(t, d("34").Equal(o.Lines[0].UnitPrice))
	assert.Contains(t, f.orders.byID, o.ID)

	// Cart and promocode are cleared after submission.
	view, err := f.svc.CartView(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)
	assert.Empty(t, view.Totals.Promocode)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), sid, validCustomer())
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_InvalidCustomer(t *testing.T) {
	f := newFixture(t)
	f.add(t, 1, "450g", 1)

	c := validCustomer()
	c.Email = "not-an-email"
	c.City = ""

	_, err := f.svc.PlaceOrder(context.Background(), sid, c)
	var icErr *InvalidCustomerError
	require.ErrorAs(t, err, &icErr)
	assert.ElementsMatch(t, []string{"email", "city"}, icErr.Fields)
	assert.Empty(t, f.orders.byID)
}

func TestPlaceOrder_CreateError(t *testing.T) {
	f := newFixture(t)
	f.add(t, 1, "450g", 1)
	f.orders.createErr = errors.New("db write failed")

	_, err := f.svc.PlaceOrder(context.Background(), sid, validCustomer())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")

	// Cart survives a failed submission.
	lines, err := f.cart.Lines(context.Background(), f.scoped)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, 2, "450g", 1)
	o, err := f.svc.PlaceOrder(ctx, sid, validCustomer())
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	for _, st := range []Status{StatusProcessing, StatusShipped, StatusDelivered} {
		got, err := f.svc.UpdateStatus(ctx, o.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusCancelled)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, "missing", StatusProcessing)
	require.ErrorIs(t, err, ErrNotFound)
}

// barrierRepo holds every Get until n callers have read the order, so
// concurrent transitions all start from the same status.
type barrierRepo struct {
	*mockOrderRepo
	reads sync.WaitGroup
}

func (b *barrierRepo) Get(ctx context.Context, id string) (*Order, error) {
	o, err := b.mockOrderRepo.Get(ctx, id)
	b.reads.Done()
	b.reads.Wait()
	return o, err
}

func TestUpdateStatus_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, 2, "450g", 1)
	o, err := f.svc.PlaceOrder(ctx, sid, validCustomer())
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, o.ID, StatusProcessing)
	require.NoError(t, err)

	repo := &barrierRepo{mockOrderRepo: f.orders}
	repo.reads.Add(2)
	svc := NewService(f.products, f.kv, repo)

	targets := []Status{StatusShipped, StatusCancelled}
	errs := make([]error, len(targets))
	var wg sync.WaitGroup
	for i, st := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.UpdateStatus(ctx, o.ID, st)
		}()
	}
	wg.Wait()

	var won []Status
	for i, err := range errs {
		if err == nil {
			won = append(won, targets[i])
			continue
		}
		require.ErrorIs(t, err, ErrInvalidTransition)
	}
	require.Len(t, won, 1)

	got, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, won[0], got.Status)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusPending, StatusShipped, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	_, err = ParseStatus("lost")
	require.ErrorIs(t, err, ErrInvalidStatus)
}
