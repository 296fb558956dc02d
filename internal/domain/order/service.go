package order

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/pricing"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/promocode"
	"github.com/xenking/honey-market/internal/domain/session"
)

// InvalidCustomerError lists the checkout fields that failed validation.
type InvalidCustomerError struct {
	Fields []string
}

func (e *InvalidCustomerError) Error() string {
	return fmt.Sprintf("invalid customer details: %s", strings.Join(e.Fields, ", "))
}

// View is the priced state of a session's cart as shown on the cart or the
// checkout page.
type View struct {
	Lines  []cart.Line
	Totals pricing.Totals
	// Currency of the priced lines; all products share one currency.
	Currency string
	// FreeDeliveryGap is how much more must be spent for free delivery, or
	// zero when delivery is already free or the cart is empty.
	FreeDeliveryGap decimal.Decimal
}

// Service owns the cart and checkout views and order placement. Both views
// re-derive totals from the live session state on every call.
type Service struct {
	products product.Repository
	sessions session.Store
	orders   Repository
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	sessions session.Store,
	orders Repository,
) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &Service{
		products: products,
		sessions: sessions,
		orders:   orders,
		validate: v,
		now:      time.Now,
	}
}

// snapshot reads the session's cart lines and applied promocode and fetches
// the referenced products.
func (s *Service) snapshot(ctx context.Context, sid string) ([]cart.Line, string, []product.Product, error) {
	kv := session.Scope(s.sessions, sid)

	lines, err := cart.NewStore(kv).Load(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	code, err := promocode.NewStore(kv).Load(ctx)
	if err != nil {
		return nil, "", nil, err
	}
	if len(lines) == 0 {
		return nil, code, nil, nil
	}

	ids := make([]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, "", nil, errors.Wrap(err, "get products")
	}
	return lines, code, products, nil
}

func newView(lines []cart.Line, totals pricing.Totals) *View {
	v := &View{
		Lines:           lines,
		Totals:          totals,
		Currency:        product.DefaultCurrency,
		FreeDeliveryGap: decimal.Zero,
	}
	if len(totals.Lines) > 0 {
		v.Currency = totals.Lines[0].Product.Currency
	}
	if totals.Delivery.IsPositive() {
		v.FreeDeliveryGap = pricing.FreeDeliveryThreshold.Sub(totals.ItemsTotal)
	}
	return v
}

// CartView prices the session's cart for the cart page.
func (s *Service) CartView(ctx context.Context, sid string) (*View, error) {
	lines, code, products, err := s.snapshot(ctx, sid)
	if err != nil {
		return nil, errors.Wrap(err, "cart snapshot")
	}
	totals := pricing.ComputeTotals(lines, pricing.MapResolver(products), code)
	logDropped(ctx, lines, totals)
	return newView(lines, totals), nil
}

// CheckoutView prices the session's cart for the checkout page.
func (s *Service) CheckoutView(ctx context.Context, sid string) (*View, error) {
	lines, code, products, err := s.snapshot(ctx, sid)
	if err != nil {
		return nil, errors.Wrap(err, "checkout snapshot")
	}
	totals := pricing.ComputeTotals(lines, pricing.MapResolver(products), code)
	logDropped(ctx, lines, totals)
	return newView(lines, totals), nil
}

func logDropped(ctx context.Context, lines []cart.Line, totals pricing.Totals) {
	if n := len(lines) - len(totals.Lines); n > 0 {
		zctx.From(ctx).Debug("Ignoring cart lines of removed products", zap.Int("count", n))
	}
}

// PlaceOrder validates the customer details, prices the session's cart the
// same way the checkout view does, persists the order, and empties the cart
// and the applied promocode.
func (s *Service) PlaceOrder(ctx context.Context, sid string, customer Customer) (*Order, error) {
	if err := s.validateCustomer(customer); err != nil {
		return nil, err
	}

	view, err := s.CheckoutView(ctx, sid)
	if err != nil {
		return nil, err
	}
	if len(view.Totals.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	now := s.now().UTC()
	t := view.Totals
	o := &Order{
		ID:         uuid.New().String(),
		SessionID:  sid,
		Customer:   customer,
		Lines:      orderLines(t.Lines),
		ItemsTotal: t.ItemsTotal,
		Delivery:   t.Delivery,
		Tax:        t.Tax,
		Discount:   t.Discount,
		Total:      t.Total,
		Promocode:  t.Promocode,
		Currency:   view.Currency,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	kv := session.Scope(s.sessions, sid)
	if err := cart.NewStore(kv).Clear(ctx); err != nil {
		return nil, err
	}
	if err := promocode.NewStore(kv).Clear(ctx); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) validateCustomer(c Customer) error {
	err := s.validate.Struct(c)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.Wrap(err, "validate customer")
	}
	fields := make([]string, len(ve))
	for i, fe := range ve {
		fields[i] = fe.Field()
	}
	return &InvalidCustomerError{Fields: fields}
}

func orderLines(lines []pricing.LineTotal) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Weight:    l.Weight,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Featured:  l.Featured,
			Total:     l.Total,
		}
	}
	return out
}

// Get returns an order by id.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// ListBySession returns the orders placed from a session, newest first.
func (s *Service) ListBySession(ctx context.Context, sid string) ([]Order, error) {
	return s.orders.ListBySession(ctx, sid)
}

// UpdateStatus moves an order along its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, ErrInvalidTransition
	}
	now := s.now().UTC()
	if err := s.orders.UpdateStatus(ctx, id, o.Status, status, now); err != nil {
		if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "update order status")
	}
	o.Status = status
	o.UpdatedAt = now
	return o, nil
}
