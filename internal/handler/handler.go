// Package handler exposes the storefront over HTTP: catalog browsing, the
// session cart, promocodes, checkout and orders.
package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/honey-market/internal/domain/auth"
	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/order"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/session"
	"github.com/xenking/honey-market/pkg/httpmiddleware"
)

// Config holds telemetry providers. Nil providers disable instrumentation.
type Config struct {
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Handler serves the storefront API.
type Handler struct {
	products product.Repository
	carts    *cart.Service
	orders   *order.Service
	sessions session.Store
	auth     *auth.Authenticator
	validate *validator.Validate
	metrics  *Metrics

	mp metric.MeterProvider
	tp trace.TracerProvider
}

// New constructs a Handler over the domain services.
func New(
	cfg Config,
	products product.Repository,
	carts *cart.Service,
	orders *order.Service,
	sessions session.Store,
	authn *auth.Authenticator,
) (*Handler, error) {
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = noop.NewMeterProvider()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}
	m, err := NewMetrics(cfg.MeterProvider)
	if err != nil {
		return nil, errors.Wrap(err, "metrics")
	}
	return &Handler{
		products: products,
		carts:    carts,
		orders:   orders,
		sessions: sessions,
		auth:     authn,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
		mp:       cfg.MeterProvider,
		tp:       cfg.TracerProvider,
	}, nil
}

// Routes returns the API mux. Routes expect httpmiddleware.Session to run
// in front of them.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	routes := []struct {
		pattern string
		fn      func(http.ResponseWriter, *http.Request) error
	}{
		{"GET /api/products", h.listProducts},
		{"GET /api/products/{ref}", h.getProduct},
		{"GET /api/products/{ref}/price", h.quotePrice},

		{"GET /api/cart", h.getCart},
		{"DELETE /api/cart", h.clearCart},
		{"POST /api/cart/items", h.addCartItem},
		{"PUT /api/cart/items", h.setCartItem},
		{"DELETE /api/cart/items", h.removeCartItem},

		{"POST /api/promocode", h.applyPromocode},
		{"DELETE /api/promocode", h.clearPromocode},

		{"GET /api/checkout", h.getCheckout},

		{"POST /api/orders", h.placeOrder},
		{"GET /api/orders", h.listOrders},
		{"GET /api/orders/{id}", h.getOrder},
		{"PATCH /api/orders/{id}/status", h.requireKey(auth.ScopeOrders, h.updateOrderStatus)},
	}
	for _, rt := range routes {
		mux.Handle(rt.pattern, otelhttp.NewHandler(h.serve(rt.fn), rt.pattern,
			otelhttp.WithMeterProvider(h.mp),
			otelhttp.WithTracerProvider(h.tp),
		))
	}
	return mux
}

// serve adapts an error-returning handler, writing mapped errors.
func (h *Handler) serve(fn func(http.ResponseWriter, *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(r.Context(), w, err)
		}
	})
}

// session returns the session-scoped store of the current shopper.
func (h *Handler) session(ctx context.Context) (session.Store, string, error) {
	sid := httpmiddleware.SessionFromContext(ctx)
	if sid == "" {
		return nil, "", badRequest("missing session")
	}
	return session.Scope(h.sessions, sid), sid, nil
}
