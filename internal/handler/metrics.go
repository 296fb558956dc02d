package handler

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are storefront business counters.
type Metrics struct {
	ordersPlaced  metric.Int64Counter
	orderRevenue  metric.Float64Counter
	promocodes    metric.Int64Counter
	cartMutations metric.Int64Counter
}

// NewMetrics registers the counters on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("github.com/xenking/honey-market/internal/handler")

	var (
		m   Metrics
		err error
	)
	if m.ordersPlaced, err = meter.Int64Counter("honey.orders.placed",
		metric.WithDescription("Orders placed"),
	); err != nil {
		return nil, errors.Wrap(err, "orders placed")
	}
	if m.orderRevenue, err = meter.Float64Counter("honey.orders.revenue",
		metric.WithDescription("Displayed grand total of placed orders"),
	); err != nil {
		return nil, errors.Wrap(err, "order revenue")
	}
	if m.promocodes, err = meter.Int64Counter("honey.promocodes",
		metric.WithDescription("Promocode applications by result"),
	); err != nil {
		return nil, errors.Wrap(err, "promocodes")
	}
	if m.cartMutations, err = meter.Int64Counter("honey.cart.mutations",
		metric.WithDescription("Cart mutations by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "cart mutations")
	}
	return &m, nil
}

func (m *Metrics) orderPlaced(ctx context.Context, total float64, currency string) {
	attrs := metric.WithAttributes(attribute.String("currency", currency))
	m.ordersPlaced.Add(ctx, 1, attrs)
	m.orderRevenue.Add(ctx, total, attrs)
}

func (m *Metrics) promocode(ctx context.Context, applied bool) {
	result := "rejected"
	if applied {
		result = "applied"
	}
	m.promocodes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) cartMutation(ctx context.Context, op string) {
	m.cartMutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
