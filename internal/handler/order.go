package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/honey-market/internal/domain/order"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	_, sid, err := h.session(ctx)
	if err != nil {
		return err
	}
	customer, err := decodeCustomer(r)
	if err != nil {
		return err
	}
	o, err := h.orders.PlaceOrder(ctx, sid, customer)
	if err != nil {
		return err
	}

	h.metrics.orderPlaced(ctx, o.DisplayTotal().InexactFloat64(), o.Currency)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", o.ID),
		attribute.String("order.total", o.Total.String()),
	)
	return writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) error {
	_, sid, err := h.session(r.Context())
	if err != nil {
		return err
	}
	orders, err := h.orders.ListBySession(r.Context(), sid)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for i := range orders {
			encodeOrder(e, &orders[i])
		}
		e.ArrEnd()
	})
}

// getOrder returns an order to the session that placed it, or to any
// caller presenting a valid API key. Other callers see 404.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	_, sid, err := h.session(ctx)
	if err != nil {
		return err
	}
	o, err := h.orders.Get(ctx, r.PathValue("id"))
	if err != nil {
		return err
	}
	if o.SessionID != sid {
		if _, err := h.auth.Authenticate(ctx, r.Header.Get(headerAPIKey), ""); err != nil {
			return order.ErrNotFound
		}
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) error {
	req, err := h.decodeStatus(r)
	if err != nil {
		return err
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	o, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeOrder(e, o) })
}
