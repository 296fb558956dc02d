package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/xenking/honey-market/internal/domain/promocode"
)

func (h *Handler) writeCart(w http.ResponseWriter, r *http.Request, status int) error {
	_, sid, err := h.session(r.Context())
	if err != nil {
		return err
	}
	view, err := h.orders.CartView(r.Context(), sid)
	if err != nil {
		return err
	}
	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.Int("cart.lines", len(view.Totals.Lines)),
		attribute.String("cart.total", view.Totals.Total.String()),
	)
	return writeJSON(w, status, func(e *jx.Encoder) { encodeView(e, view) })
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) error {
	return h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) error {
	kv, _, err := h.session(r.Context())
	if err != nil {
		return err
	}
	if err := h.carts.Clear(r.Context(), kv); err != nil {
		return err
	}
	h.metrics.cartMutation(r.Context(), "clear")
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// addCartItem adds units of a product. Quantity defaults to 1.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) error {
	kv, _, err := h.session(r.Context())
	if err != nil {
		return err
	}
	req, err := h.decodeCartItem(r)
	if err != nil {
		return err
	}
	if !req.hasQuantity {
		req.Quantity = 1
	}
	if _, err := h.carts.Add(r.Context(), kv, req.ProductID, req.Weight, req.Quantity); err != nil {
		return err
	}
	h.metrics.cartMutation(r.Context(), "add")
	return h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) setCartItem(w http.ResponseWriter, r *http.Request) error {
	kv, _, err := h.session(r.Context())
	if err != nil {
		return err
	}
	req, err := h.decodeCartItem(r)
	if err != nil {
		return err
	}
	if !req.hasQuantity {
		return badRequest("quantity is required")
	}
	if _, err := h.carts.SetQuantity(r.Context(), kv, req.ProductID, req.Weight, req.Quantity); err != nil {
		return err
	}
	h.metrics.cartMutation(r.Context(), "set")
	return h.writeCart(w, r, http.StatusOK)
}

// removeCartItem deletes the line named by ?productId=&weight=.
func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) error {
	kv, _, err := h.session(r.Context())
	if err != nil {
		return err
	}
	q := r.URL.Query()
	id, err := strconv.Atoi(q.Get("productId"))
	if err != nil || id <= 0 {
		return badRequest("productId must be a positive integer")
	}
	if _, err := h.carts.Remove(r.Context(), kv, id, q.Get("weight")); err != nil {
		return err
	}
	h.metrics.cartMutation(r.Context(), "remove")
	return h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) applyPromocode(w http.ResponseWriter, r *http.Request) error {
	kv, _, err := h.session(r.Context())
	if err != nil {
		return err
	}
	req, err := h.decodePromocode(r)
	if err != nil {
		return err
	}
	code, err := promocode.NewStore(kv).Apply(r.Context(), req.Code)
	h.metrics.promocode(r.Context(), err == nil)
	if err != nil {
		return err
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("promocode", code))
	return h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) clearPromocode(w http.ResponseWriter, r *http.Request) error {
	kv, _, err := h.session(r.Context())
	if err != nil {
		return err
	}
	if err := promocode.NewStore(kv).Clear(r.Context()); err != nil {
		return err
	}
	return h.writeCart(w, r, http.StatusOK)
}

func (h *Handler) getCheckout(w http.ResponseWriter, r *http.Request) error {
	_, sid, err := h.session(r.Context())
	if err != nil {
		return err
	}
	view, err := h.orders.CheckoutView(r.Context(), sid)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeView(e, view) })
}
