package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/honey-market/internal/domain/auth"
	"github.com/xenking/honey-market/internal/domain/cart"
	"github.com/xenking/honey-market/internal/domain/order"
	"github.com/xenking/honey-market/internal/domain/product"
	"github.com/xenking/honey-market/internal/domain/promocode"
	"github.com/xenking/honey-market/pkg/httpmiddleware"
)

// requestError is a client error detected by the transport layer.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(message string) error {
	return &requestError{status: http.StatusBadRequest, message: message}
}

// statusOf maps domain errors to an HTTP status and a client-safe message.
func statusOf(err error) (int, string) {
	var (
		reqErr   *requestError
		stockErr *cart.QuantityExceedsStockError
		custErr  *order.InvalidCustomerError
	)
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status, reqErr.message
	case errors.As(err, &stockErr):
		return http.StatusUnprocessableEntity, stockErr.Error()
	case errors.As(err, &custErr):
		return http.StatusUnprocessableEntity, custErr.Error()
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound, rootMessage(err)
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrUnknownWeight),
		errors.Is(err, promocode.ErrInvalid),
		errors.Is(err, order.ErrEmptyCart):
		return http.StatusUnprocessableEntity, rootMessage(err)
	case errors.Is(err, order.ErrInvalidStatus):
		return http.StatusBadRequest, rootMessage(err)
	case errors.Is(err, order.ErrInvalidTransition):
		return http.StatusConflict, rootMessage(err)
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// rootMessage strips wrapping context from a sentinel error message.
func rootMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := statusOf(err)
	if status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.Error(err))
	}
	httpmiddleware.WriteError(w, status, message)
}
