package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const headerAPIKey = "api_key"

// requireKey guards fn with an API key carrying scope.
func (h *Handler) requireKey(scope string, fn func(http.ResponseWriter, *http.Request) error) func(http.ResponseWriter, *http.Request) error {
	return func(w http.ResponseWriter, r *http.Request) error {
		info, err := h.auth.Authenticate(r.Context(), r.Header.Get(headerAPIKey), scope)
		if err != nil {
			return err
		}
		ctx := zctx.With(r.Context(), zap.String("api_key_id", info.ID))
		return fn(w, r.WithContext(ctx))
	}
}
