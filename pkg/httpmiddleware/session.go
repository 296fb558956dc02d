package httpmiddleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session identification.
const (
	HeaderSessionID = "X-Session-ID"
	CookieSession   = "sid"
)

type sessionKey struct{}

// SessionFromContext returns the shopper session id.
func SessionFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// WithSession returns ctx carrying sid.
func WithSession(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sid)
}

// Session resolves the shopper session from the X-Session-ID header or the
// sid cookie. A fresh id is issued when neither carries a usable value; it is
// returned in both the header and a cookie that lives for maxAge.
func Session(maxAge time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := r.Header.Get(HeaderSessionID)
			if !printable(sid, 64) {
				sid = ""
				if c, err := r.Cookie(CookieSession); err == nil && printable(c.Value, 64) {
					sid = c.Value
				}
			}
			if sid == "" {
				sid = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CookieSession,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					Secure:   isHTTPS(r),
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(HeaderSessionID, sid)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sid)))
		})
	}
}

// isHTTPS reports whether the client reached us over TLS, directly or
// through a proxy that sets X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
