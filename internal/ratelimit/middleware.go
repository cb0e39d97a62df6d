package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-candy/internal/common"
)

// Handler enforces a limiter in front of the next handler. Limiter failures
// fail open and are reported to OnError.
type Handler struct {
	Limiter Limiter
	Scope   string
	Key     func(*http.Request) string
	OnError func(error)
}

// ByClientIP keys requests by the caller's address.
func ByClientIP(r *http.Request) string {
	return common.ClientIP(r)
}

func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		keyFn := h.Key
		if keyFn == nil {
			keyFn = ByClientIP
		}
		key := keyFn(r)
		if h.Scope != "" {
			key = h.Scope + ":" + key
		}
		d, err := h.Limiter.Allow(r.Context(), key)
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
		if !d.Allowed {
			retry := int(time.Until(d.Reset).Seconds())
			headers.Set("Retry-After", strconv.Itoa(max(retry, 0)))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
