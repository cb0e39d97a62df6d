package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-candy/internal/common"
)

// CSRF applies double-submit protection to writes authenticated by the
// session cookie. Bearer-token requests and requests without the session
// cookie are not subject to it.
type CSRF struct {
	Header        string
	SessionCookie string
}

func (c CSRF) Middleware(next http.Handler) http.Handler {
	header := strings.TrimSpace(c.Header)
	if header == "" {
		header = "X-CSRF-Token"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(strings.ToLower(r.Header.Get("Authorization")), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}
		if c.SessionCookie != "" {
			if _, err := r.Cookie(c.SessionCookie); err != nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		token := strings.TrimSpace(r.Header.Get(header))
		cookie, err := r.Cookie(header)
		if token == "" || err != nil || cookie.Value == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_REJECTED", "missing csrf token", nil)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(cookie.Value)) != 1 {
			common.JSONError(w, http.StatusForbidden, "CSRF_REJECTED", "invalid csrf token", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
