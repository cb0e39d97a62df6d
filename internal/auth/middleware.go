package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/noah-isme/backend-candy/internal/common"
)

var errNoToken = errors.New("auth: token missing")

// Middleware resolves the caller from a bearer header or the access cookie.
type Middleware struct {
	Service      *Service
	AccessCookie string
}

// Authenticate is the soft variant: a valid token puts the caller on the
// context, anything else leaves the request anonymous.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx, err := m.resolve(r); err == nil {
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects anonymous callers with 401.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := m.resolve(r)
		if err != nil {
			unauthorized(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is RequireAuth plus a 403 for callers holding none of roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		gate := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, _ := common.Role(r.Context())
			if !slices.Contains(roles, role) {
				common.JSONError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
		return m.RequireAuth(gate)
	}
}

// resolve returns a context carrying the caller. A caller already placed on
// the context by Authenticate is reused rather than re-parsed.
func (m Middleware) resolve(r *http.Request) (context.Context, error) {
	ctx := r.Context()
	if uid, ok := common.UserID(ctx); ok && uid != "" {
		return ctx, nil
	}
	if m.Service == nil {
		return ctx, errors.New("auth: service not configured")
	}
	raw := bearerOrCookie(r, m.AccessCookie)
	if raw == "" {
		return ctx, errNoToken
	}
	claims, err := m.Service.ParseAccessToken(raw)
	if err != nil {
		return ctx, err
	}
	return common.WithRole(common.WithUserID(ctx, claims.Subject), claims.Role), nil
}

func bearerOrCookie(r *http.Request, cookieName string) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(token)
	}
	if cookieName == "" {
		return ""
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func unauthorized(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.Is(err, errNoToken) || !errors.As(err, &appErr) {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusUnauthorized
	}
	common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
}
