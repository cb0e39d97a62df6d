package auth

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
)

// Handler exposes HTTP handlers for authentication.
type Handler struct {
	Service          *Service
	Logger           *zerolog.Logger
	AccessCookieName string
	CookieDomain     string
	CookieSecure     bool
	CookieSameSite   http.SameSite
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn().Err(err).Str("ip", common.ClientIP(r)).Msg("login failed")
		}
		common.WriteError(w, err)
		return
	}
	h.setAccessCookie(w, result)
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	user, err := h.Service.Me(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": user})
}

func (h *Handler) setAccessCookie(w http.ResponseWriter, result LoginResult) {
	if h.AccessCookieName == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.AccessCookieName,
		Value:    result.AccessToken,
		Domain:   h.CookieDomain,
		Path:     "/",
		Expires:  result.AccessExpiry,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: h.CookieSameSite,
	})
}
