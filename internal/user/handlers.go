package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-candy/internal/common"
)

// Handler exposes REST endpoints for accounts.
type Handler struct {
	Service *Service
}

// Create handles POST /api/v1/users. An authenticated admin may set the role.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "user service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	role, _ := common.Role(r.Context())
	out, err := h.Service.Create(r.Context(), in, role == common.RoleAdmin)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// List handles GET /api/v1/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := common.ReadPage(r, 20, 100)
	users, total, err := h.Service.List(r.Context(), page.Number, page.Size)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, users, page.Meta(total))
}

// Get handles GET /api/v1/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
