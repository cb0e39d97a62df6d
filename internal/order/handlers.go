package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-candy/internal/common"
)

const maxPerPage = 100

// Handler exposes order endpoints. Create is public; the rest are mounted
// behind the admin role.
type Handler struct {
	Svc            *Service
	DefaultPerPage int
}

// Create handles POST /api/v1/orders.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// List handles GET /api/v1/orders.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	def := h.DefaultPerPage
	if def <= 0 {
		def = 20
	}
	page := common.ReadPage(r, def, maxPerPage)
	res, err := h.Svc.List(r.Context(), r.URL.Query().Get("status"), page.Number, page.Size)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, res.Items, page.Meta(res.Total))
}

// Get handles GET /api/v1/orders/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Update handles PATCH /api/v1/orders/{id}.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

type patchStatusRequest struct {
	Status Status `json:"status"`
}

// PatchStatus handles PATCH /api/v1/orders/{id}/status.
func (h Handler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	var req patchStatusRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
		return
	}
	out, err := h.Svc.PatchStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// Delete handles DELETE /api/v1/orders/{id}.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
