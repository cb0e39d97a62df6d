package packaging

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-candy/internal/common"
)

const maxPerPage = 200

// Handler exposes packaging endpoints.
type Handler struct {
	Svc            *Service
	DefaultPerPage int
}

// List handles GET /api/v1/packaging.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	def := h.DefaultPerPage
	if def < 1 {
		def = 50
	}
	page := common.ReadPage(r, def, maxPerPage)
	var available *bool
	if v := strings.TrimSpace(r.URL.Query().Get("available")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			common.WriteError(w, common.BadRequest("available", "available must be true or false", err))
			return
		}
		available = &b
	}
	items, total, err := h.Svc.List(r.Context(), available, page.Number, page.Size)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, items, page.Meta(total))
}

// Get handles GET /api/v1/packaging/{id}.
func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Create handles POST /api/v1/packaging.
func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Update handles PATCH /api/v1/packaging/{id}.
func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Delete handles DELETE /api/v1/packaging/{id}.
func (h Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
