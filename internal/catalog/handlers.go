package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-candy/internal/common"
)

// Handler exposes candy endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// List handles GET /api/v1/candies with filters and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.List(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, result.Items, common.Page{Number: result.Page, Size: result.Limit}.Meta(result.Total))
}

// Get handles GET /api/v1/candies/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	candy, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": candy})
}

// Create handles POST /api/v1/candies.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CandyInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	candy, err := h.service.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": candy})
}

// Update handles PATCH /api/v1/candies/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var patch CandyPatch
	if err := common.DecodeJSON(r, &patch); err != nil {
		common.WriteError(w, err)
		return
	}
	candy, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": candy})
}

// Delete handles DELETE /api/v1/candies/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
