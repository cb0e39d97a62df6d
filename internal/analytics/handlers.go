package analytics

import (
	"net/http"
	"time"

	"github.com/noah-isme/backend-candy/internal/common"
)

// Handler exposes analytics read endpoints.
type Handler struct {
	Svc *Service
}

// Summary handles GET /api/v1/admin/analytics/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
// or ?days=N.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	q := r.URL.Query()
	from, to := h.Svc.DefaultWindow()
	if days := common.QueryInt(r, "days", 0); days > 0 {
		from = to.AddDate(0, 0, -(days - 1))
	}
	var err error
	if raw := q.Get("from"); raw != "" {
		if from, err = time.Parse(dayLayout, raw); err != nil {
			common.WriteError(w, common.BadRequest("from", "expected YYYY-MM-DD", err))
			return
		}
	}
	if raw := q.Get("to"); raw != "" {
		if to, err = time.Parse(dayLayout, raw); err != nil {
			common.WriteError(w, common.BadRequest("to", "expected YYYY-MM-DD", err))
			return
		}
	}
	if to.Before(from) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "from must not be after to", nil)
		return
	}
	summary, err := h.Svc.Summary(r.Context(), from, to)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_ERROR", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}
