package audit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	Store Store
}

type logView struct {
	ID           string         `json:"id"`
	ActorKind    string         `json:"actorKind"`
	ActorUserID  *string        `json:"actorUserId,omitempty"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resourceType"`
	ResourceID   *string        `json:"resourceId,omitempty"`
	Method       string         `json:"method"`
	Path         string         `json:"path"`
	Status       int32          `json:"status"`
	RequestID    *string        `json:"requestId,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// List handles GET /api/v1/admin/audit?resource=candies&page=1&limit=50.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_NOT_CONFIGURED", "audit store not configured", nil)
		return
	}
	page := common.ReadPage(r, 50, 200)
	params := dbgen.ListAuditLogsParams{Limit: int32(page.Size), Offset: int32(page.Offset())}
	if resource := strings.TrimSpace(r.URL.Query().Get("resource")); resource != "" {
		params.ResourceType = pgtype.Text{String: resource, Valid: true}
	}

	rows, err := h.Store.ListAuditLogs(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "AUDIT_QUERY_FAILED", "unable to fetch audit logs", nil)
		return
	}
	out := make([]logView, 0, len(rows))
	for _, row := range rows {
		out = append(out, toView(row))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out, "page": page.Number, "limit": page.Size})
}

func toView(row dbgen.AuditLog) logView {
	v := logView{
		ID:           common.UUIDString(row.ID),
		ActorKind:    row.ActorKind,
		Action:       row.Action,
		ResourceType: row.ResourceType,
		Method:       row.Method,
		Path:         row.Path,
		Status:       row.Status,
		ResourceID:   common.TextPtr(row.ResourceID),
		RequestID:    common.TextPtr(row.RequestID),
		CreatedAt:    common.Time(row.CreatedAt).UTC(),
	}
	if id := common.UUIDString(row.ActorUserID); id != "" {
		v.ActorUserID = &id
	}
	if len(row.Metadata) > 0 {
		_ = json.Unmarshal(row.Metadata, &v.Metadata)
	}
	return v
}
