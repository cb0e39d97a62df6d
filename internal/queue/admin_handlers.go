package queue

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Inspector is the subset of *asynq.Inspector used by the admin endpoints.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListArchivedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	RunTask(queue, id string) error
}

// AdminHandler exposes queue management endpoints: stats, archived (dead)
// tasks and replay, plus the catalog re-derivation trigger.
type AdminHandler struct {
	Client    Client
	Inspector Inspector
	PageSize  int
	Logger    zerolog.Logger
}

type rederiveRequest struct {
	Fallback string `json:"fallback"`
	Apply    *bool  `json:"apply"`
}

// Rederive handles POST /api/v1/admin/catalog/rederive.
func (h *AdminHandler) Rederive(w http.ResponseWriter, r *http.Request) {
	var req rederiveRequest
	if r.ContentLength != 0 {
		if err := common.DecodeJSON(r, &req); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	payload := RederivePayload{Apply: true}
	if req.Apply != nil {
		payload.Apply = *req.Apply
	}
	if fb := strings.TrimSpace(req.Fallback); fb != "" {
		mode, err := pricing.ParseMode(fb)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "fallback must be by_weight or by_piece", nil)
			return
		}
		payload.Fallback = mode
	}
	info, err := h.Client.RequestRederive(r.Context(), payload)
	if err != nil {
		if errors.Is(err, ErrAlreadyQueued) {
			common.JSONError(w, http.StatusConflict, "ALREADY_QUEUED", "a re-derivation is already queued", nil)
			return
		}
		h.Logger.Error().Err(err).Msg("enqueue catalog rederive")
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "could not queue re-derivation", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{
		"data": map[string]any{"taskId": info.ID, "queue": info.Queue, "apply": payload.Apply},
	})
}

// Stats handles GET /api/v1/admin/queues/{queue}.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.Inspector == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue inspector unavailable", nil)
		return
	}
	name := chi.URLParam(r, "queue")
	info, err := h.Inspector.GetQueueInfo(name)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "queue not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	states := map[string]int{
		"pending":   info.Pending,
		"active":    info.Active,
		"scheduled": info.Scheduled,
		"retry":     info.Retry,
		"archived":  info.Archived,
	}
	for state, n := range states {
		QueueDepth.WithLabelValues(name, state).Set(float64(n))
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"queue":     name,
			"size":      info.Size,
			"states":    states,
			"processed": info.Processed,
			"failed":    info.Failed,
			"paused":    info.Paused,
			"latencyMs": info.Latency.Milliseconds(),
		},
	})
}

type archivedItem struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Retried  int    `json:"retried"`
	LastErr  string `json:"lastError,omitempty"`
	Payload  string `json:"payload"`
	FailedAt string `json:"lastFailedAt,omitempty"`
}

// ListArchived handles GET /api/v1/admin/queues/{queue}/archived.
func (h *AdminHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h.Inspector == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue inspector unavailable", nil)
		return
	}
	page := common.ReadPage(r, h.pageSize(), 500)
	tasks, err := h.Inspector.ListArchivedTasks(chi.URLParam(r, "queue"), asynq.Page(page.Number), asynq.PageSize(page.Size))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
		return
	}
	items := make([]archivedItem, 0, len(tasks))
	for _, t := range tasks {
		item := archivedItem{
			ID:      t.ID,
			Type:    t.Type,
			Retried: t.Retried,
			LastErr: t.LastErr,
			Payload: string(t.Payload),
		}
		if !t.LastFailedAt.IsZero() {
			item.FailedAt = t.LastFailedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		items = append(items, item)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items, "page": page.Number, "per_page": page.Size})
}

type replayRequest struct {
	IDs []string `json:"ids"`
}

// Replay handles POST /api/v1/admin/queues/{queue}/replay.
func (h *AdminHandler) Replay(w http.ResponseWriter, r *http.Request) {
	if h.Inspector == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "queue inspector unavailable", nil)
		return
	}
	var req replayRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	ids := uniqueStrings(req.IDs)
	if len(ids) == 0 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "ids required", nil)
		return
	}
	queue := chi.URLParam(r, "queue")
	replayed := make([]string, 0, len(ids))
	failed := map[string]string{}
	for _, id := range ids {
		if err := h.Inspector.RunTask(queue, id); err != nil {
			failed[id] = err.Error()
			continue
		}
		replayed = append(replayed, id)
	}
	resp := map[string]any{"replayed": replayed}
	if len(failed) > 0 {
		resp["failed"] = failed
	}
	common.JSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) pageSize() int {
	if h.PageSize > 0 {
		return h.PageSize
	}
	return 50
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
