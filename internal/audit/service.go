package audit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/obs"
)

// ActorKind represents the source of an audited action.
type ActorKind string

const (
	ActorUser      ActorKind = "user"
	ActorSystem    ActorKind = "system"
	ActorAnonymous ActorKind = "anonymous"
)

// Actor describes who performed the action.
type Actor struct {
	Kind   ActorKind
	UserID string
}

// Store is the persistence used by the audit trail.
type Store interface {
	InsertAuditLog(ctx context.Context, arg dbgen.InsertAuditLogParams) (dbgen.InsertAuditLogRow, error)
	ListAuditLogs(ctx context.Context, arg dbgen.ListAuditLogsParams) ([]dbgen.AuditLog, error)
}

// Entry is one administrative change to catalog, packaging, orders or users.
type Entry struct {
	Actor        Actor
	Action       string
	ResourceType string
	ResourceID   string
	Method       string
	Path         string
	Status       int
	IP           string
	RequestID    string
	Metadata     map[string]any
}

// Service persists audit entries.
type Service struct {
	Store   Store
	Enabled bool
	Logger  *zerolog.Logger
}

var errNoStore = errors.New("audit: store not configured")

// Record writes e when auditing is enabled.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if s == nil || !s.Enabled {
		return nil
	}
	if s.Store == nil {
		return errNoStore
	}
	if e.Status == 0 {
		e.Status = http.StatusOK
	}

	var meta []byte
	if len(e.Metadata) > 0 {
		data, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		meta = data
	}

	row, err := s.Store.InsertAuditLog(ctx, dbgen.InsertAuditLogParams{
		ActorKind:    string(normalizeActorKind(e.Actor.Kind)),
		ActorUserID:  toUUID(e.Actor.UserID),
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   toText(e.ResourceID),
		Method:       e.Method,
		Path:         e.Path,
		Status:       int32(e.Status),
		Ip:           toText(e.IP),
		RequestID:    toText(e.RequestID),
		Metadata:     meta,
	})
	if err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Debug().Str("action", e.Action).Str("resource_id", e.ResourceID).
			Str("audit_id", uuid.UUID(row.ID.Bytes).String()).Msg("audit entry recorded")
	}
	return nil
}

// EntryFromRequest derives an entry for an admin request that finished with status.
// The resource type is the route with its /api/v1 and /admin prefixes and
// path parameters removed, joined with dots; the action appends the verb.
func EntryFromRequest(r *http.Request, status int) Entry {
	route := obs.RouteLabel(r)
	if route == "unmatched" {
		route = r.URL.Path
	}
	resource := resourceFromRoute(route)

	e := Entry{
		Actor:        actorFromContext(r.Context()),
		Action:       resource + "." + verb(r.Method),
		ResourceType: resource,
		Method:       r.Method,
		Path:         r.URL.Path,
		Status:       status,
		IP:           common.ClientIP(r),
		RequestID:    strings.TrimSpace(r.Header.Get("X-Request-ID")),
	}
	if q := strings.TrimSpace(r.URL.RawQuery); q != "" {
		e.Metadata = map[string]any{"query": q}
	}
	return e
}

func actorFromContext(ctx context.Context) Actor {
	if id, ok := common.UserID(ctx); ok && id != "" {
		return Actor{Kind: ActorUser, UserID: id}
	}
	return Actor{Kind: ActorAnonymous}
}

func resourceFromRoute(route string) string {
	var parts []string
	for i, seg := range strings.Split(strings.Trim(route, "/"), "/") {
		switch {
		case seg == "":
		case i == 0 && seg == "api":
		case i == 1 && seg == "v1":
		case i == 2 && seg == "admin":
		case strings.HasPrefix(seg, "{"):
		default:
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, ".")
}

func verb(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

func normalizeActorKind(kind ActorKind) ActorKind {
	switch kind {
	case ActorUser, ActorSystem:
		return kind
	default:
		return ActorAnonymous
	}
}

func toUUID(value string) pgtype.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

func toText(value string) pgtype.Text {
	return common.Text(strings.TrimSpace(value))
}
