package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Task type names.
const (
	TypeOrderEvent      = "event:order"
	TypeCatalogRederive = "catalog:rederive"
)

// Queue names with their asynq priorities.
const (
	QueueDefault     = "default"
	QueueMaintenance = "maintenance"
)

// Queues returns the priority map used by the worker server.
func Queues() map[string]int {
	return map[string]int{QueueDefault: 6, QueueMaintenance: 1}
}

// EventPayload carries a persisted domain event to the worker.
type EventPayload struct {
	EventID     string          `json:"eventId"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
}

// RederivePayload configures a catalog re-derivation run.
type RederivePayload struct {
	Fallback pricing.Mode `json:"fallback,omitempty"`
	Apply    bool         `json:"apply"`
}

// NewEventTask builds the task delivering ev. The event id doubles as the task
// id so a re-scheduled event is not processed twice.
func NewEventTask(ev dbgen.DomainEvent) (*asynq.Task, error) {
	body, err := json.Marshal(EventPayload{
		EventID:     common.UUIDString(ev.ID),
		Topic:       ev.Topic,
		AggregateID: common.UUIDString(ev.AggregateID),
		Payload:     json.RawMessage(ev.Payload),
	})
	if err != nil {
		return nil, fmt.Errorf("encode event task: %w", err)
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault), asynq.MaxRetry(10), asynq.Timeout(30 * time.Second)}
	if id := common.UUIDString(ev.ID); id != "" {
		opts = append(opts, asynq.TaskID(id))
	}
	return asynq.NewTask(TypeOrderEvent, body, opts...), nil
}

// NewRederiveTask builds a catalog re-derivation task. Only one such task may
// be queued at a time.
func NewRederiveTask(p RederivePayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode rederive task: %w", err)
	}
	return asynq.NewTask(TypeCatalogRederive, body,
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Unique(15*time.Minute),
	), nil
}
