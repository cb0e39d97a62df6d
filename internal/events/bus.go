package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

// EventStore defines the persistence operations required by the event bus.
type EventStore interface {
	InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error)
}

// DeliveryScheduler hands persisted events to background processing.
type DeliveryScheduler interface {
	Schedule(ctx context.Context, event dbgen.DomainEvent) error
}

// Notifier reacts to emitted events synchronously.
type Notifier interface {
	Notify(ctx context.Context, event dbgen.DomainEvent) error
}

// Emit errors. Anything else returned by Emit wraps a store, scheduler or
// notifier failure.
var (
	ErrNotConfigured = errors.New("events: bus has no store")
	ErrInvalidEvent  = errors.New("events: invalid event")
)

// Bus writes each event to the store, then hands it to the scheduler and
// every notifier in turn.
type Bus struct {
	Store     EventStore
	Scheduler DeliveryScheduler
	Notifiers []Notifier
}

// Emit returns the persisted event whenever the insert succeeded. Dispatch
// failures after that point are joined into err and do not undo the insert.
func (b *Bus) Emit(ctx context.Context, topic string, aggregateID pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	if b == nil || b.Store == nil {
		return dbgen.DomainEvent{}, ErrNotConfigured
	}
	params, err := newEventParams(topic, aggregateID, payload)
	if err != nil {
		return dbgen.DomainEvent{}, err
	}
	ev, err := b.Store.InsertDomainEvent(ctx, params)
	if err != nil {
		return dbgen.DomainEvent{}, fmt.Errorf("events: persist event: %w", err)
	}
	return ev, b.dispatch(ctx, ev)
}

func (b *Bus) dispatch(ctx context.Context, ev dbgen.DomainEvent) error {
	var errs []error
	if b.Scheduler != nil {
		if err := b.Scheduler.Schedule(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("events: schedule %s: %w", ev.Topic, err))
		}
	}
	for i, n := range b.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("events: notifier %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func newEventParams(topic string, aggregateID pgtype.UUID, payload any) (dbgen.InsertDomainEventParams, error) {
	topic = strings.TrimSpace(topic)
	switch {
	case topic == "":
		return dbgen.InsertDomainEventParams{}, fmt.Errorf("%w: topic is required", ErrInvalidEvent)
	case !KnownTopic(topic):
		return dbgen.InsertDomainEventParams{}, fmt.Errorf("%w: unknown topic %q", ErrInvalidEvent, topic)
	case !aggregateID.Valid:
		return dbgen.InsertDomainEventParams{}, fmt.Errorf("%w: aggregate id is required", ErrInvalidEvent)
	}
	body, err := encodePayload(payload)
	if err != nil {
		return dbgen.InsertDomainEventParams{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return dbgen.InsertDomainEventParams{Topic: topic, AggregateID: aggregateID, Payload: body}, nil
}

// LogNotifier writes a debug line for each emitted event.
type LogNotifier struct {
	Logger *zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.Debug().
		Str("topic", event.Topic).
		Str("aggregate_id", common.UUIDString(event.AggregateID)).
		RawJSON("payload", event.Payload).
		Msg("domain event emitted")
	return nil
}

var emptyObject = []byte("{}")

// encodePayload accepts raw JSON (bytes, RawMessage or string) verbatim after
// validation and marshals anything else. Empty input becomes {}.
func encodePayload(payload any) ([]byte, error) {
	var raw []byte
	switch v := payload.(type) {
	case nil:
		return emptyObject, nil
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	case string:
		raw = []byte(strings.TrimSpace(v))
	default:
		return json.Marshal(v)
	}
	if len(raw) == 0 {
		return emptyObject, nil
	}
	if !json.Valid(raw) {
		return nil, errors.New("payload is not valid json")
	}
	return bytes.Clone(raw), nil
}
