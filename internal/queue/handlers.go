package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/events"
	"github.com/noah-isme/backend-candy/internal/lock"
)

// RederiveLockKey serialises catalog re-derivation runs across workers.
const RederiveLockKey = "lock:catalog:rederive"

// Rederiver re-runs catalog derivation. *catalog.Service satisfies it.
type Rederiver interface {
	Rederive(ctx context.Context, opts catalog.RederiveOptions) (catalog.RederiveReport, error)
}

// Locker runs fn only when a distributed lock is free. lock.Locker satisfies it.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Handlers process the application's background tasks.
type Handlers struct {
	Notifiers []events.Notifier
	Catalog   Rederiver
	Lock      Locker
	LockTTL   time.Duration
	Logger    *zerolog.Logger
}

// Register mounts every task handler on mux.
func (h Handlers) Register(mux *asynq.ServeMux) {
	mux.Handle(TypeOrderEvent, Instrument(asynq.HandlerFunc(h.HandleOrderEvent)))
	mux.Handle(TypeCatalogRederive, Instrument(asynq.HandlerFunc(h.HandleRederive)))
}

// HandleOrderEvent fans an order event out to the configured notifiers.
func (h Handlers) HandleOrderEvent(ctx context.Context, t *asynq.Task) error {
	var p EventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode event payload: %v: %w", err, asynq.SkipRetry)
	}
	ev := dbgen.DomainEvent{
		Topic:   p.Topic,
		Payload: p.Payload,
	}
	if id, err := common.ParseUUID(p.EventID); err == nil {
		ev.ID = id
	}
	if id, err := common.ParseUUID(p.AggregateID); err == nil {
		ev.AggregateID = id
	}
	ev.OccurredAt.Time, ev.OccurredAt.Valid = time.Now(), true

	logger := h.logger()
	logger.Info().Str("topic", p.Topic).Str("event_id", p.EventID).Str("order_id", p.AggregateID).Msg("processing order event")
	for _, n := range h.Notifiers {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, ev); err != nil {
			return fmt.Errorf("notify %s: %w", p.Topic, err)
		}
	}
	return nil
}

// HandleRederive runs a catalog re-derivation under the distributed lock.
func (h Handlers) HandleRederive(ctx context.Context, t *asynq.Task) error {
	if h.Catalog == nil {
		return fmt.Errorf("catalog not configured: %w", asynq.SkipRetry)
	}
	var p RederivePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("decode rederive payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	run := func(ctx context.Context) error {
		report, err := h.Catalog.Rederive(ctx, catalog.RederiveOptions{Fallback: p.Fallback, Apply: p.Apply})
		logger := h.logger()
		evt := logger.Info()
		if err != nil {
			evt = logger.Error().Err(err)
		}
		evt.Int("scanned", report.Scanned).
			Int("changed", report.Changed).
			Int("written", report.Written).
			Int("failed", report.Failed).
			Int("defaulted", len(report.Defaulted)).
			Bool("applied", report.Applied).
			Msg("catalog rederive finished")
		return err
	}
	if h.Lock == nil {
		return run(ctx)
	}
	ttl := h.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	err := h.Lock.TryWithLock(ctx, RederiveLockKey, ttl, run)
	if errors.Is(err, lock.ErrNotAcquired) {
		logger := h.logger()
		logger.Warn().Msg("catalog rederive already running elsewhere; skipping")
		return nil
	}
	return err
}

func (h Handlers) logger() *zerolog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	nop := zerolog.Nop()
	return &nop
}
