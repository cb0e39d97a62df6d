package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/obs"
)

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ErrAlreadyQueued is returned when an equivalent unique task is pending.
var ErrAlreadyQueued = errors.New("queue: task already queued")

// Client enqueues the application's background tasks.
type Client struct {
	Enqueuer Enqueuer
}

// Schedule implements events.DeliveryScheduler.
func (c Client) Schedule(ctx context.Context, ev dbgen.DomainEvent) error {
	if c.Enqueuer == nil {
		return errors.New("queue: enqueuer not configured")
	}
	task, err := NewEventTask(ev)
	if err != nil {
		return err
	}
	if _, err := c.Enqueuer.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}
		return fmt.Errorf("enqueue %s: %w", TypeOrderEvent, err)
	}
	QueueEnqueuedTotal.WithLabelValues(TypeOrderEvent).Inc()
	return nil
}

// RequestRederive queues a catalog re-derivation run.
func (c Client) RequestRederive(ctx context.Context, p RederivePayload) (*asynq.TaskInfo, error) {
	if c.Enqueuer == nil {
		return nil, errors.New("queue: enqueuer not configured")
	}
	task, err := NewRederiveTask(p)
	if err != nil {
		return nil, err
	}
	info, err := c.Enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			return nil, ErrAlreadyQueued
		}
		return nil, fmt.Errorf("enqueue %s: %w", TypeCatalogRederive, err)
	}
	QueueEnqueuedTotal.WithLabelValues(TypeCatalogRederive).Inc()
	return info, nil
}

// Instrument wraps task processing with outcome metrics.
func Instrument(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		err := next.ProcessTask(ctx, t)
		status := "ok"
		if err != nil {
			status = "error"
		}
		QueueProcessedTotal.WithLabelValues(t.Type(), status).Inc()
		obs.RecordJob(t.Type(), err)
		return err
	})
}
