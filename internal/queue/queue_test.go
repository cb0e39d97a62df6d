package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/catalog"
	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/events"
	"github.com/noah-isme/backend-candy/internal/lock"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueMaintenance, Type: task.Type()}, nil
}

type recordingNotifier struct {
	events []dbgen.DomainEvent
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev dbgen.DomainEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

type fakeRederiver struct {
	calls []catalog.RederiveOptions
}

func (f *fakeRederiver) Rederive(_ context.Context, opts catalog.RederiveOptions) (catalog.RederiveReport, error) {
	f.calls = append(f.calls, opts)
	return catalog.RederiveReport{Scanned: 3, Changed: 1, Applied: opts.Apply, Fallback: opts.Fallback}, nil
}

type fakeInspector struct {
	info     *asynq.QueueInfo
	archived []*asynq.TaskInfo
	ran      []string
}

func (f *fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	if f.info == nil || f.info.Queue != queue {
		return nil, asynq.ErrQueueNotFound
	}
	return f.info, nil
}

func (f *fakeInspector) ListArchivedTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return f.archived, nil
}

func (f *fakeInspector) RunTask(_, id string) error {
	if id == "missing" {
		return asynq.ErrTaskNotFound
	}
	f.ran = append(f.ran, id)
	return nil
}

func sampleEvent(t *testing.T) dbgen.DomainEvent {
	t.Helper()
	id, err := common.ParseUUID("6f1c1f3e-3f0c-4c36-9d0f-0d6d3e1c2a11")
	require.NoError(t, err)
	agg, err := common.ParseUUID("0b8a5e77-2f8e-4a55-8b4c-7c3c0a9d9e01")
	require.NoError(t, err)
	return dbgen.DomainEvent{
		ID:          id,
		Topic:       "order.created",
		AggregateID: agg,
		Payload:     []byte(`{"orderId":"0b8a5e77-2f8e-4a55-8b4c-7c3c0a9d9e01","status":"new"}`),
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
}

func TestScheduleEnqueuesEventTaskKeyedByEventID(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := Client{Enqueuer: enq}
	before := testutil.ToFloat64(QueueEnqueuedTotal.WithLabelValues(TypeOrderEvent))

	require.NoError(t, client.Schedule(context.Background(), sampleEvent(t)))
	require.Len(t, enq.tasks, 1)
	require.Equal(t, TypeOrderEvent, enq.tasks[0].Type())

	var p EventPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
	require.Equal(t, "6f1c1f3e-3f0c-4c36-9d0f-0d6d3e1c2a11", p.EventID)
	require.Equal(t, "order.created", p.Topic)
	require.JSONEq(t, `{"orderId":"0b8a5e77-2f8e-4a55-8b4c-7c3c0a9d9e01","status":"new"}`, string(p.Payload))
	require.Equal(t, before+1, testutil.ToFloat64(QueueEnqueuedTotal.WithLabelValues(TypeOrderEvent)))
}

func TestScheduleTreatsTaskIDConflictAsDelivered(t *testing.T) {
	client := Client{Enqueuer: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
	require.NoError(t, client.Schedule(context.Background(), sampleEvent(t)))

	client = Client{Enqueuer: &fakeEnqueuer{err: errors.New("redis down")}}
	require.Error(t, client.Schedule(context.Background(), sampleEvent(t)))

	require.Error(t, Client{}.Schedule(context.Background(), sampleEvent(t)))
}

func TestRequestRederiveMapsDuplicate(t *testing.T) {
	client := Client{Enqueuer: &fakeEnqueuer{err: asynq.ErrDuplicateTask}}
	_, err := client.RequestRederive(context.Background(), RederivePayload{Apply: true})
	require.ErrorIs(t, err, ErrAlreadyQueued)
}

func TestHandleOrderEventNotifies(t *testing.T) {
	task, err := NewEventTask(sampleEvent(t))
	require.NoError(t, err)

	n := &recordingNotifier{}
	h := Handlers{Notifiers: []events.Notifier{n}}
	require.NoError(t, h.HandleOrderEvent(context.Background(), task))
	require.Len(t, n.events, 1)
	require.Equal(t, "order.created", n.events[0].Topic)
	require.Equal(t, "0b8a5e77-2f8e-4a55-8b4c-7c3c0a9d9e01", common.UUIDString(n.events[0].AggregateID))

	n.err = errors.New("smtp down")
	require.Error(t, h.HandleOrderEvent(context.Background(), task))
}

func TestHandleOrderEventSkipsRetryOnBadPayload(t *testing.T) {
	h := Handlers{}
	err := h.HandleOrderEvent(context.Background(), asynq.NewTask(TypeOrderEvent, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleRederiveUsesLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cat := &fakeRederiver{}
	h := Handlers{Catalog: cat, Lock: lock.Locker{R: rdb}}
	task, err := NewRederiveTask(RederivePayload{Fallback: pricing.ModeByPiece, Apply: true})
	require.NoError(t, err)

	require.NoError(t, h.HandleRederive(context.Background(), task))
	require.Len(t, cat.calls, 1)
	require.Equal(t, pricing.ModeByPiece, cat.calls[0].Fallback)
	require.True(t, cat.calls[0].Apply)
	require.False(t, mr.Exists(RederiveLockKey))

	require.NoError(t, mr.Set(RederiveLockKey, "other-worker"))
	require.NoError(t, h.HandleRederive(context.Background(), task))
	require.Len(t, cat.calls, 1)
}

func TestInstrumentCountsOutcomes(t *testing.T) {
	failing := Instrument(asynq.HandlerFunc(func(context.Context, *asynq.Task) error { return errors.New("boom") }))
	before := testutil.ToFloat64(QueueProcessedTotal.WithLabelValues("test:instrument", "error"))
	require.Error(t, failing.ProcessTask(context.Background(), asynq.NewTask("test:instrument", nil)))
	require.Equal(t, before+1, testutil.ToFloat64(QueueProcessedTotal.WithLabelValues("test:instrument", "error")))
}

func newAdminRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/admin/catalog/rederive", h.Rederive)
	r.Get("/admin/queues/{queue}", h.Stats)
	r.Get("/admin/queues/{queue}/archived", h.ListArchived)
	r.Post("/admin/queues/{queue}/replay", h.Replay)
	return r
}

func TestAdminRederiveEndpoint(t *testing.T) {
	enq := &fakeEnqueuer{}
	router := newAdminRouter(&AdminHandler{Client: Client{Enqueuer: enq}})

	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/rederive", bytes.NewBufferString(`{"fallback":"by_piece","apply":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, enq.tasks, 1)

	var p RederivePayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &p))
	require.Equal(t, pricing.ModeByPiece, p.Fallback)
	require.False(t, p.Apply)

	req = httptest.NewRequest(http.MethodPost, "/admin/catalog/rederive", bytes.NewBufferString(`{"fallback":"by_volume"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	dup := newAdminRouter(&AdminHandler{Client: Client{Enqueuer: &fakeEnqueuer{err: asynq.ErrDuplicateTask}}})
	req = httptest.NewRequest(http.MethodPost, "/admin/catalog/rederive", nil)
	rec = httptest.NewRecorder()
	dup.ServeHTTP(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminQueueStatsAndReplay(t *testing.T) {
	insp := &fakeInspector{
		info: &asynq.QueueInfo{Queue: QueueDefault, Size: 4, Pending: 2, Archived: 2},
		archived: []*asynq.TaskInfo{
			{ID: "a1", Type: TypeOrderEvent, Retried: 10, LastErr: "smtp down", Payload: []byte(`{}`)},
		},
	}
	router := newAdminRouter(&AdminHandler{Inspector: insp})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/queues/default", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(2), testutil.ToFloat64(QueueDepth.WithLabelValues(QueueDefault, "archived")))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/queues/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/queues/default/archived", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "smtp down")

	rec = httptest.NewRecorder()
	body := bytes.NewBufferString(`{"ids":["a1","a1","missing"]}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/queues/default/replay", body))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"a1"}, insp.ran)
	require.Contains(t, rec.Body.String(), "missing")
}
