package analytics_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-candy/internal/analytics"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

type stubQueries struct {
	summaryCalls int
	lastSummary  dbgen.DailyOrderSummaryParams
}

func (s *stubQueries) DailyOrderSummary(_ context.Context, arg dbgen.DailyOrderSummaryParams) ([]dbgen.DailyOrderSummaryRow, error) {
	s.summaryCalls++
	s.lastSummary = arg
	day := func(d int) pgtype.Date {
		return pgtype.Date{Time: time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC), Valid: true}
	}
	return []dbgen.DailyOrderSummaryRow{
		{Day: day(8), OrdersCount: 1, RevenueMinor: 49300, CostMinor: 28800, ProfitMinor: 20500, WeightGrams: 1120},
		{Day: day(9), OrdersCount: 2, RevenueMinor: 12000, CostMinor: 8000, ProfitMinor: 4000, WeightGrams: 500},
	}, nil
}

func (s *stubQueries) TopCandies(_ context.Context, arg dbgen.TopCandiesParams) ([]dbgen.TopCandiesRow, error) {
	return []dbgen.TopCandiesRow{{CandyID: "c1", Name: "Трюфель", OrderLines: 3, SubtotalSellMinor: 30000}}, nil
}

func newService(t *testing.T, q *stubQueries) *analytics.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &analytics.Service{
		Q:            q,
		R:            rdb,
		TTL:          time.Minute,
		DefaultRange: 7,
		Now:          func() time.Time { return time.Date(2024, 3, 9, 15, 30, 0, 0, time.UTC) },
	}
}

func TestSummaryAggregatesAndCaches(t *testing.T) {
	q := &stubQueries{}
	svc := newService(t, q)
	from := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

	sum, err := svc.Summary(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, "2024-03-08", sum.From)
	require.Equal(t, "2024-03-09", sum.To)
	require.Len(t, sum.Days, 2)
	require.EqualValues(t, 3, sum.Orders)
	require.EqualValues(t, 61300, sum.RevenueMinor)
	require.EqualValues(t, 24500, sum.ProfitMinor)
	require.Equal(t, "613.00", sum.Revenue)
	require.Equal(t, "40.0", sum.MarginPct)
	require.Len(t, sum.TopCandies, 1)
	require.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), q.lastSummary.ToTs.Time)

	_, err = svc.Summary(context.Background(), from, to)
	require.NoError(t, err)
	require.Equal(t, 1, q.summaryCalls)
}

func TestSummaryRejectsInvertedRange(t *testing.T) {
	svc := newService(t, &stubQueries{})
	_, err := svc.Summary(context.Background(), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
}

func TestSummaryHandler(t *testing.T) {
	q := &stubQueries{}
	h := &analytics.Handler{Svc: newService(t, q)}

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics/summary", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data analytics.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "2024-03-03", body.Data.From)
	require.Equal(t, "2024-03-09", body.Data.To)

	rec = httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics/summary?from=2024-03-09&to=2024-03-01", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/analytics/summary?from=09.03.2024", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
