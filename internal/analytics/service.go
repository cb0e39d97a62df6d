package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/money"
)

const dayLayout = "2006-01-02"

// Querier is the read access analytics needs over stored order totals.
type Querier interface {
	DailyOrderSummary(ctx context.Context, arg dbgen.DailyOrderSummaryParams) ([]dbgen.DailyOrderSummaryRow, error)
	TopCandies(ctx context.Context, arg dbgen.TopCandiesParams) ([]dbgen.TopCandiesRow, error)
}

// Service aggregates revenue figures from order snapshots, cached in Redis.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	TopLimit     int
	Now          func() time.Time
}

// Day is one calendar day of order activity.
type Day struct {
	Date         string `json:"date"`
	Orders       int64  `json:"orders"`
	RevenueMinor int64  `json:"revenueMinor"`
	CostMinor    int64  `json:"costMinor"`
	ProfitMinor  int64  `json:"profitMinor"`
	WeightGrams  int64  `json:"weightGrams"`
}

// TopCandy ranks a candy by sell subtotal across order lines.
type TopCandy struct {
	CandyID      string `json:"candyId"`
	Name         string `json:"name"`
	Lines        int64  `json:"lines"`
	RevenueMinor int64  `json:"revenueMinor"`
}

// Summary covers [From, To] inclusive, by day.
type Summary struct {
	From         string     `json:"from"`
	To           string     `json:"to"`
	Days         []Day      `json:"days"`
	Orders       int64      `json:"orders"`
	RevenueMinor int64      `json:"revenueMinor"`
	CostMinor    int64      `json:"costMinor"`
	ProfitMinor  int64      `json:"profitMinor"`
	Revenue      string     `json:"revenue"`
	Profit       string     `json:"profit"`
	MarginPct    string     `json:"marginPct"`
	WeightGrams  int64      `json:"weightGrams"`
	TopCandies   []TopCandy `json:"topCandies"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// DefaultWindow returns the inclusive day range ending today.
func (s *Service) DefaultWindow() (time.Time, time.Time) {
	days := s.DefaultRange
	if days <= 0 {
		days = 30
	}
	to := truncateDay(s.now())
	return to.AddDate(0, 0, -(days - 1)), to
}

// Summary aggregates orders created between from and to, both inclusive days.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	if s == nil || s.Q == nil {
		return Summary{}, errors.New("analytics service not configured")
	}
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return Summary{}, fmt.Errorf("analytics: range end %s before start %s", to.Format(dayLayout), from.Format(dayLayout))
	}

	key := fmt.Sprintf("analytics:summary:%s:%s", from.Format(dayLayout), to.Format(dayLayout))
	var cached Summary
	if s.load(ctx, key, &cached) {
		return cached, nil
	}

	fromTs := pgtype.Timestamptz{Time: from, Valid: true}
	toTs := pgtype.Timestamptz{Time: to.AddDate(0, 0, 1), Valid: true}
	limit := s.TopLimit
	if limit <= 0 {
		limit = 5
	}

	var (
		daily []dbgen.DailyOrderSummaryRow
		top   []dbgen.TopCandiesRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		daily, err = s.Q.DailyOrderSummary(gctx, dbgen.DailyOrderSummaryParams{FromTs: fromTs, ToTs: toTs})
		return err
	})
	g.Go(func() error {
		var err error
		top, err = s.Q.TopCandies(gctx, dbgen.TopCandiesParams{FromTs: fromTs, ToTs: toTs, LimitCount: int32(limit)})
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, fmt.Errorf("analytics summary: %w", err)
	}

	out := Summary{
		From:       from.Format(dayLayout),
		To:         to.Format(dayLayout),
		Days:       make([]Day, 0, len(daily)),
		TopCandies: make([]TopCandy, 0, len(top)),
	}
	for _, row := range daily {
		out.Days = append(out.Days, Day{
			Date:         row.Day.Time.Format(dayLayout),
			Orders:       row.OrdersCount,
			RevenueMinor: row.RevenueMinor,
			CostMinor:    row.CostMinor,
			ProfitMinor:  row.ProfitMinor,
			WeightGrams:  row.WeightGrams,
		})
		out.Orders += row.OrdersCount
		out.RevenueMinor += row.RevenueMinor
		out.CostMinor += row.CostMinor
		out.ProfitMinor += row.ProfitMinor
		out.WeightGrams += row.WeightGrams
	}
	for _, row := range top {
		out.TopCandies = append(out.TopCandies, TopCandy{
			CandyID:      row.CandyID,
			Name:         row.Name,
			Lines:        row.OrderLines,
			RevenueMinor: row.SubtotalSellMinor,
		})
	}
	out.Revenue = money.Format(out.RevenueMinor)
	out.Profit = money.Format(out.ProfitMinor)
	out.MarginPct = money.Percent(out.ProfitMinor, out.RevenueMinor)

	s.store(ctx, key, out)
	return out, nil
}

func (s *Service) load(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
