package order_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

type memQueries struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]dbgen.Order
	clock time.Time
}

func newMemQueries() *memQueries {
	return &memQueries{
		rows:  map[uuid.UUID]dbgen.Order{},
		clock: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC),
	}
}

func (m *memQueries) tick() pgtype.Timestamptz {
	m.clock = m.clock.Add(time.Minute)
	return pgtype.Timestamptz{Time: m.clock, Valid: true}
}

func (m *memQueries) CountOrders(_ context.Context, status pgtype.Text) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if !status.Valid || row.Status == status.String {
			n++
		}
	}
	return n, nil
}

func (m *memQueries) CreateOrder(_ context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := m.tick()
	row := dbgen.Order{
		ID:                pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Status:            arg.Status,
		CustomerName:      arg.CustomerName,
		CustomerPhone:     arg.CustomerPhone,
		CustomerEmail:     arg.CustomerEmail,
		Comment:           arg.Comment,
		CandyLines:        arg.CandyLines,
		PackagingLines:    arg.PackagingLines,
		TotalRevenueMinor: arg.TotalRevenueMinor,
		TotalCostMinor:    arg.TotalCostMinor,
		ProfitMinor:       arg.ProfitMinor,
		TotalWeightGrams:  arg.TotalWeightGrams,
		PackagingCount:    arg.PackagingCount,
		CreatedAt:         ts,
		UpdatedAt:         ts,
	}
	m.rows[row.ID.Bytes] = row
	return row, nil
}

func (m *memQueries) DeleteOrder(_ context.Context, id pgtype.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id.Bytes]; !ok {
		return 0, nil
	}
	delete(m.rows, id.Bytes)
	return 1, nil
}

func (m *memQueries) GetOrder(_ context.Context, id pgtype.UUID) (dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id.Bytes]
	if !ok {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *memQueries) GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (dbgen.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memQueries) ListOrders(_ context.Context, arg dbgen.ListOrdersParams) ([]dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []dbgen.Order
	for _, row := range m.rows {
		if !arg.Status.Valid || row.Status == arg.Status.String {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time) })
	start := int(arg.OffsetValue)
	if start > len(out) {
		return nil, nil
	}
	end := start + int(arg.LimitValue)
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (m *memQueries) UpdateOrder(_ context.Context, arg dbgen.UpdateOrderParams) (dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[arg.ID.Bytes]
	if !ok {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	row.Status = arg.Status
	row.CustomerName = arg.CustomerName
	row.CustomerPhone = arg.CustomerPhone
	row.CustomerEmail = arg.CustomerEmail
	row.Comment = arg.Comment
	row.CandyLines = arg.CandyLines
	row.PackagingLines = arg.PackagingLines
	row.TotalRevenueMinor = arg.TotalRevenueMinor
	row.TotalCostMinor = arg.TotalCostMinor
	row.ProfitMinor = arg.ProfitMinor
	row.TotalWeightGrams = arg.TotalWeightGrams
	row.PackagingCount = arg.PackagingCount
	row.UpdatedAt = m.tick()
	m.rows[arg.ID.Bytes] = row
	return row, nil
}

func (m *memQueries) UpdateOrderStatus(_ context.Context, arg dbgen.UpdateOrderStatusParams) (dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[arg.ID.Bytes]
	if !ok {
		return dbgen.Order{}, pgx.ErrNoRows
	}
	row.Status = arg.Status
	row.UpdatedAt = m.tick()
	m.rows[arg.ID.Bytes] = row
	return row, nil
}

type fakeCatalog struct {
	candies map[string]pricing.Candy
	packs   map[string]pricing.Packaging
	err     error
}

func (f *fakeCatalog) CandiesByIDs(_ context.Context, ids []string) ([]pricing.Candy, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []pricing.Candy
	for _, id := range ids {
		if c, ok := f.candies[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCatalog) PackagingByIDs(_ context.Context, ids []string) ([]pricing.Packaging, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []pricing.Packaging
	for _, id := range ids {
		if p, ok := f.packs[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func f64(v float64) *float64 { return &v }

func newFakeCatalog() *fakeCatalog {
	truffle := pricing.Derive(pricing.Candy{
		ID:              "truffle",
		Name:            "Truffle",
		Category:        "chocolate",
		Pricing:         pricing.ByWeight{BuyPerKg: f64(250), SellPerKg: f64(400)},
		UnitWeightGrams: f64(12),
	})
	lolly := pricing.Derive(pricing.Candy{
		ID:              "lolly",
		Name:            "Lolly",
		Category:        "caramel",
		Pricing:         pricing.ByPiece{BuyPerPiece: f64(3), SellPerPiece: f64(5.5)},
		UnitWeightGrams: f64(20),
	})
	return &fakeCatalog{
		candies: map[string]pricing.Candy{truffle.ID: truffle, lolly.ID: lolly},
		packs: map[string]pricing.Packaging{
			"box": {ID: "box", Key: "box", Name: "Gift box", PriceSell: 30, PriceBuy: 10, CapacityGrams: 500, IsAvailable: true},
		},
	}
}

type emitted struct {
	topic   string
	payload any
}

type captureEmitter struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (c *captureEmitter) Emit(_ context.Context, topic string, id pgtype.UUID, payload any) (dbgen.DomainEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !id.Valid {
		return dbgen.DomainEvent{}, errors.New("missing aggregate id")
	}
	c.events = append(c.events, emitted{topic: topic, payload: payload})
	return dbgen.DomainEvent{Topic: topic, AggregateID: id}, c.err
}

func (c *captureEmitter) topics() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.topic)
	}
	return out
}
