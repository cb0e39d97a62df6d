package catalog_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

// memQueries is an in-memory stand-in for the generated candy queries.
type memQueries struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]dbgen.Candy
	updates int
	listErr error
	// lockMisses makes the next n name/category lookups miss, as when a
	// concurrent insert has not committed yet.
	lockMisses int
}

func newMemQueries() *memQueries {
	return &memQueries{rows: map[uuid.UUID]dbgen.Candy{}}
}

func (m *memQueries) seed(row dbgen.Candy) dbgen.Candy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !row.ID.Valid {
		row.ID = pgtype.UUID{Bytes: uuid.New(), Valid: true}
	}
	if row.AvailabilityOverride == "" {
		row.AvailabilityOverride = "auto"
	}
	row.CreatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	row.UpdatedAt = row.CreatedAt
	m.rows[row.ID.Bytes] = row
	return row
}

func (m *memQueries) duplicate(id pgtype.UUID, name, category string) bool {
	for key, row := range m.rows {
		if key != id.Bytes && row.Name == name && row.Category == category {
			return true
		}
	}
	return false
}

func (m *memQueries) matches(row dbgen.Candy, category pgtype.Text, available pgtype.Bool, q pgtype.Text) bool {
	if category.Valid && row.Category != category.String {
		return false
	}
	if available.Valid && row.IsAvailable != available.Bool {
		return false
	}
	if q.Valid && !strings.Contains(strings.ToLower(row.Name), strings.ToLower(q.String)) {
		return false
	}
	return true
}

func (m *memQueries) sorted() []dbgen.Candy {
	out := make([]dbgen.Candy, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *memQueries) CountCandies(_ context.Context, arg dbgen.CountCandiesParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if m.matches(row, arg.Category, arg.Available, arg.Q) {
			n++
		}
	}
	return n, nil
}

func (m *memQueries) CreateCandy(_ context.Context, arg dbgen.CreateCandyParams) (dbgen.Candy, error) {
	m.mu.Lock()
	if m.duplicate(pgtype.UUID{}, arg.Name, arg.Category) {
		m.mu.Unlock()
		return dbgen.Candy{}, &pgconn.PgError{Code: "23505"}
	}
	m.mu.Unlock()
	return m.seed(dbgen.Candy{
		Name:                 arg.Name,
		Category:             arg.Category,
		PhotoUrl:             arg.PhotoUrl,
		PricingMode:          arg.PricingMode,
		PricePerKgBuy:        arg.PricePerKgBuy,
		PricePerKgSell:       arg.PricePerKgSell,
		PricePerPieceBuy:     arg.PricePerPieceBuy,
		PricePerPieceSell:    arg.PricePerPieceSell,
		UnitWeightGrams:      arg.UnitWeightGrams,
		PiecesPerKg:          arg.PiecesPerKg,
		IsAvailable:          arg.IsAvailable,
		AvailabilityOverride: arg.AvailabilityOverride,
	}), nil
}

func (m *memQueries) DeleteCandy(_ context.Context, id pgtype.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id.Bytes]; !ok {
		return 0, nil
	}
	delete(m.rows, id.Bytes)
	return 1, nil
}

func (m *memQueries) GetCandy(_ context.Context, id pgtype.UUID) (dbgen.Candy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id.Bytes]
	if !ok {
		return dbgen.Candy{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *memQueries) GetCandyForUpdate(ctx context.Context, id pgtype.UUID) (dbgen.Candy, error) {
	return m.GetCandy(ctx, id)
}

func (m *memQueries) GetCandyByNameCategoryForUpdate(_ context.Context, arg dbgen.GetCandyByNameCategoryForUpdateParams) (dbgen.Candy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockMisses > 0 {
		m.lockMisses--
		return dbgen.Candy{}, pgx.ErrNoRows
	}
	for _, row := range m.rows {
		if row.Name == arg.Name && row.Category == arg.Category {
			return row, nil
		}
	}
	return dbgen.Candy{}, pgx.ErrNoRows
}

func (m *memQueries) ListCandies(_ context.Context, arg dbgen.ListCandiesParams) ([]dbgen.Candy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []dbgen.Candy
	for _, row := range m.sorted() {
		if m.matches(row, arg.Category, arg.Available, arg.Q) {
			out = append(out, row)
		}
	}
	start := int(arg.OffsetValue)
	if start > len(out) {
		start = len(out)
	}
	end := start + int(arg.LimitValue)
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (m *memQueries) ListCandiesByIDs(_ context.Context, ids []pgtype.UUID) ([]dbgen.Candy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []dbgen.Candy
	for _, id := range ids {
		if row, ok := m.rows[id.Bytes]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memQueries) ListCandyIDs(context.Context) ([]pgtype.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pgtype.UUID, 0, len(m.rows))
	for _, row := range m.sorted() {
		out = append(out, row.ID)
	}
	return out, nil
}

func (m *memQueries) UpdateCandy(_ context.Context, arg dbgen.UpdateCandyParams) (dbgen.Candy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[arg.ID.Bytes]
	if !ok {
		return dbgen.Candy{}, pgx.ErrNoRows
	}
	if m.duplicate(arg.ID, arg.Name, arg.Category) {
		return dbgen.Candy{}, &pgconn.PgError{Code: "23505"}
	}
	row.Name = arg.Name
	row.Category = arg.Category
	row.PhotoUrl = arg.PhotoUrl
	row.PricingMode = arg.PricingMode
	row.PricePerKgBuy = arg.PricePerKgBuy
	row.PricePerKgSell = arg.PricePerKgSell
	row.PricePerPieceBuy = arg.PricePerPieceBuy
	row.PricePerPieceSell = arg.PricePerPieceSell
	row.UnitWeightGrams = arg.UnitWeightGrams
	row.PiecesPerKg = arg.PiecesPerKg
	row.IsAvailable = arg.IsAvailable
	row.AvailabilityOverride = arg.AvailabilityOverride
	row.UpdatedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
	m.rows[arg.ID.Bytes] = row
	m.updates++
	return row, nil
}

func float8(v float64) pgtype.Float8 {
	return pgtype.Float8{Float64: v, Valid: true}
}
