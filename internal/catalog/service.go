package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/db"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/obs"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Queries is the subset of generated queries the catalog needs.
type Queries interface {
	CountCandies(ctx context.Context, arg dbgen.CountCandiesParams) (int64, error)
	CreateCandy(ctx context.Context, arg dbgen.CreateCandyParams) (dbgen.Candy, error)
	DeleteCandy(ctx context.Context, id pgtype.UUID) (int64, error)
	GetCandy(ctx context.Context, id pgtype.UUID) (dbgen.Candy, error)
	GetCandyForUpdate(ctx context.Context, id pgtype.UUID) (dbgen.Candy, error)
	GetCandyByNameCategoryForUpdate(ctx context.Context, arg dbgen.GetCandyByNameCategoryForUpdateParams) (dbgen.Candy, error)
	ListCandies(ctx context.Context, arg dbgen.ListCandiesParams) ([]dbgen.Candy, error)
	ListCandiesByIDs(ctx context.Context, ids []pgtype.UUID) ([]dbgen.Candy, error)
	ListCandyIDs(ctx context.Context) ([]pgtype.UUID, error)
	UpdateCandy(ctx context.Context, arg dbgen.UpdateCandyParams) (dbgen.Candy, error)
}

// Service owns candy persistence. Every write passes through pricing.Derive
// with the fully merged record before it is stored.
type Service struct {
	queries      Queries
	pool         db.TxBeginner
	cache        *Cache
	logger       zerolog.Logger
	defaultMode  pricing.Mode
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      Queries
	Pool         db.TxBeginner
	Cache        *Cache
	Logger       *zerolog.Logger
	DefaultMode  pricing.Mode
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for candy listing.
type ListParams struct {
	Query     string
	Category  string
	Available *bool
	Page      int
	Limit     int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Candy
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	mode := cfg.DefaultMode
	if !mode.Valid() {
		mode = pricing.ModeByWeight
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "catalog").Logger()
	}
	return &Service{
		queries:      cfg.Queries,
		pool:         cfg.Pool,
		cache:        cfg.Cache,
		logger:       logger,
		defaultMode:  mode,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// DefaultMode returns the mode used for legacy rows without a price signal.
func (s *Service) DefaultMode() pricing.Mode {
	return s.defaultMode
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))
	params.Category = strings.TrimSpace(values.Get("category"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit

	if v := strings.TrimSpace(values.Get("available")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return params, common.BadRequest("available", "available must be true or false", err)
		}
		params.Available = &b
	}
	return params, nil
}

// List returns filtered candies with pagination metadata.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	key, cacheable := s.cache.listKey(ctx, params)
	if cacheable {
		if page, ok := s.cache.list(ctx, key); ok {
			return ListResult{Items: page.Items, Total: page.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	countParams := dbgen.CountCandiesParams{
		Category:  common.Text(params.Category),
		Available: optionalBool(params.Available),
		Q:         common.Text(params.Query),
	}
	total, err := s.queries.CountCandies(ctx, countParams)
	if err != nil {
		return ListResult{}, fmt.Errorf("count candies: %w", err)
	}
	offset := int32((params.Page - 1) * params.Limit)
	if offset < 0 {
		offset = 0
	}
	rows, err := s.queries.ListCandies(ctx, dbgen.ListCandiesParams{
		Category:    countParams.Category,
		Available:   countParams.Available,
		Q:           countParams.Q,
		OffsetValue: offset,
		LimitValue:  int32(params.Limit),
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list candies: %w", err)
	}
	items := make([]Candy, 0, len(rows))
	for _, row := range rows {
		items = append(items, rowToDTO(row, s.defaultMode))
	}
	if cacheable {
		s.cache.putList(ctx, key, cachedList{Items: items, Total: total})
	}
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// Get returns a single candy.
func (s *Service) Get(ctx context.Context, id string) (Candy, error) {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return Candy{}, common.BadRequest("id", "invalid candy id", err)
	}
	if cached, ok := s.cache.candy(ctx, common.UUIDString(uid)); ok {
		return cached, nil
	}
	row, err := s.queries.GetCandy(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Candy{}, common.NotFound("candy", err)
		}
		return Candy{}, fmt.Errorf("get candy: %w", err)
	}
	dto := rowToDTO(row, s.defaultMode)
	s.cache.putCandy(ctx, dto)
	return dto, nil
}

// Create validates, derives and stores a new candy.
func (s *Service) Create(ctx context.Context, in CandyInput) (Candy, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Candy{}, err
	}
	c, err := candyFromInput(in, s.defaultMode)
	if err != nil {
		return Candy{}, err
	}
	c = s.derive(c)
	row, err := s.queries.CreateCandy(ctx, createParams(c))
	if err != nil {
		if common.IsUniqueViolation(err) {
			return Candy{}, common.Conflict("candy with this name already exists in the category", err)
		}
		return Candy{}, fmt.Errorf("create candy: %w", err)
	}
	s.invalidate(ctx)
	return rowToDTO(row, s.defaultMode), nil
}

// Update merges patch into the stored candy under a row lock, re-derives and
// writes the full record back.
func (s *Service) Update(ctx context.Context, id string, patch CandyPatch) (Candy, error) {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return Candy{}, common.BadRequest("id", "invalid candy id", err)
	}
	var out dbgen.Candy
	err = db.InTx(ctx, s.pool, s.queries, func(q Queries) error {
		row, err := q.GetCandyForUpdate(ctx, uid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.NotFound("candy", err)
			}
			return fmt.Errorf("lock candy: %w", err)
		}
		merged, err := mergePatch(fromRow(row, s.defaultMode), patch)
		if err != nil {
			return err
		}
		merged = s.derive(merged)
		out, err = q.UpdateCandy(ctx, updateParams(uid, merged))
		if err != nil {
			if common.IsUniqueViolation(err) {
				return common.Conflict("candy with this name already exists in the category", err)
			}
			return fmt.Errorf("update candy: %w", err)
		}
		return nil
	})
	if err != nil {
		return Candy{}, err
	}
	s.invalidate(ctx, common.UUIDString(uid))
	return rowToDTO(out, s.defaultMode), nil
}

// Delete removes a candy. Orders keep their snapshots.
func (s *Service) Delete(ctx context.Context, id string) error {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return common.BadRequest("id", "invalid candy id", err)
	}
	n, err := s.queries.DeleteCandy(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete candy: %w", err)
	}
	if n == 0 {
		return common.NotFound("candy", pgx.ErrNoRows)
	}
	s.invalidate(ctx, common.UUIDString(uid))
	return nil
}

// CandiesByIDs resolves candies for order snapshots. Unknown or malformed ids
// are absent from the result.
func (s *Service) CandiesByIDs(ctx context.Context, ids []string) ([]pricing.Candy, error) {
	uids := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		uid, err := common.ParseUUID(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		uids = append(uids, uid)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	rows, err := s.queries.ListCandiesByIDs(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("list candies by ids: %w", err)
	}
	out := make([]pricing.Candy, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row, s.defaultMode))
	}
	return out, nil
}

// Upsert creates or replaces the candy identified by (name, category). An
// empty photo or override in the input keeps the stored one.
func (s *Service) Upsert(ctx context.Context, in CandyInput) (Candy, bool, error) {
	if err := common.ValidateStruct(in); err != nil {
		return Candy{}, false, err
	}
	c, err := candyFromInput(in, s.defaultMode)
	if err != nil {
		return Candy{}, false, err
	}
	var (
		out     dbgen.Candy
		created bool
	)
	err = db.InTx(ctx, s.pool, s.queries, func(q Queries) error {
		row, err := q.GetCandyByNameCategoryForUpdate(ctx, dbgen.GetCandyByNameCategoryForUpdateParams{Name: c.Name, Category: c.Category})
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			created = true
			out, err = q.CreateCandy(ctx, createParams(s.derive(c)))
			if common.IsUniqueViolation(err) {
				return common.Conflict("candy with this name already exists in the category", err)
			}
			if err != nil {
				return fmt.Errorf("create candy: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("lock candy: %w", err)
		}
		existing := fromRow(row, s.defaultMode)
		if c.PhotoURL == "" {
			c.PhotoURL = existing.PhotoURL
		}
		if strings.TrimSpace(in.AvailabilityOverride) == "" {
			c.Override = existing.Override
		}
		out, err = q.UpdateCandy(ctx, updateParams(row.ID, s.derive(c)))
		if err != nil {
			return fmt.Errorf("update candy: %w", err)
		}
		return nil
	})
	if err != nil {
		return Candy{}, false, err
	}
	s.invalidate(ctx, common.UUIDString(out.ID))
	return rowToDTO(out, s.defaultMode), created, nil
}

func (s *Service) derive(c pricing.Candy) pricing.Candy {
	c = pricing.Derive(c)
	obs.RecordDerivation(string(c.Mode()), c.Derived.Available)
	return c
}

func (s *Service) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}

type cachedList struct {
	Items []Candy `json:"items"`
	Total int64   `json:"total"`
}

func optionalBool(ptr *bool) pgtype.Bool {
	if ptr == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *ptr, Valid: true}
}
