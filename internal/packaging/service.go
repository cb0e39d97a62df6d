// Package packaging manages boxes and bags sold per unit with orders.
package packaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/db"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// Queries is the subset of generated queries the packaging service needs.
type Queries interface {
	CountPackaging(ctx context.Context, available pgtype.Bool) (int64, error)
	CreatePackaging(ctx context.Context, arg dbgen.CreatePackagingParams) (dbgen.Packaging, error)
	DeletePackaging(ctx context.Context, id pgtype.UUID) (int64, error)
	GetPackaging(ctx context.Context, id pgtype.UUID) (dbgen.Packaging, error)
	GetPackagingForUpdate(ctx context.Context, id pgtype.UUID) (dbgen.Packaging, error)
	ListPackaging(ctx context.Context, arg dbgen.ListPackagingParams) ([]dbgen.Packaging, error)
	ListPackagingByIDs(ctx context.Context, ids []pgtype.UUID) ([]dbgen.Packaging, error)
	UpdatePackaging(ctx context.Context, arg dbgen.UpdatePackagingParams) (dbgen.Packaging, error)
}

// Packaging is the public packaging payload.
type Packaging struct {
	ID            string  `json:"id"`
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	Category      *string `json:"category,omitempty"`
	ImageKey      string  `json:"imageKey"`
	PriceSell     float64 `json:"priceSell"`
	PriceBuy      float64 `json:"priceBuy"`
	CapacityGrams int64   `json:"capacityGrams"`
	IsAvailable   bool    `json:"isAvailable"`
}

// Input is the create payload.
type Input struct {
	Key           string   `json:"key" validate:"required,max=100"`
	Name          string   `json:"name" validate:"required,max=200"`
	Category      string   `json:"category" validate:"omitempty,max=100"`
	ImageKey      string   `json:"imageKey" validate:"omitempty,max=200"`
	PriceSell     *float64 `json:"priceSell" validate:"required,gte=0"`
	PriceBuy      float64  `json:"priceBuy" validate:"gte=0"`
	CapacityGrams int64    `json:"capacityGrams" validate:"required,gte=1"`
	IsAvailable   *bool    `json:"isAvailable"`
}

// Patch is the update payload; absent keys keep the stored value.
type Patch struct {
	Key           common.Optional[string]  `json:"key"`
	Name          common.Optional[string]  `json:"name"`
	Category      common.Optional[string]  `json:"category"`
	ImageKey      common.Optional[string]  `json:"imageKey"`
	PriceSell     common.Optional[float64] `json:"priceSell"`
	PriceBuy      common.Optional[float64] `json:"priceBuy"`
	CapacityGrams common.Optional[int64]   `json:"capacityGrams"`
	IsAvailable   common.Optional[bool]    `json:"isAvailable"`
}

// Service implements packaging CRUD.
type Service struct {
	Q    Queries
	Pool db.TxBeginner
}

// List returns packaging ordered by capacity, optionally filtered by availability.
func (s *Service) List(ctx context.Context, available *bool, page, perPage int) ([]Packaging, int64, error) {
	filter := pgtype.Bool{}
	if available != nil {
		filter = pgtype.Bool{Bool: *available, Valid: true}
	}
	total, err := s.Q.CountPackaging(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count packaging: %w", err)
	}
	if page < 1 {
		page = 1
	}
	rows, err := s.Q.ListPackaging(ctx, dbgen.ListPackagingParams{
		Available:   filter,
		OffsetValue: int32((page - 1) * perPage),
		LimitValue:  int32(perPage),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list packaging: %w", err)
	}
	out := make([]Packaging, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, total, nil
}

// Get returns a single packaging item.
func (s *Service) Get(ctx context.Context, id string) (Packaging, error) {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return Packaging{}, common.BadRequest("id", "invalid packaging id", err)
	}
	row, err := s.Q.GetPackaging(ctx, uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Packaging{}, common.NotFound("packaging", err)
		}
		return Packaging{}, fmt.Errorf("get packaging: %w", err)
	}
	return toDTO(row), nil
}

// Create stores a packaging item. The image key defaults to the item key.
func (s *Service) Create(ctx context.Context, in Input) (Packaging, error) {
	in.Key = strings.TrimSpace(in.Key)
	in.Name = strings.TrimSpace(in.Name)
	if err := common.ValidateStruct(in); err != nil {
		return Packaging{}, err
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	row, err := s.Q.CreatePackaging(ctx, dbgen.CreatePackagingParams{
		Key:           in.Key,
		Name:          in.Name,
		Category:      common.Text(strings.TrimSpace(in.Category)),
		ImageKey:      imageKey(in.ImageKey, in.Key),
		PriceSell:     *in.PriceSell,
		PriceBuy:      in.PriceBuy,
		CapacityGrams: in.CapacityGrams,
		IsAvailable:   available,
	})
	if err != nil {
		if common.IsUniqueViolation(err) {
			return Packaging{}, common.Conflict("packaging key already exists", err)
		}
		return Packaging{}, fmt.Errorf("create packaging: %w", err)
	}
	return toDTO(row), nil
}

// Update applies patch under a row lock.
func (s *Service) Update(ctx context.Context, id string, patch Patch) (Packaging, error) {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return Packaging{}, common.BadRequest("id", "invalid packaging id", err)
	}
	var out dbgen.Packaging
	err = db.InTx(ctx, s.Pool, s.Q, func(q Queries) error {
		row, err := q.GetPackagingForUpdate(ctx, uid)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return common.NotFound("packaging", err)
			}
			return fmt.Errorf("lock packaging: %w", err)
		}
		params, err := merge(row, patch)
		if err != nil {
			return err
		}
		out, err = q.UpdatePackaging(ctx, params)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return common.Conflict("packaging key already exists", err)
			}
			return fmt.Errorf("update packaging: %w", err)
		}
		return nil
	})
	if err != nil {
		return Packaging{}, err
	}
	return toDTO(out), nil
}

// Delete removes a packaging item.
func (s *Service) Delete(ctx context.Context, id string) error {
	uid, err := common.ParseUUID(strings.TrimSpace(id))
	if err != nil {
		return common.BadRequest("id", "invalid packaging id", err)
	}
	n, err := s.Q.DeletePackaging(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete packaging: %w", err)
	}
	if n == 0 {
		return common.NotFound("packaging", pgx.ErrNoRows)
	}
	return nil
}

// PackagingByIDs resolves packaging for order snapshots. Unknown or malformed
// ids are absent from the result.
func (s *Service) PackagingByIDs(ctx context.Context, ids []string) ([]pricing.Packaging, error) {
	uids := make([]pgtype.UUID, 0, len(ids))
	for _, id := range ids {
		if uid, err := common.ParseUUID(strings.TrimSpace(id)); err == nil {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return nil, nil
	}
	rows, err := s.Q.ListPackagingByIDs(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("list packaging by ids: %w", err)
	}
	out := make([]pricing.Packaging, 0, len(rows))
	for _, row := range rows {
		out = append(out, pricing.Packaging{
			ID:            common.UUIDString(row.ID),
			Key:           row.Key,
			Name:          row.Name,
			PriceSell:     row.PriceSell,
			PriceBuy:      row.PriceBuy,
			CapacityGrams: row.CapacityGrams,
			IsAvailable:   row.IsAvailable,
		})
	}
	return out, nil
}

func merge(row dbgen.Packaging, patch Patch) (dbgen.UpdatePackagingParams, error) {
	params := dbgen.UpdatePackagingParams{
		ID:            row.ID,
		Key:           row.Key,
		Name:          row.Name,
		Category:      row.Category,
		ImageKey:      row.ImageKey,
		PriceSell:     row.PriceSell,
		PriceBuy:      row.PriceBuy,
		CapacityGrams: row.CapacityGrams,
		IsAvailable:   row.IsAvailable,
	}
	if patch.Key.Set {
		key := strings.TrimSpace(patch.Key.Value)
		if patch.Key.Null || key == "" {
			return params, common.BadRequest("key", "key is required", nil)
		}
		params.Key = key
	}
	if patch.Name.Set {
		name := strings.TrimSpace(patch.Name.Value)
		if patch.Name.Null || name == "" {
			return params, common.BadRequest("name", "name is required", nil)
		}
		params.Name = name
	}
	if patch.Category.Set {
		params.Category = common.Text(strings.TrimSpace(patch.Category.Value))
	}
	if patch.ImageKey.Set {
		params.ImageKey = strings.TrimSpace(patch.ImageKey.Value)
	}
	if params.ImageKey == "" {
		params.ImageKey = params.Key
	}
	if patch.PriceSell.Set {
		if patch.PriceSell.Null || patch.PriceSell.Value < 0 {
			return params, common.BadRequest("priceSell", "priceSell must be a non-negative number", nil)
		}
		params.PriceSell = patch.PriceSell.Value
	}
	if patch.PriceBuy.Set {
		if patch.PriceBuy.Value < 0 {
			return params, common.BadRequest("priceBuy", "priceBuy must be a non-negative number", nil)
		}
		params.PriceBuy = patch.PriceBuy.Value
	}
	if patch.CapacityGrams.Set {
		if patch.CapacityGrams.Null || patch.CapacityGrams.Value < 1 {
			return params, common.BadRequest("capacityGrams", "capacityGrams must be at least 1", nil)
		}
		params.CapacityGrams = patch.CapacityGrams.Value
	}
	if patch.IsAvailable.Set && !patch.IsAvailable.Null {
		params.IsAvailable = patch.IsAvailable.Value
	}
	return params, nil
}

func imageKey(value, key string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return key
}

func toDTO(row dbgen.Packaging) Packaging {
	return Packaging{
		ID:            common.UUIDString(row.ID),
		Key:           row.Key,
		Name:          row.Name,
		Category:      common.TextPtr(row.Category),
		ImageKey:      row.ImageKey,
		PriceSell:     row.PriceSell,
		PriceBuy:      row.PriceBuy,
		CapacityGrams: row.CapacityGrams,
		IsAvailable:   row.IsAvailable,
	}
}
