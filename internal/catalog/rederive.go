package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-candy/internal/common"
	"github.com/noah-isme/backend-candy/internal/db"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// RederiveOptions controls a catalog-wide re-derivation run.
type RederiveOptions struct {
	// Fallback is the mode for rows with neither a stored mode nor a price.
	Fallback pricing.Mode
	// Apply persists the changes; otherwise the run only reports them.
	Apply bool
}

// RederiveItem names a candy that had no price signal and got Fallback.
type RederiveItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RederiveReport summarises a re-derivation run.
type RederiveReport struct {
	Scanned    int            `json:"scanned"`
	HadMode    int            `json:"hadMode"`
	SetWeight  int            `json:"setByWeight"`
	SetPiece   int            `json:"setByPiece"`
	Defaulted  []RederiveItem `json:"defaulted"`
	Changed    int            `json:"changed"`
	Written    int            `json:"written"`
	Failed     int            `json:"failed"`
	Applied    bool           `json:"applied"`
	Fallback   pricing.Mode   `json:"fallback"`
	FirstError string         `json:"firstError,omitempty"`
}

// Rederive backfills missing pricing modes and re-runs derivation for every
// candy. Each candy is handled in its own transaction so a failing row does
// not roll back the rest.
func (s *Service) Rederive(ctx context.Context, opts RederiveOptions) (RederiveReport, error) {
	fallback := opts.Fallback
	if !fallback.Valid() {
		fallback = s.defaultMode
	}
	report := RederiveReport{Applied: opts.Apply, Fallback: fallback, Defaulted: []RederiveItem{}}

	ids, err := s.queries.ListCandyIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list candy ids: %w", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.rederiveOne(ctx, id, fallback, opts.Apply, &report); err != nil {
			report.Failed++
			if report.FirstError == "" {
				report.FirstError = err.Error()
			}
			s.logger.Error().Err(err).Str("candy_id", common.UUIDString(id)).Msg("candy re-derivation failed")
		}
	}
	if opts.Apply && report.Written > 0 {
		s.invalidateAll(ctx, ids)
	}
	s.logger.Info().
		Int("scanned", report.Scanned).
		Int("changed", report.Changed).
		Int("written", report.Written).
		Int("failed", report.Failed).
		Bool("applied", report.Applied).
		Msg("catalog re-derivation finished")
	return report, nil
}

func (s *Service) rederiveOne(ctx context.Context, id pgtype.UUID, fallback pricing.Mode, apply bool, report *RederiveReport) error {
	return db.InTx(ctx, s.pool, s.queries, func(q Queries) error {
		row, err := q.GetCandyForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("lock candy: %w", err)
		}
		report.Scanned++
		c := fromRow(row, fallback)
		if storedMode(row) {
			report.HadMode++
		} else {
			if !hasPriceSignal(row) {
				report.Defaulted = append(report.Defaulted, RederiveItem{ID: c.ID, Name: c.Name})
			}
			if c.Mode() == pricing.ModeByPiece {
				report.SetPiece++
			} else {
				report.SetWeight++
			}
		}
		derived := s.derive(c)
		if createParams(derived) == paramsFromRow(row) {
			return nil
		}
		report.Changed++
		if !apply {
			return nil
		}
		if _, err := q.UpdateCandy(ctx, updateParams(id, derived)); err != nil {
			return fmt.Errorf("update candy: %w", err)
		}
		report.Written++
		return nil
	})
}

func (s *Service) invalidateAll(ctx context.Context, ids []pgtype.UUID) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = common.UUIDString(id)
	}
	s.invalidate(ctx, keys...)
}

func hasPriceSignal(row dbgen.Candy) bool {
	for _, v := range []pgtype.Float8{row.PricePerKgBuy, row.PricePerKgSell, row.PricePerPieceBuy, row.PricePerPieceSell} {
		if v.Valid && v.Float64 > 0 {
			return true
		}
	}
	return false
}

func paramsFromRow(row dbgen.Candy) dbgen.CreateCandyParams {
	return dbgen.CreateCandyParams{
		Name:                 row.Name,
		Category:             row.Category,
		PhotoUrl:             row.PhotoUrl,
		PricingMode:          row.PricingMode,
		PricePerKgBuy:        row.PricePerKgBuy,
		PricePerKgSell:       row.PricePerKgSell,
		PricePerPieceBuy:     row.PricePerPieceBuy,
		PricePerPieceSell:    row.PricePerPieceSell,
		UnitWeightGrams:      row.UnitWeightGrams,
		PiecesPerKg:          row.PiecesPerKg,
		IsAvailable:          row.IsAvailable,
		AvailabilityOverride: row.AvailabilityOverride,
	}
}
