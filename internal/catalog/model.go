package catalog

import (
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/noah-isme/backend-candy/internal/common"
	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
	"github.com/noah-isme/backend-candy/internal/pricing"
)

// MinUnitWeightGrams is the lightest piece the catalog accepts.
const MinUnitWeightGrams = 0.1

// Candy is the public candy payload. Both price pairs are always present:
// the pair named by PricingMode is authoritative, the other one is derived.
type Candy struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Category             string           `json:"category"`
	PhotoURL             *string          `json:"photoUrl,omitempty"`
	PricingMode          pricing.Mode     `json:"pricingMode"`
	PricePerKgBuy        *float64         `json:"pricePerKgBuy"`
	PricePerKgSell       *float64         `json:"pricePerKgSell"`
	PricePerPieceBuy     *float64         `json:"pricePerPieceBuy"`
	PricePerPieceSell    *float64         `json:"pricePerPieceSell"`
	UnitWeightGrams      *float64         `json:"unitWeightGrams"`
	PiecesPerKg          *int64           `json:"piecesPerKg"`
	IsAvailable          bool             `json:"isAvailable"`
	AvailabilityOverride pricing.Override `json:"availabilityOverride"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// CandyInput is the create payload. Only the price pair matching the mode is
// read; the other pair is derived.
type CandyInput struct {
	Name                 string   `json:"name" validate:"required,max=200"`
	Category             string   `json:"category" validate:"required,max=100"`
	PhotoURL             string   `json:"photoUrl" validate:"omitempty,max=2048"`
	PricingMode          string   `json:"pricingMode" validate:"omitempty,oneof=by_weight by_piece kg pcs"`
	PricePerKgBuy        *float64 `json:"pricePerKgBuy" validate:"omitempty,gte=0"`
	PricePerKgSell       *float64 `json:"pricePerKgSell" validate:"omitempty,gte=0"`
	PricePerPieceBuy     *float64 `json:"pricePerPieceBuy" validate:"omitempty,gte=0"`
	PricePerPieceSell    *float64 `json:"pricePerPieceSell" validate:"omitempty,gte=0"`
	UnitWeightGrams      *float64 `json:"unitWeightGrams" validate:"omitempty,gte=0.1"`
	AvailabilityOverride string   `json:"availabilityOverride" validate:"omitempty,oneof=auto force_available force_unavailable"`
}

// CandyPatch is the update payload. Absent keys keep the stored value, null
// clears it.
type CandyPatch struct {
	Name                 common.Optional[string]           `json:"name"`
	Category             common.Optional[string]           `json:"category"`
	PhotoURL             common.Optional[string]           `json:"photoUrl"`
	PricingMode          common.Optional[string]           `json:"pricingMode"`
	PricePerKgBuy        common.Optional[float64]          `json:"pricePerKgBuy"`
	PricePerKgSell       common.Optional[float64]          `json:"pricePerKgSell"`
	PricePerPieceBuy     common.Optional[float64]          `json:"pricePerPieceBuy"`
	PricePerPieceSell    common.Optional[float64]          `json:"pricePerPieceSell"`
	UnitWeightGrams      common.Optional[float64]          `json:"unitWeightGrams"`
	AvailabilityOverride common.Optional[pricing.Override] `json:"availabilityOverride"`
}

// flatPrices is the storage view of the two price pairs.
type flatPrices struct {
	kgBuy, kgSell, pieceBuy, pieceSell *float64
}

// fromRow maps a stored candy onto the pricing model. Rows without a stored
// mode are resolved from their price signals and fallback.
func fromRow(row dbgen.Candy, fallback pricing.Mode) pricing.Candy {
	prices := flatPrices{
		kgBuy:     floatPtr(row.PricePerKgBuy),
		kgSell:    floatPtr(row.PricePerKgSell),
		pieceBuy:  floatPtr(row.PricePerPieceBuy),
		pieceSell: floatPtr(row.PricePerPieceSell),
	}
	stored := ""
	if row.PricingMode.Valid {
		stored = row.PricingMode.String
	}
	mode := pricing.ResolveMode(stored, prices.kgBuy, prices.kgSell, prices.pieceBuy, prices.pieceSell, fallback)
	override, _ := pricing.ParseOverride(row.AvailabilityOverride)

	c := pricing.Candy{
		ID:              common.UUIDString(row.ID),
		Name:            row.Name,
		Category:        row.Category,
		UnitWeightGrams: floatPtr(row.UnitWeightGrams),
		Override:        override,
	}
	if row.PhotoUrl.Valid {
		c.PhotoURL = row.PhotoUrl.String
	}
	c.Derived.Available = row.IsAvailable
	if row.PiecesPerKg.Valid {
		n := int64(row.PiecesPerKg.Int32)
		c.Derived.PiecesPerKg = &n
	}
	if mode == pricing.ModeByPiece {
		c.Pricing = pricing.ByPiece{BuyPerPiece: prices.pieceBuy, SellPerPiece: prices.pieceSell}
		c.Derived.MirrorBuy, c.Derived.MirrorSell = prices.kgBuy, prices.kgSell
	} else {
		c.Pricing = pricing.ByWeight{BuyPerKg: prices.kgBuy, SellPerKg: prices.kgSell}
		c.Derived.MirrorBuy, c.Derived.MirrorSell = prices.pieceBuy, prices.pieceSell
	}
	return c
}

// storedMode reports whether the row carried an explicit pricing mode.
func storedMode(row dbgen.Candy) bool {
	if !row.PricingMode.Valid {
		return false
	}
	_, err := pricing.ParseMode(row.PricingMode.String)
	return err == nil
}

func toDTO(c pricing.Candy, createdAt, updatedAt pgtype.Timestamptz) Candy {
	dto := Candy{
		ID:                   c.ID,
		Name:                 c.Name,
		Category:             c.Category,
		PricingMode:          c.Mode(),
		PricePerKgBuy:        c.PricePerKgBuy(),
		PricePerKgSell:       c.PricePerKgSell(),
		PricePerPieceBuy:     c.PricePerPieceBuy(),
		PricePerPieceSell:    c.PricePerPieceSell(),
		UnitWeightGrams:      c.UnitWeightGrams,
		PiecesPerKg:          c.Derived.PiecesPerKg,
		IsAvailable:          c.Derived.Available,
		AvailabilityOverride: c.Override,
		CreatedAt:            common.Time(createdAt),
		UpdatedAt:            common.Time(updatedAt),
	}
	if c.PhotoURL != "" {
		photo := c.PhotoURL
		dto.PhotoURL = &photo
	}
	return dto
}

func rowToDTO(row dbgen.Candy, fallback pricing.Mode) Candy {
	return toDTO(fromRow(row, fallback), row.CreatedAt, row.UpdatedAt)
}

func createParams(c pricing.Candy) dbgen.CreateCandyParams {
	return dbgen.CreateCandyParams{
		Name:                 c.Name,
		Category:             c.Category,
		PhotoUrl:             common.Text(c.PhotoURL),
		PricingMode:          common.Text(string(c.Mode())),
		PricePerKgBuy:        float8(c.PricePerKgBuy()),
		PricePerKgSell:       float8(c.PricePerKgSell()),
		PricePerPieceBuy:     float8(c.PricePerPieceBuy()),
		PricePerPieceSell:    float8(c.PricePerPieceSell()),
		UnitWeightGrams:      float8(c.UnitWeightGrams),
		PiecesPerKg:          int4(c.Derived.PiecesPerKg),
		IsAvailable:          c.Derived.Available,
		AvailabilityOverride: c.Override.String(),
	}
}

func updateParams(id pgtype.UUID, c pricing.Candy) dbgen.UpdateCandyParams {
	p := createParams(c)
	return dbgen.UpdateCandyParams{
		ID:                   id,
		Name:                 p.Name,
		Category:             p.Category,
		PhotoUrl:             p.PhotoUrl,
		PricingMode:          p.PricingMode,
		PricePerKgBuy:        p.PricePerKgBuy,
		PricePerKgSell:       p.PricePerKgSell,
		PricePerPieceBuy:     p.PricePerPieceBuy,
		PricePerPieceSell:    p.PricePerPieceSell,
		UnitWeightGrams:      p.UnitWeightGrams,
		PiecesPerKg:          p.PiecesPerKg,
		IsAvailable:          p.IsAvailable,
		AvailabilityOverride: p.AvailabilityOverride,
	}
}

// candyFromInput builds the authoritative candy record for a create request.
func candyFromInput(in CandyInput, fallback pricing.Mode) (pricing.Candy, error) {
	mode := pricing.ResolveMode(in.PricingMode, in.PricePerKgBuy, in.PricePerKgSell, in.PricePerPieceBuy, in.PricePerPieceSell, fallback)
	override, err := pricing.ParseOverride(in.AvailabilityOverride)
	if err != nil {
		return pricing.Candy{}, common.BadRequest("availabilityOverride", "unknown availability override", err)
	}
	c := pricing.Candy{
		Name:            strings.TrimSpace(in.Name),
		Category:        strings.TrimSpace(in.Category),
		PhotoURL:        strings.TrimSpace(in.PhotoURL),
		UnitWeightGrams: in.UnitWeightGrams,
		Override:        override,
	}
	if mode == pricing.ModeByPiece {
		c.Pricing = pricing.ByPiece{BuyPerPiece: in.PricePerPieceBuy, SellPerPiece: in.PricePerPieceSell}
	} else {
		c.Pricing = pricing.ByWeight{BuyPerKg: in.PricePerKgBuy, SellPerKg: in.PricePerKgSell}
	}
	return c, nil
}

// mergePatch applies patch to the current record. Switching mode carries the
// current effective prices of the new mode over as its authoritative pair, so
// a mode switch without prices keeps the candy priced.
func mergePatch(current pricing.Candy, patch CandyPatch) (pricing.Candy, error) {
	if err := patch.validate(); err != nil {
		return current, err
	}
	merged := current
	if patch.Name.Set {
		if patch.Name.Null || strings.TrimSpace(patch.Name.Value) == "" {
			return current, common.BadRequest("name", "name is required", nil)
		}
		merged.Name = strings.TrimSpace(patch.Name.Value)
	}
	if patch.Category.Set {
		if patch.Category.Null || strings.TrimSpace(patch.Category.Value) == "" {
			return current, common.BadRequest("category", "category is required", nil)
		}
		merged.Category = strings.TrimSpace(patch.Category.Value)
	}
	if patch.PhotoURL.Set {
		merged.PhotoURL = strings.TrimSpace(patch.PhotoURL.Value)
	}
	if patch.UnitWeightGrams.Set {
		merged.UnitWeightGrams = patch.UnitWeightGrams.Apply(current.UnitWeightGrams)
	}
	if patch.AvailabilityOverride.Set {
		merged.Override = pricing.OverrideAuto
		if !patch.AvailabilityOverride.Null {
			merged.Override = patch.AvailabilityOverride.Value
		}
	}

	mode := current.Mode()
	if patch.PricingMode.Set && !patch.PricingMode.Null {
		parsed, err := pricing.ParseMode(patch.PricingMode.Value)
		if err != nil {
			return current, common.BadRequest("pricingMode", "pricingMode must be by_weight or by_piece", err)
		}
		mode = parsed
	}

	switch mode {
	case pricing.ModeByPiece:
		merged.Pricing = pricing.ByPiece{
			BuyPerPiece:  patch.PricePerPieceBuy.Apply(current.PricePerPieceBuy()),
			SellPerPiece: patch.PricePerPieceSell.Apply(current.PricePerPieceSell()),
		}
	default:
		merged.Pricing = pricing.ByWeight{
			BuyPerKg:  patch.PricePerKgBuy.Apply(current.PricePerKgBuy()),
			SellPerKg: patch.PricePerKgSell.Apply(current.PricePerKgSell()),
		}
	}
	return merged, nil
}

func (p CandyPatch) validate() error {
	prices := map[string]common.Optional[float64]{
		"pricePerKgBuy":     p.PricePerKgBuy,
		"pricePerKgSell":    p.PricePerKgSell,
		"pricePerPieceBuy":  p.PricePerPieceBuy,
		"pricePerPieceSell": p.PricePerPieceSell,
	}
	for field, v := range prices {
		if v.Set && !v.Null && v.Value < 0 {
			return common.BadRequest(field, field+" must not be negative", nil)
		}
	}
	if w := p.UnitWeightGrams; w.Set && !w.Null && !(w.Value >= MinUnitWeightGrams) {
		return common.BadRequest("unitWeightGrams", "unitWeightGrams must be at least 0.1", nil)
	}
	return nil
}

func floatPtr(v pgtype.Float8) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func float8(v *float64) pgtype.Float8 {
	if v == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *v, Valid: true}
}

// int4 saturates at the column bounds rather than wrapping.
func int4(v *int64) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	n := min(max(*v, math.MinInt32), math.MaxInt32)
	return pgtype.Int4{Int32: int32(n), Valid: true}
}
