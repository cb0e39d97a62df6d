package pricing

import (
	"math"

	"github.com/noah-isme/backend-candy/internal/money"
)

const (
	gramsPerKg      = 1000
	mirrorPrecision = 3
	// MaxPiecesPerKg keeps the derived count inside the int4 column.
	MaxPiecesPerKg = math.MaxInt32
)

// Derive recomputes every derived field of c from its authoritative inputs and
// returns the updated candy. It must be called with the fully merged record.
// Degenerate numbers never fail: they clear the affected fields and make the
// candy unavailable.
func Derive(c Candy) Candy {
	if c.Pricing == nil {
		c.Pricing = ByWeight{}
	}
	weight := c.UnitWeightGrams
	hasWeight := money.IsPositiveFinite(weight)

	var d Derived
	if hasWeight {
		pieces := piecesPerKg(*weight)
		d.PiecesPerKg = &pieces
	}

	var auto bool
	switch p := c.Pricing.(type) {
	case ByWeight:
		d.MirrorBuy = perPiece(p.BuyPerKg, weight)
		d.MirrorSell = perPiece(p.SellPerKg, weight)
		auto = money.IsPositiveFinite(p.SellPerKg) && hasWeight
	case ByPiece:
		d.MirrorBuy = perKg(p.BuyPerPiece, weight)
		d.MirrorSell = perKg(p.SellPerPiece, weight)
		auto = money.IsPositiveFinite(p.SellPerPiece)
	}

	switch c.Override {
	case OverrideForceAvailable:
		d.Available = true
	case OverrideForceUnavailable:
		d.Available = false
	default:
		d.Available = auto
	}
	c.Derived = d
	return c
}

func perPiece(pricePerKg, weight *float64) *float64 {
	if !money.IsPositiveFinite(pricePerKg) || !money.IsPositiveFinite(weight) {
		return nil
	}
	v := *pricePerKg * *weight / gramsPerKg
	return money.Round(&v, mirrorPrecision)
}

func perKg(pricePerPiece, weight *float64) *float64 {
	if !money.IsPositiveFinite(pricePerPiece) || !money.IsPositiveFinite(weight) {
		return nil
	}
	v := *pricePerPiece * gramsPerKg / *weight
	return money.Round(&v, mirrorPrecision)
}

// ResolveMode picks a pricing mode for legacy rows that carry no explicit mode.
// A stored mode wins; otherwise any positive per-kg price means by_weight, any
// positive per-piece price means by_piece, and fallback is used when neither
// price is present.
func ResolveMode(stored string, kgBuy, kgSell, pieceBuy, pieceSell *float64, fallback Mode) Mode {
	if m, err := ParseMode(stored); err == nil {
		return m
	}
	hasKg := money.IsPositiveFinite(kgBuy) || money.IsPositiveFinite(kgSell)
	hasPiece := money.IsPositiveFinite(pieceBuy) || money.IsPositiveFinite(pieceSell)
	switch {
	case hasKg:
		return ModeByWeight
	case hasPiece:
		return ModeByPiece
	case fallback.Valid():
		return fallback
	default:
		return ModeByWeight
	}
}

// piecesPerKg is floor(1000 / weight) kept within [1, MaxPiecesPerKg].
// weight must be positive and finite.
func piecesPerKg(weight float64) int64 {
	q := math.Floor(gramsPerKg / weight)
	switch {
	case q < 1:
		return 1
	case q >= MaxPiecesPerKg:
		return MaxPiecesPerKg
	}
	return int64(q)
}
