package pricing

import (
	"fmt"
	"strings"
)

// Mode selects which price pair of a candy is authoritative.
type Mode string

const (
	ModeByWeight Mode = "by_weight"
	ModeByPiece  Mode = "by_piece"
)

// ParseMode accepts the canonical names plus the legacy "kg"/"pcs" spellings.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "by_weight", "kg", "weight":
		return ModeByWeight, nil
	case "by_piece", "pcs", "piece":
		return ModeByPiece, nil
	default:
		return "", fmt.Errorf("pricing: unknown mode %q", value)
	}
}

// Valid reports whether m is one of the known modes.
func (m Mode) Valid() bool {
	return m == ModeByWeight || m == ModeByPiece
}

// Override is the manual availability switch for a candy.
type Override int

const (
	OverrideAuto Override = iota
	OverrideForceAvailable
	OverrideForceUnavailable
)

// String returns the storage representation of the override.
func (o Override) String() string {
	switch o {
	case OverrideForceAvailable:
		return "force_available"
	case OverrideForceUnavailable:
		return "force_unavailable"
	default:
		return "auto"
	}
}

// ParseOverride maps a stored or requested value onto an Override. Empty means auto.
func ParseOverride(value string) (Override, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return OverrideAuto, nil
	case "force_available", "available", "true":
		return OverrideForceAvailable, nil
	case "force_unavailable", "unavailable", "false":
		return OverrideForceUnavailable, nil
	default:
		return OverrideAuto, fmt.Errorf("pricing: unknown availability override %q", value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o Override) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Override) UnmarshalText(text []byte) error {
	parsed, err := ParseOverride(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// Pricing is the authoritative price pair of a candy. It is either ByWeight or ByPiece.
type Pricing interface {
	Mode() Mode
}

// ByWeight carries prices per kilogram.
type ByWeight struct {
	BuyPerKg  *float64
	SellPerKg *float64
}

// Mode implements Pricing.
func (ByWeight) Mode() Mode { return ModeByWeight }

// ByPiece carries prices per single piece.
type ByPiece struct {
	BuyPerPiece  *float64
	SellPerPiece *float64
}

// Mode implements Pricing.
func (ByPiece) Mode() Mode { return ModeByPiece }

// Derived holds the fields recomputed by Derive. They are never authoritative.
// MirrorBuy/MirrorSell are per-piece prices for ByWeight candies and per-kg
// prices for ByPiece candies.
type Derived struct {
	PiecesPerKg *int64
	MirrorBuy   *float64
	MirrorSell  *float64
	Available   bool
}

// Candy is a catalog item sold either by weight or by piece.
type Candy struct {
	ID              string
	Name            string
	Category        string
	PhotoURL        string
	Pricing         Pricing
	UnitWeightGrams *float64
	Override        Override
	Derived         Derived
}

// Mode returns the pricing mode, defaulting to by_weight when no pricing is attached.
func (c Candy) Mode() Mode {
	if c.Pricing == nil {
		return ModeByWeight
	}
	return c.Pricing.Mode()
}

// PricePerKgBuy returns the authoritative or mirrored buy price per kilogram.
func (c Candy) PricePerKgBuy() *float64 {
	if p, ok := c.Pricing.(ByWeight); ok {
		return p.BuyPerKg
	}
	return c.Derived.MirrorBuy
}

// PricePerKgSell returns the authoritative or mirrored sell price per kilogram.
func (c Candy) PricePerKgSell() *float64 {
	if p, ok := c.Pricing.(ByWeight); ok {
		return p.SellPerKg
	}
	return c.Derived.MirrorSell
}

// PricePerPieceBuy returns the authoritative or mirrored buy price per piece.
func (c Candy) PricePerPieceBuy() *float64 {
	if p, ok := c.Pricing.(ByPiece); ok {
		return p.BuyPerPiece
	}
	return c.Derived.MirrorBuy
}

// PricePerPieceSell returns the authoritative or mirrored sell price per piece.
func (c Candy) PricePerPieceSell() *float64 {
	if p, ok := c.Pricing.(ByPiece); ok {
		return p.SellPerPiece
	}
	return c.Derived.MirrorSell
}

// Packaging is a box or bag sold per unit alongside candies.
type Packaging struct {
	ID            string
	Key           string
	Name          string
	PriceSell     float64
	PriceBuy      float64
	CapacityGrams int64
	IsAvailable   bool
}
