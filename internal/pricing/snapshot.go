package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-candy/internal/money"
)

// ErrLookupUnavailable marks a catalog lookup failure. Callers should treat it as retryable.
var ErrLookupUnavailable = errors.New("pricing: catalog lookup unavailable")

// MaxLineQuantity caps the pieces, grams or packages of a single line.
// Larger requests are rejected at the API and clamped by the snapshot
// functions, which keeps every subtotal well inside int64.
const MaxLineQuantity = 1_000_000

// CandyLineRequest is a requested candy line. QtyPieces is read for by_piece
// candies and WeightGrams for by_weight ones; the catalog decides which.
// Negative quantities are accepted and count as zero.
type CandyLineRequest struct {
	CandyID     string   `json:"candyId"`
	QtyPieces   *float64 `json:"qtyPieces,omitempty" validate:"omitempty,lte=1000000"`
	WeightGrams *float64 `json:"weightG,omitempty" validate:"omitempty,lte=1000000"`
}

// PackagingLineRequest is a requested packaging line.
type PackagingLineRequest struct {
	PackagingID string  `json:"packagingId"`
	Qty         float64 `json:"qty" validate:"omitempty,lte=1000000"`
}

// CandyLine is the immutable snapshot of a candy line. Subtotals cover the
// contents of a single package.
type CandyLine struct {
	CandyID     string `json:"candyId"`
	Name        string `json:"name"`
	PricingMode Mode   `json:"pricingMode"`

	QtyPieces   int64 `json:"qtyPieces,omitempty"`
	WeightGrams int64 `json:"weightG,omitempty"`

	SellUnitMinor  money.Minor `json:"sellUnitKop,omitempty"`
	BuyUnitMinor   money.Minor `json:"buyUnitKop,omitempty"`
	SellPerKgMinor money.Minor `json:"sellPerKgKop,omitempty"`
	BuyPerKgMinor  money.Minor `json:"buyPerKgKop,omitempty"`

	SubtotalSellMinor money.Minor `json:"subtotalSellKop"`
	SubtotalBuyMinor  money.Minor `json:"subtotalBuyKop"`
	LineWeightGrams   int64       `json:"lineWeightG"`
}

// PackagingLine is the immutable snapshot of a packaging line.
type PackagingLine struct {
	PackagingID       string      `json:"packagingId"`
	Name              string      `json:"name"`
	Qty               int64       `json:"qty"`
	SellUnitMinor     money.Minor `json:"sellKop"`
	BuyUnitMinor      money.Minor `json:"buyKop"`
	SubtotalSellMinor money.Minor `json:"subtotalSellKop"`
	SubtotalBuyMinor  money.Minor `json:"subtotalBuyKop"`
}

// DroppedLine records a requested line whose catalog item no longer exists.
type DroppedLine struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// Snapshot is the result of BuildOrderSnapshot.
type Snapshot struct {
	CandyLines     []CandyLine
	PackagingLines []PackagingLine
	Totals         Totals
	Dropped        []DroppedLine
}

// CatalogLookup resolves catalog items by id. Unknown ids are simply absent
// from the result.
type CatalogLookup interface {
	CandiesByIDs(ctx context.Context, ids []string) ([]Candy, error)
	PackagingByIDs(ctx context.Context, ids []string) ([]Packaging, error)
}

// SnapshotCandyLine copies pricing from the catalog candy into an order line.
func SnapshotCandyLine(req CandyLineRequest, c Candy) CandyLine {
	line := CandyLine{
		CandyID:     req.CandyID,
		Name:        c.Name,
		PricingMode: c.Mode(),
	}
	if line.PricingMode == ModeByPiece {
		pcs := floorNonNegative(req.QtyPieces)
		line.QtyPieces = pcs
		line.SellUnitMinor = money.ToMinor(c.PricePerPieceSell())
		line.BuyUnitMinor = money.ToMinor(c.PricePerPieceBuy())
		line.SubtotalSellMinor = line.SellUnitMinor * pcs
		line.SubtotalBuyMinor = line.BuyUnitMinor * pcs
		if money.IsPositiveFinite(c.UnitWeightGrams) {
			line.LineWeightGrams = money.RoundInt(*c.UnitWeightGrams * float64(pcs))
		}
		return line
	}

	grams := floorNonNegative(req.WeightGrams)
	line.WeightGrams = grams
	line.SellPerKgMinor = money.ToMinor(c.PricePerKgSell())
	line.BuyPerKgMinor = money.ToMinor(c.PricePerKgBuy())
	line.SubtotalSellMinor = money.MulDivRound(line.SellPerKgMinor, grams, gramsPerKg)
	line.SubtotalBuyMinor = money.MulDivRound(line.BuyPerKgMinor, grams, gramsPerKg)
	line.LineWeightGrams = grams
	return line
}

// SnapshotPackagingLine copies pricing from the catalog packaging into an order line.
func SnapshotPackagingLine(req PackagingLineRequest, p Packaging) PackagingLine {
	qty := floorNonNegative(&req.Qty)
	sell := money.ToMinor(&p.PriceSell)
	buy := money.ToMinor(&p.PriceBuy)
	return PackagingLine{
		PackagingID:       req.PackagingID,
		Name:              p.Name,
		Qty:               qty,
		SellUnitMinor:     sell,
		BuyUnitMinor:      buy,
		SubtotalSellMinor: sell * qty,
		SubtotalBuyMinor:  buy * qty,
	}
}

// BuildOrderSnapshot resolves every referenced catalog item, snapshots the
// lines that still resolve and computes order totals. Lines referencing
// missing items are dropped and listed in Snapshot.Dropped.
func BuildOrderSnapshot(ctx context.Context, candyReqs []CandyLineRequest, packReqs []PackagingLineRequest, lookup CatalogLookup) (Snapshot, error) {
	if lookup == nil {
		return Snapshot{}, fmt.Errorf("%w: lookup not configured", ErrLookupUnavailable)
	}
	candies, packs, err := resolve(ctx, candyReqs, packReqs, lookup)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	snap.CandyLines, snap.Dropped = SnapshotCandyLines(candyReqs, candies, snap.Dropped)
	snap.PackagingLines, snap.Dropped = SnapshotPackagingLines(packReqs, packs, snap.Dropped)
	snap.Totals = ComputeOrderTotals(snap.CandyLines, snap.PackagingLines)
	return snap, nil
}

// SnapshotCandyLines snapshots the requests against an id-indexed catalog view,
// appending unresolved ids to dropped.
func SnapshotCandyLines(reqs []CandyLineRequest, candies map[string]Candy, dropped []DroppedLine) ([]CandyLine, []DroppedLine) {
	lines := make([]CandyLine, 0, len(reqs))
	for _, req := range reqs {
		c, ok := candies[req.CandyID]
		if !ok {
			dropped = append(dropped, DroppedLine{Kind: "candy", ID: req.CandyID})
			continue
		}
		lines = append(lines, SnapshotCandyLine(req, c))
	}
	return lines, dropped
}

// SnapshotPackagingLines snapshots the requests against an id-indexed packaging view,
// appending unresolved ids to dropped.
func SnapshotPackagingLines(reqs []PackagingLineRequest, packs map[string]Packaging, dropped []DroppedLine) ([]PackagingLine, []DroppedLine) {
	lines := make([]PackagingLine, 0, len(reqs))
	for _, req := range reqs {
		p, ok := packs[req.PackagingID]
		if !ok {
			dropped = append(dropped, DroppedLine{Kind: "packaging", ID: req.PackagingID})
			continue
		}
		lines = append(lines, SnapshotPackagingLine(req, p))
	}
	return lines, dropped
}

func resolve(ctx context.Context, candyReqs []CandyLineRequest, packReqs []PackagingLineRequest, lookup CatalogLookup) (map[string]Candy, map[string]Packaging, error) {
	candyIDs := uniqueIDs(len(candyReqs), func(i int) string { return candyReqs[i].CandyID })
	packIDs := uniqueIDs(len(packReqs), func(i int) string { return packReqs[i].PackagingID })

	candies := make(map[string]Candy, len(candyIDs))
	packs := make(map[string]Packaging, len(packIDs))

	g, gctx := errgroup.WithContext(ctx)
	if len(candyIDs) > 0 {
		g.Go(func() error {
			rows, err := lookup.CandiesByIDs(gctx, candyIDs)
			if err != nil {
				return fmt.Errorf("%w: candies: %w", ErrLookupUnavailable, err)
			}
			for _, c := range rows {
				candies[c.ID] = c
			}
			return nil
		})
	}
	if len(packIDs) > 0 {
		g.Go(func() error {
			rows, err := lookup.PackagingByIDs(gctx, packIDs)
			if err != nil {
				return fmt.Errorf("%w: packaging: %w", ErrLookupUnavailable, err)
			}
			for _, p := range rows {
				packs[p.ID] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return candies, packs, nil
}

func uniqueIDs(n int, at func(int) string) []string {
	seen := make(map[string]struct{}, n)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := at(i)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// floorNonNegative is max(0, floor(v)) clamped to MaxLineQuantity. Absent
// and NaN count as zero.
func floorNonNegative(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || *v <= 0 {
		return 0
	}
	if *v >= MaxLineQuantity {
		return MaxLineQuantity
	}
	return int64(math.Floor(*v))
}
