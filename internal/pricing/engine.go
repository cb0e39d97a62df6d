package pricing

import "github.com/noah-isme/backend-candy/internal/money"

// Totals aggregates the monetary and weight figures of an order.
type Totals struct {
	RevenueMinor          money.Minor `json:"totalRevenueMinor"`
	CostMinor             money.Minor `json:"totalCostMinor"`
	ProfitMinor           money.Minor `json:"profitMinor"`
	WeightGrams           int64       `json:"totalWeightGrams"`
	PackagingCount        int64       `json:"packagingCount"`
	EffectivePackageCount int64       `json:"effectivePackageCount"`
}

// ComputeOrderTotals combines candy lines, which describe the contents of one
// package, with packaging lines. Candy subtotals are multiplied by the number
// of packages (at least one); packaging subtotals are added as they are.
func ComputeOrderTotals(candyLines []CandyLine, packagingLines []PackagingLine) Totals {
	var perPackSell, perPackCost money.Minor
	var perPackWeight int64
	for _, line := range candyLines {
		perPackSell += line.SubtotalSellMinor
		perPackCost += line.SubtotalBuyMinor
		perPackWeight += line.LineWeightGrams
	}

	var packSell, packCost money.Minor
	var packCount int64
	for _, line := range packagingLines {
		packSell += line.SubtotalSellMinor
		packCost += line.SubtotalBuyMinor
		packCount += line.Qty
	}

	effective := packCount
	if effective < 1 {
		effective = 1
	}

	revenue := perPackSell*effective + packSell
	cost := perPackCost*effective + packCost
	return Totals{
		RevenueMinor:          revenue,
		CostMinor:             cost,
		ProfitMinor:           revenue - cost,
		WeightGrams:           perPackWeight * effective,
		PackagingCount:        packCount,
		EffectivePackageCount: effective,
	}
}
