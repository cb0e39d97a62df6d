package order

import (
	"context"

	"github.com/noah-isme/backend-candy/internal/pricing"
)

// CandySource resolves candies by id.
type CandySource interface {
	CandiesByIDs(ctx context.Context, ids []string) ([]pricing.Candy, error)
}

// PackagingSource resolves packaging by id.
type PackagingSource interface {
	PackagingByIDs(ctx context.Context, ids []string) ([]pricing.Packaging, error)
}

// CatalogLookup joins the candy and packaging services into the lookup used
// for snapshots.
type CatalogLookup struct {
	Candies   CandySource
	Packaging PackagingSource
}

// CandiesByIDs implements pricing.CatalogLookup.
func (l CatalogLookup) CandiesByIDs(ctx context.Context, ids []string) ([]pricing.Candy, error) {
	if l.Candies == nil {
		return nil, nil
	}
	return l.Candies.CandiesByIDs(ctx, ids)
}

// PackagingByIDs implements pricing.CatalogLookup.
func (l CatalogLookup) PackagingByIDs(ctx context.Context, ids []string) ([]pricing.Packaging, error) {
	if l.Packaging == nil {
		return nil, nil
	}
	return l.Packaging.PackagingByIDs(ctx, ids)
}
