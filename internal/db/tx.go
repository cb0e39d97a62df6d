// Package db holds the pgx plumbing shared by services on top of the
// generated queries in db/gen.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	dbgen "github.com/noah-isme/backend-candy/internal/db/gen"
)

// TxBeginner starts transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type txBinder interface {
	WithTx(tx pgx.Tx) *dbgen.Queries
}

// ErrNotTxCapable is returned when a pool is configured but the queries
// value cannot be bound to a transaction.
var ErrNotTxCapable = errors.New("db: queries cannot be bound to a transaction")

// InTx runs fn with q bound to a fresh transaction and commits when fn
// succeeds. Without a pool fn runs against q directly, which is how services
// are exercised with in-memory queriers.
func InTx[Q any](ctx context.Context, pool TxBeginner, q Q, fn func(Q) error) error {
	if pool == nil {
		return fn(q)
	}
	binder, ok := any(q).(txBinder)
	if !ok {
		return ErrNotTxCapable
	}
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	bound, ok := any(binder.WithTx(tx)).(Q)
	if !ok {
		return ErrNotTxCapable
	}
	if err := fn(bound); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
