package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	writeTxOptions    = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	readOnlyTxOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
)

// WithTransaction runs fn in a read-committed transaction that commits when fn
// returns nil. fn's error is returned unwrapped so callers can match sentinels.
func (db *DB) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.runTx(ctx, writeTxOptions, fn)
}

// WithReadOnlyTransaction runs fn against a repeatable-read snapshot, so a
// session row and its rounds are read consistently.
func (db *DB) WithReadOnlyTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.runTx(ctx, readOnlyTxOptions, fn)
}

func (db *DB) runTx(ctx context.Context, opts pgx.TxOptions, fn func(tx pgx.Tx) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, db.Pool, opts, func(tx pgx.Tx) error {
		fnErr = fn(tx)
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
