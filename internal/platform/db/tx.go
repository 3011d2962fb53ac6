package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// txAttempts bounds how often a transaction is retried after a
// serialization failure.
const txAttempts = 3

// WithTx executes a function within a transaction using the
// RepeatableRead isolation level. Serialization failures roll the
// transaction back and rerun the callback on a fresh snapshot, so the
// callback must be safe to execute more than once.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return retrySerializable(func() error {
		return runTx(ctx, pool, fn)
	})
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", err)
	}

	return nil
}

func retrySerializable(run func() error) error {
	var err error
	for attempt := 0; attempt < txAttempts; attempt++ {
		err = run()
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

// isSerializationFailure reports SQLSTATE 40001 (serialization_failure)
// and 40P01 (deadlock_detected), both of which PostgreSQL documents as
// retry-on-fresh-snapshot conditions.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
