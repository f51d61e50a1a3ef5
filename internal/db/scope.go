package db

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// WithConn acquires one connection, hands it to fn and releases it on every path.
func WithConn(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Conn) error) error {
	conn, err := db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()
	return fn(conn)
}

// WithTx runs fn inside a transaction on a scoped connection. The transaction
// commits when fn returns nil and rolls back otherwise.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	return WithConn(ctx, db, func(conn *sqlx.Conn) error {
		tx, err := conn.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() { _ = tx.Rollback() }()
		if err := fn(tx); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
}

// WithReadOnlyConn runs fn on a scoped connection with PRAGMA query_only
// switched on. If the pragma cannot be switched back off the connection is
// discarded instead of being returned to the pool.
func WithReadOnlyConn(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Conn) error) error {
	return WithConn(ctx, db, func(conn *sqlx.Conn) error {
		if _, err := conn.ExecContext(ctx, "PRAGMA query_only = 1"); err != nil {
			return fmt.Errorf("enable query_only: %w", err)
		}
		defer func() {
			// the caller's ctx may already be cancelled here
			if _, err := conn.ExecContext(context.Background(), "PRAGMA query_only = 0"); err != nil {
				_ = conn.Raw(func(any) error { return driver.ErrBadConn })
			}
		}()
		return fn(conn)
	})
}
