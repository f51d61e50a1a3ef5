package repository

import (
	"context"

	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmoiron/sqlx"
)

// withTx runs fn in the provided tx, or in a fresh scoped transaction when tx is nil.
func withTx(ctx context.Context, conn *sqlx.DB, tx *sqlx.Tx, fn func(*sqlx.Tx) error) error {
	if tx != nil {
		return fn(tx)
	}
	return db.WithTx(ctx, conn, fn)
}
