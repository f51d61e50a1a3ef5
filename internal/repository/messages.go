package repository

import (
	"context"
	"fmt"

	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmoiron/sqlx"
)

// MessagesRepository defines persistence for the messages table.
type MessagesRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, m model.Message) (int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.Message, error)
}

type MessagesRepositoryImpl struct {
	db *sqlx.DB
}

func NewMessagesRepository(conn *sqlx.DB) *MessagesRepositoryImpl {
	return &MessagesRepositoryImpl{db: conn}
}

var _ MessagesRepository = (*MessagesRepositoryImpl)(nil)

// Insert writes m as given; the caller owns the timestamp.
func (r *MessagesRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, m model.Message) (int64, error) {
	const q = `
		INSERT INTO messages
		    (customer_id, timestamp, direction, content)
		VALUES
		    (?,           ?,         ?,         ?)
	`
	var id int64
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, m.CustomerID, m.Timestamp, m.Direction.String(), m.Content)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

// ListByCustomer returns the customer's messages oldest first; equal
// timestamps fall back to insertion order.
func (r *MessagesRepositoryImpl) ListByCustomer(ctx context.Context, customerID int64) ([]model.Message, error) {
	const q = `
		SELECT message_id, customer_id, timestamp, direction, content
		  FROM messages
		 WHERE customer_id = ?
		 ORDER BY timestamp ASC, message_id ASC
	`
	out := make([]model.Message, 0)
	err := db.WithConn(ctx, r.db, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, q, customerID)
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return out, nil
}
