package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmehdipour/crm-tools/internal/db"
	"github.com/jmehdipour/crm-tools/internal/model"
	"github.com/jmoiron/sqlx"
)

type CustomersRepository interface {
	Insert(ctx context.Context, tx *sqlx.Tx, name, email string) (int64, error)
	Exists(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
	GetByEmail(ctx context.Context, email string) (*model.Customer, error)
	ListWithoutMessages(ctx context.Context) ([]model.Customer, error)
	ListWithLastMessageBefore(ctx context.Context, threshold string) ([]model.Customer, error)
}

type CustomersRepositoryImpl struct {
	db *sqlx.DB
}

func NewCustomersRepository(conn *sqlx.DB) *CustomersRepositoryImpl {
	return &CustomersRepositoryImpl{db: conn}
}

var _ CustomersRepository = (*CustomersRepositoryImpl)(nil)

// Insert adds a customer and returns the generated id. A duplicate email
// surfaces as the driver's UNIQUE constraint error (see db.IsUniqueViolation).
func (r *CustomersRepositoryImpl) Insert(ctx context.Context, tx *sqlx.Tx, name, email string) (int64, error) {
	const q = `INSERT INTO customers (name, email) VALUES (?, ?)`

	var id int64
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, q, name, email)
		if err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (r *CustomersRepositoryImpl) Exists(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = ?)`

	var ok bool
	err := withTx(ctx, r.db, tx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &ok, q, id)
	})
	if err != nil {
		return false, fmt.Errorf("customer exists: %w", err)
	}
	return ok, nil
}

// GetByID returns (nil, nil) when no customer has the id.
func (r *CustomersRepositoryImpl) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	const q = `SELECT customer_id, name, email FROM customers WHERE customer_id = ? LIMIT 1`
	return r.getOne(ctx, q, id)
}

// GetByEmail returns (nil, nil) when no customer has the email.
func (r *CustomersRepositoryImpl) GetByEmail(ctx context.Context, email string) (*model.Customer, error) {
	const q = `SELECT customer_id, name, email FROM customers WHERE email = ? LIMIT 1`
	return r.getOne(ctx, q, email)
}

func (r *CustomersRepositoryImpl) getOne(ctx context.Context, q string, arg any) (*model.Customer, error) {
	var c model.Customer
	err := db.WithConn(ctx, r.db, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &c, q, arg)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// ListWithoutMessages is a left anti-join of customers against messages.
func (r *CustomersRepositoryImpl) ListWithoutMessages(ctx context.Context) ([]model.Customer, error) {
	const q = `
		SELECT c.customer_id, c.name, c.email
		  FROM customers c
		  LEFT JOIN messages m ON m.customer_id = c.customer_id
		 WHERE m.message_id IS NULL
		 ORDER BY c.customer_id
	`
	return r.list(ctx, q)
}

// ListWithLastMessageBefore returns customers whose newest message timestamp
// sorts strictly before threshold. threshold must already be in
// model.TimestampLayout so the string comparison is chronological.
func (r *CustomersRepositoryImpl) ListWithLastMessageBefore(ctx context.Context, threshold string) ([]model.Customer, error) {
	const q = `
		SELECT c.customer_id, c.name, c.email
		  FROM customers c
		  JOIN messages m ON m.customer_id = c.customer_id
		 GROUP BY c.customer_id, c.name, c.email
		HAVING MAX(m.timestamp) < ?
		 ORDER BY c.customer_id
	`
	return r.list(ctx, q, threshold)
}

func (r *CustomersRepositoryImpl) list(ctx context.Context, q string, args ...any) ([]model.Customer, error) {
	out := make([]model.Customer, 0)
	err := db.WithConn(ctx, r.db, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &out, q, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}
