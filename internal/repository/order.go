package repository

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_name, email, lines, total, order_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	listOrdersSQL = `SELECT id, customer_name, email, lines, total, order_code, created_at
		FROM orders ORDER BY created_at DESC`

	listOrdersByEmailSQL = `SELECT id, customer_name, email, lines, total, order_code, created_at
		FROM orders WHERE lower(email) = lower($1) ORDER BY created_at DESC`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. It is
// both the sink finalized orders are emitted to and the history source the
// rate limiter queries.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a finalized order and assigns its ID. The order lines are
// serialized to JSON for storage in the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return errors.Wrap(err, "marshal order lines")
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerName, o.Email, linesJSON, o.Total, o.OrderCode, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create order %s", o.ID)
	}

	return nil
}

// List returns all orders, most recent first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByEmail returns all orders for the given email, most recent first.
// The rate limiter applies its own lookback windowing on top.
func (r *OrderRepository) ListByEmail(ctx context.Context, email string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByEmailSQL, email)
	if err != nil {
		return nil, errors.Wrapf(err, "list orders for %s", email)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		linesJSON []byte
	)
	if err := row.Scan(&o.ID, &o.CustomerName, &o.Email, &linesJSON, &o.Total, &o.OrderCode, &o.CreatedAt); err != nil {
		return order.Order{}, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return order.Order{}, errors.Wrapf(err, "unmarshal lines for order %s", o.ID)
	}
	return o, nil
}
