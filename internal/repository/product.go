package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/orderdesk/orderdesk/internal/domain/product"
)

const (
	fetchProductsSQL = `SELECT id, name, unit_price, stock FROM products ORDER BY id`

	getProductByIDSQL = `SELECT id, name, unit_price, stock FROM products WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, unit_price, stock)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, unit_price = $3, stock = $4`
)

var _ product.Source = (*ProductRepository)(nil)

// ProductRepository implements product.Source backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// FetchProducts returns the whole catalog ordered by ID.
func (r *ProductRepository) FetchProducts(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, fetchProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %s", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %s", id)
	}
	return &p, nil
}

// Upsert inserts or replaces a catalog product. Used by the seed tool.
func (r *ProductRepository) Upsert(ctx context.Context, p product.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.UnitPrice, p.Stock)
	if err != nil {
		return errors.Wrapf(err, "upsert product %s", p.ID)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &price, &p.Stock)
	p.UnitPrice = price
	return p, err
}
