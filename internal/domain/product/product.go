package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for ordering. Products are
// immutable within an order-composition session; the catalog replaces them
// wholesale on load.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Stock     int
}

// Source provides the product catalog from an external system.
type Source interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}
