// Package order implements the order-composition engine: the mutable draft a
// clerk edits, the validation rules that gate submission, pricing recompute,
// the history-based rate limiter, and order code generation.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is a single line in an order draft: a product reference and a
// quantity. A freshly added line has an empty ProductID until the clerk picks
// a product.
type OrderLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ResolvedLine is an order line joined against the current catalog, carrying
// denormalized price and stock for display and validation. It is a view,
// recomputed on every mutation, never stored.
type ResolvedLine struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Stock     int

	// Known is set at resolution time when the product reference was found
	// in the catalog. It is an explicit flag rather than an inference from
	// field values: a legitimate product may carry an empty name or a zero
	// price.
	Known bool
}

// Resolved reports whether the line's product reference was found in the
// catalog at resolution time.
func (l ResolvedLine) Resolved() bool {
	return l.Known
}

// Order is the immutable submission payload created by a successful Submit.
type Order struct {
	ID           string
	CustomerName string
	Email        string
	Lines        []OrderLine
	Total        decimal.Decimal
	OrderCode    string
	CreatedAt    time.Time
}

// Repository is the order store the engine talks to: the sink that receives
// finalized orders and the history source the rate limiter queries.
type Repository interface {
	// Create persists a finalized order, assigning its ID.
	Create(ctx context.Context, o *Order) error
	// ListByEmail returns all orders for the given email; the caller applies
	// its own lookback windowing.
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	// List returns all orders, most recent first.
	List(ctx context.Context) ([]Order, error)
}
