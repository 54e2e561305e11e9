// Package catalog holds the session-scoped product cache. The cache is loaded
// wholesale from a product source; a failed load keeps the previous contents
// so a catalog outage degrades product selection without breaking the rest of
// the order engine.
package catalog

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/orderdesk/orderdesk/internal/domain/product"
)

// Cache holds the current product list. Reads are shared across all order
// lines within a session; Load replaces the contents wholesale.
type Cache struct {
	source product.Source

	mu       sync.RWMutex
	products []product.Product
	byID     map[string]product.Product
}

// New creates an empty Cache backed by the given source.
func New(source product.Source) *Cache {
	return &Cache{
		source: source,
		byID:   make(map[string]product.Product),
	}
}

// Load fetches the product list from the source and replaces the cache
// contents. There are no merge semantics. On error the previous contents are
// kept (empty on first failure) and the error is returned to the caller.
func (c *Cache) Load(ctx context.Context) error {
	products, err := c.source.FetchProducts(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch products")
	}

	byID := make(map[string]product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.mu.Unlock()

	return nil
}

// Products returns the cached product list.
func (c *Cache) Products() []product.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products
}

// Resolve looks up a product by its identifier.
func (c *Cache) Resolve(id string) (product.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Len reports the number of cached products.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}
