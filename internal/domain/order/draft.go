package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/orderdesk/orderdesk/internal/domain/catalog"
)

// ErrNoSuchLine is returned by line mutators when the index is out of range.
var ErrNoSuchLine = errors.New("no such line")

// Draft is the mutable in-progress order a clerk edits before submission.
// It owns the line table and the derived pricing state; every mutator
// re-resolves lines against the catalog and recomputes pricing synchronously,
// so derived state is always consistent when the mutator returns.
//
// A Draft belongs to a single order-composition session and is not safe for
// concurrent use.
type Draft struct {
	catalog      *catalog.Cache
	customerName string
	email        string
	lines        []OrderLine

	resolved []ResolvedLine
	pricing  Pricing
}

// NewDraft creates an empty draft resolving against the given catalog.
func NewDraft(cat *catalog.Cache) *Draft {
	return &Draft{catalog: cat}
}

// AddLine appends a new line with no product selected and quantity 1.
// Lines are not validated on add; validation covers the whole table.
func (d *Draft) AddLine() {
	d.lines = append(d.lines, OrderLine{ProductID: "", Quantity: 1})
	d.recompute()
}

// SetProduct rebinds a line's product reference. The per-line quantity bound
// is re-derived from the newly resolved product's stock during validation.
func (d *Draft) SetProduct(i int, productID string) error {
	if i < 0 || i >= len(d.lines) {
		return errors.Wrapf(ErrNoSuchLine, "set product on line %d of %d", i, len(d.lines))
	}
	d.lines[i].ProductID = productID
	d.recompute()
	return nil
}

// SetQuantity updates a line's quantity. The quantity is checked against the
// resolved product's stock by the validation rules, not silently clamped.
func (d *Draft) SetQuantity(i, qty int) error {
	if i < 0 || i >= len(d.lines) {
		return errors.Wrapf(ErrNoSuchLine, "set quantity on line %d of %d", i, len(d.lines))
	}
	d.lines[i].Quantity = qty
	d.recompute()
	return nil
}

// RemoveLine deletes a line from the table.
func (d *Draft) RemoveLine(i int) error {
	if i < 0 || i >= len(d.lines) {
		return errors.Wrapf(ErrNoSuchLine, "remove line %d of %d", i, len(d.lines))
	}
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	d.recompute()
	return nil
}

// SetCustomerName sets the customer name field.
func (d *Draft) SetCustomerName(name string) {
	d.customerName = name
}

// SetEmail sets the email field.
func (d *Draft) SetEmail(email string) {
	d.email = email
}

// Reset restores the draft to its initial empty state.
func (d *Draft) Reset() {
	d.customerName = ""
	d.email = ""
	d.lines = nil
	d.recompute()
}

// CustomerName returns the current customer name.
func (d *Draft) CustomerName() string { return d.customerName }

// Email returns the current email.
func (d *Draft) Email() string { return d.email }

// Lines returns a copy of the current line table.
func (d *Draft) Lines() []OrderLine {
	out := make([]OrderLine, len(d.lines))
	copy(out, d.lines)
	return out
}

// ResolvedLines returns the current lines joined against the catalog. This is
// the display view over the table ("selected products"); it is derived state
// and is never validated itself.
func (d *Draft) ResolvedLines() []ResolvedLine {
	out := make([]ResolvedLine, len(d.resolved))
	copy(out, d.resolved)
	return out
}

// Pricing returns the derived pricing for the current table state.
func (d *Draft) Pricing() Pricing {
	return d.pricing
}

// recompute re-resolves every line against the catalog and re-derives
// pricing. Called by every mutator before it returns.
func (d *Draft) recompute() {
	d.resolved = make([]ResolvedLine, len(d.lines))
	for i, line := range d.lines {
		rl := ResolvedLine{ProductID: line.ProductID, Quantity: line.Quantity}
		if p, ok := d.catalog.Resolve(line.ProductID); ok {
			rl.Known = true
			rl.Name = p.Name
			rl.UnitPrice = p.UnitPrice
			rl.Stock = p.Stock
			rl.LineTotal = p.UnitPrice.Mul(intDecimal(line.Quantity))
		}
		d.resolved[i] = rl
	}
	d.pricing = ComputePricing(d.resolved)
}

// Validate evaluates all synchronous rules over the current draft state.
func (d *Draft) Validate() ValidationErrors {
	return ValidateDraft(d.customerName, d.email, d.lines, d.resolved)
}

// String summarizes the draft for logging.
func (d *Draft) String() string {
	return fmt.Sprintf("draft{customer=%q lines=%d total=%s}", d.customerName, len(d.lines), d.pricing.Total)
}
