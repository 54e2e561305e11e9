package order

import "github.com/shopspring/decimal"

// Discount policy: orders above the threshold get 10% off.
var (
	discountThreshold = decimal.NewFromInt(1000)
	discountRate      = decimal.RequireFromString("0.9")
)

// Pricing holds the derived totals for a draft. Subtotal and Total keep full
// decimal precision; rounding to 2 places happens only when the immutable
// Order is constructed, so repeated recomputes never compound rounding error.
type Pricing struct {
	Subtotal        decimal.Decimal
	DiscountApplied bool
	Total           decimal.Decimal
}

// ComputePricing derives pricing from resolved lines. Unresolved lines carry
// a zero line total and contribute nothing. An empty table prices to zero;
// there are no error conditions.
func ComputePricing(lines []ResolvedLine) Pricing {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal)
	}

	p := Pricing{Subtotal: subtotal, Total: subtotal}
	if subtotal.GreaterThan(discountThreshold) {
		p.DiscountApplied = true
		p.Total = subtotal.Mul(discountRate)
	}
	return p
}

func intDecimal(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}
