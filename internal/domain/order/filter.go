package order

import "strings"

// FilterOrders returns the orders whose customer name or email contains the
// query, case-insensitively. An empty query returns the input unchanged. This
// backs the order listing; it is display plumbing, not a validation rule.
func FilterOrders(orders []Order, query string) []Order {
	if query == "" {
		return orders
	}

	q := strings.ToLower(query)
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.CustomerName), q) ||
			strings.Contains(strings.ToLower(o.Email), q) {
			out = append(out, o)
		}
	}
	return out
}
