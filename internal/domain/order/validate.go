package order

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule identifies a validation rule in structured validation errors.
type Rule string

const (
	RuleMissingRequiredField Rule = "MissingRequiredField"
	RuleInvalidQuantity      Rule = "InvalidQuantity"
	RuleDuplicateProduct     Rule = "DuplicateProduct"
	RuleQuantityExceeded     Rule = "QuantityExceeded"
	RuleInsufficientStock    Rule = "InsufficientStock"
	RuleOrderLimitExceeded   Rule = "OrderLimitExceeded"
)

// Order-wide limits.
const (
	// MinCustomerNameLen is the minimum customer name length.
	MinCustomerNameLen = 3
	// MinLineQuantity is the lower bound on every line's quantity.
	MinLineQuantity = 1
	// MaxTotalQuantity is the whole-order ceiling on the sum of line
	// quantities. Per-line limits are stock-bound, a separate rule.
	MaxTotalQuantity = 10
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError is a single rule failure, scoped to a field where one
// applies. Validation errors are recoverable: they block submission but are
// surfaced to the caller, never panicked.
type ValidationError struct {
	Rule    Rule   `json:"rule"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Rule, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// ValidationErrors collects every rule failure for a draft. All rules are
// evaluated; any combination of failures may be reported together. The caller
// decides whether to surface all of them or only the first.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any collected failure is for the given rule.
func (e ValidationErrors) Has(rule Rule) bool {
	for _, ve := range e {
		if ve.Rule == rule {
			return true
		}
	}
	return false
}

// ValidateDraft evaluates the synchronous rule set over a draft: required
// fields, per-line minimum quantity, product uniqueness, the whole-order
// quantity ceiling, and per-line stock bounds. Evaluation order is not significant and failures are
// collected, not short-circuited. A nil result means the draft passed.
//
// The asynchronous history check is not part of this set; callers run it only
// once these rules pass.
func ValidateDraft(customerName, email string, lines []OrderLine, resolved []ResolvedLine) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, validateRequired(customerName, email, lines)...)

	for i, l := range lines {
		if l.Quantity < MinLineQuantity {
			errs = append(errs, ValidationError{
				Rule:    RuleInvalidQuantity,
				Field:   fmt.Sprintf("products[%d]", i),
				Message: fmt.Sprintf("quantity %d is below the minimum of %d", l.Quantity, MinLineQuantity),
			})
		}
	}

	if dup, ok := findDuplicateProduct(lines); ok {
		errs = append(errs, ValidationError{
			Rule:    RuleDuplicateProduct,
			Field:   "products",
			Message: fmt.Sprintf("product %q appears in more than one line", dup),
		})
	}

	if total := totalQuantity(lines); total > MaxTotalQuantity {
		errs = append(errs, ValidationError{
			Rule:    RuleQuantityExceeded,
			Field:   "products",
			Message: fmt.Sprintf("total quantity %d exceeds the limit of %d", total, MaxTotalQuantity),
		})
	}

	for i, rl := range resolved {
		if !rl.Resolved() {
			continue
		}
		if rl.Quantity > rl.Stock {
			errs = append(errs, ValidationError{
				Rule:    RuleInsufficientStock,
				Field:   fmt.Sprintf("products[%d]", i),
				Message: fmt.Sprintf("quantity %d exceeds stock %d for product %q", rl.Quantity, rl.Stock, rl.ProductID),
			})
		}
	}

	return errs
}

func validateRequired(customerName, email string, lines []OrderLine) ValidationErrors {
	var errs ValidationErrors

	switch {
	case customerName == "":
		errs = append(errs, ValidationError{
			Rule:    RuleMissingRequiredField,
			Field:   "customerName",
			Message: "customer name is required",
		})
	case len(customerName) < MinCustomerNameLen:
		errs = append(errs, ValidationError{
			Rule:    RuleMissingRequiredField,
			Field:   "customerName",
			Message: fmt.Sprintf("customer name must be at least %d characters", MinCustomerNameLen),
		})
	}

	switch {
	case email == "":
		errs = append(errs, ValidationError{
			Rule:    RuleMissingRequiredField,
			Field:   "email",
			Message: "email is required",
		})
	case !emailPattern.MatchString(email):
		errs = append(errs, ValidationError{
			Rule:    RuleMissingRequiredField,
			Field:   "email",
			Message: "email is not a valid address",
		})
	}

	if len(lines) == 0 {
		errs = append(errs, ValidationError{
			Rule:    RuleMissingRequiredField,
			Field:   "products",
			Message: "at least one order line is required",
		})
	}

	return errs
}

// findDuplicateProduct compares raw product identifiers, so two still
// unresolved lines (both at "") count as duplicates too.
func findDuplicateProduct(lines []OrderLine) (string, bool) {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			return l.ProductID, true
		}
		seen[l.ProductID] = struct{}{}
	}
	return "", false
}

func totalQuantity(lines []OrderLine) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}
