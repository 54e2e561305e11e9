package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service drives order submission: synchronous validation, the asynchronous
// history check, order code generation, and emission to the sink.
type Service struct {
	orders  Repository
	limiter *Limiter
	now     func() time.Time
}

// NewService creates a Service submitting to the given repository and gated
// by the given limiter.
func NewService(orders Repository, limiter *Limiter) *Service {
	return &Service{
		orders:  orders,
		limiter: limiter,
		now:     time.Now,
	}
}

// Submit validates the draft and, when every rule passes, finalizes it into
// an immutable Order and hands it to the sink.
//
// Synchronous rule failures are returned as ValidationErrors and skip the
// history check entirely; querying history for an already-invalid draft is
// wasted work (both checks are idempotent, so this is an optimization, not a
// correctness requirement). The history check itself fails open on source
// errors. The returned order carries the sink-assigned ID.
func (s *Service) Submit(ctx context.Context, d *Draft) (*Order, error) {
	if errs := d.Validate(); len(errs) > 0 {
		return nil, errs
	}

	now := s.now()

	if res := s.limiter.Check(ctx, d.Email(), now); !res.OK {
		return nil, ValidationErrors{{
			Rule:    RuleOrderLimitExceeded,
			Field:   "email",
			Message: res.Reason,
		}}
	}

	o := &Order{
		CustomerName: d.CustomerName(),
		Email:        d.Email(),
		Lines:        d.Lines(),
		Total:        d.Pricing().Total.Round(2),
		OrderCode:    GenerateCode(d.CustomerName(), d.Email(), now),
		CreatedAt:    now,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}
