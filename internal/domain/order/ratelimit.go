package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// HistorySource is the slice of Repository the limiter needs.
type HistorySource interface {
	ListByEmail(ctx context.Context, email string) ([]Order, error)
}

// CheckResult is the always-resolving outcome of a history check. A failed
// query never produces an error result; fail-open semantics are structural,
// not a caught-exception fallback.
type CheckResult struct {
	OK     bool
	Reason string
}

// Limiter rejects submissions from customers who already placed too many
// orders within the lookback window. The window and threshold are explicit
// configuration, never hard-coded literals.
type Limiter struct {
	history   HistorySource
	lookback  time.Duration
	maxOrders int
}

// NewLimiter creates a Limiter counting orders within lookback of "now" and
// rejecting once maxOrders is reached.
func NewLimiter(history HistorySource, lookback time.Duration, maxOrders int) *Limiter {
	return &Limiter{history: history, lookback: lookback, maxOrders: maxOrders}
}

// Check queries the customer's order history and counts orders inside the
// lookback window. Reaching the threshold fails the check; a history query
// error is logged and treated as a pass, so a transient outage of the history
// service never blocks legitimate orders. An empty email passes: the required
// fields rule owns that failure.
func (l *Limiter) Check(ctx context.Context, email string, now time.Time) CheckResult {
	if email == "" {
		return CheckResult{OK: true}
	}

	orders, err := l.history.ListByEmail(ctx, email)
	if err != nil {
		zctx.From(ctx).Warn("Order history unavailable, allowing submission",
			zap.String("email", email),
			zap.Error(err),
		)
		return CheckResult{OK: true}
	}

	recent := 0
	for _, o := range orders {
		if now.Sub(o.CreatedAt) <= l.lookback {
			recent++
		}
	}

	if recent >= l.maxOrders {
		return CheckResult{
			OK:     false,
			Reason: fmt.Sprintf("customer already placed %d orders in the last %s", recent, l.lookback),
		}
	}
	return CheckResult{OK: true}
}

// Watcher re-runs the limiter as the email field changes, applying
// last-request-wins: when a newer check has been issued, the result of an
// older in-flight query is discarded instead of stamping a stale pass or fail
// onto the current email value.
type Watcher struct {
	limiter *Limiter
	now     func() time.Time

	mu  sync.Mutex
	seq uint64
}

// NewWatcher creates a Watcher over the given limiter.
func NewWatcher(limiter *Limiter) *Watcher {
	return &Watcher{limiter: limiter, now: time.Now}
}

// Trigger starts an asynchronous check for the given email and calls apply
// with the result, unless a later Trigger supersedes this one first. The
// superseded query is not cancelled, only its result is dropped.
func (w *Watcher) Trigger(ctx context.Context, email string, apply func(email string, res CheckResult)) {
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()

	go func() {
		res := w.limiter.Check(ctx, email, w.now())

		w.mu.Lock()
		current := seq == w.seq
		w.mu.Unlock()

		if current {
			apply(email, res)
		}
	}()
}
