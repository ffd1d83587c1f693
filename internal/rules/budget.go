// internal/rules/budget.go
package rules

import (
	"context"
	"time"
)

/*
 * Context generation budget.
 *
 * A Budget is the mutable accumulator threaded through one rule's recursive
 * context generation. It is never shared between rules or calls.
 *
 * Two independent limits:
 *   - ContextLimit: the (L+1)th leaf trips LimitReached, so at most L tuples
 *     are produced and LimitReached is set iff the full product exceeds L
 *   - Deadline: wall-clock bound measured from the evaluation start chosen
 *     by the caller (batch or rule, see Options.TimeBudget), tightened by the
 *     caller's context deadline; cancellation also trips TimeReached
 *
 * Once either flag is set every enclosing iteration stops.
 */

// Budget bounds context generation for one rule.
type Budget struct {
	ContextLimit int
	Deadline     time.Time // zero means no wall-clock bound
	Count        int       // leaves attempted, including the one that tripped the limit
	LimitReached bool
	TimeReached  bool

	done <-chan struct{}
	now  func() time.Time
}

// NewBudget creates a budget measuring timeLimit from start. A zero or
// negative timeLimit disables the wall-clock bound.
func NewBudget(ctx context.Context, contextLimit int, start time.Time, timeLimit time.Duration) *Budget {
	b := &Budget{
		ContextLimit: contextLimit,
		done:         ctx.Done(),
		now:          time.Now,
	}
	if timeLimit > 0 {
		b.Deadline = start.Add(timeLimit)
	}
	if d, ok := ctx.Deadline(); ok && (b.Deadline.IsZero() || d.Before(b.Deadline)) {
		b.Deadline = d
	}
	return b
}

// Exhausted reports whether either limit has tripped.
func (b *Budget) Exhausted() bool {
	return b.LimitReached || b.TimeReached
}

// take reserves one context slot. Returns false once the budget trips.
func (b *Budget) take() bool {
	if b.Exhausted() {
		return false
	}

	b.Count++
	if b.Count > b.ContextLimit {
		b.LimitReached = true
		return false
	}

	if b.expired() {
		b.TimeReached = true
		return false
	}

	return true
}

// expired checks the deadline and caller cancellation.
func (b *Budget) expired() bool {
	if b.done != nil {
		select {
		case <-b.done:
			return true
		default:
		}
	}
	return !b.Deadline.IsZero() && b.now().After(b.Deadline)
}
