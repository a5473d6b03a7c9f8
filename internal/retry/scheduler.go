// Package retry runs an operation repeatedly until a response is accepted,
// attempts are exhausted, or the context ends. Exhaustion is not an error:
// the caller gets the best candidate seen, or nothing, and decides what a
// degraded result looks like.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgnsrekt/price_agent/internal/types"
)

// Outcome classifies a single attempt.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeErrored  Outcome = "errored"
	OutcomeTimedOut Outcome = "timed-out"
)

// Attempt records what happened on one try. Transient: exists only within
// one Run invocation.
type Attempt struct {
	Index   int
	Delay   time.Duration
	Outcome Outcome
}

// Policy configures one Run invocation.
type Policy[T any] struct {
	// MaxAttempts bounds the loop. Values < 1 are treated as 1.
	MaxAttempts int
	// BaseDelay seeds the exponential fallback delay (base * 2^i).
	BaseDelay time.Duration
	// Delays overrides the delay after attempt i when Delays[i] is present.
	Delays []time.Duration
	// Accept is the only early-exit path: a response it approves returns
	// immediately.
	Accept func(T) bool
	// Candidate marks responses worth keeping as the running fallback.
	// The last candidate wins, not the first.
	Candidate func(T) bool
}

// Result is what Run hands back. Accepted means Accept approved Value;
// HasCandidate means Value is the last candidate seen before exhaustion.
type Result[T any] struct {
	Value        T
	Accepted     bool
	HasCandidate bool
	Attempts     []Attempt
}

// Run executes op up to MaxAttempts times. Operation errors and timeouts
// are absorbed as attempt outcomes and never abort the loop.
func Run[T any](ctx context.Context, p Policy[T], op func(context.Context) (T, error)) Result[T] {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var res Result[T]
	for i := 0; i < attempts; i++ {
		if i > 0 {
			delay := p.delayAfter(i - 1)
			res.Attempts[i-1].Delay = delay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				slog.Debug("retry canceled during backoff", "attempt", i)
				return res
			}
		}

		value, err := op(ctx)
		attempt := Attempt{Index: i}
		switch {
		case err != nil:
			attempt.Outcome = classify(err)
			slog.Debug("retry attempt failed", "attempt", i, "outcome", attempt.Outcome, "error", err)
		case p.Accept != nil && p.Accept(value):
			attempt.Outcome = OutcomeAccepted
			res.Attempts = append(res.Attempts, attempt)
			res.Value = value
			res.Accepted = true
			res.HasCandidate = true
			return res
		default:
			attempt.Outcome = OutcomeRejected
			if p.Candidate != nil && p.Candidate(value) {
				res.Value = value
				res.HasCandidate = true
			}
		}
		res.Attempts = append(res.Attempts, attempt)
	}

	slog.Debug("retry attempts exhausted", "attempts", len(res.Attempts), "has_candidate", res.HasCandidate)
	return res
}

func (p Policy[T]) delayAfter(i int) time.Duration {
	if i < len(p.Delays) {
		return p.Delays[i]
	}
	base := p.BaseDelay
	if base <= 0 {
		return 0
	}
	return base << uint(i)
}

func classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimedOut
	}
	var coded *types.CodedError
	if errors.As(err, &coded) && coded.Code == types.CodeChannelTimeout {
		return OutcomeTimedOut
	}
	return OutcomeErrored
}
