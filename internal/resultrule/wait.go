package resultrule

import (
	"context"
	"time"

	"github.com/forge-run/wharf/pkg/limiter"
	"golang.org/x/time/rate"
)

// Waiter layers the Result Rule's wait policy on top of two cooperating
// rate sources: pkg/limiter's per-host politeness waiter (baseline wait,
// geometric backoff, random-wait jitter) and a process-wide ceiling
// (golang.org/x/time/rate) that bounds total requests/sec across every
// host, independent of per-host pacing.
type Waiter struct {
	perHost limiter.RateLimiter
	global  *rate.Limiter
}

// NewWaiter builds a Waiter. maxGlobalRPS <= 0 disables the global
// ceiling (rate.Inf).
func NewWaiter(perHost limiter.RateLimiter, maxGlobalRPS float64) *Waiter {
	limit := rate.Inf
	burst := 1
	if maxGlobalRPS > 0 {
		limit = rate.Limit(maxGlobalRPS)
		burst = int(maxGlobalRPS)
		if burst < 1 {
			burst = 1
		}
	}
	return &Waiter{
		perHost: perHost,
		global:  rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until both the per-host pacing and the global ceiling
// permit the next request to host, then returns the per-host delay it
// applied (for observability).
func (w *Waiter) Wait(ctx context.Context, host string) (time.Duration, error) {
	if err := w.global.Wait(ctx); err != nil {
		return 0, err
	}
	delay := w.perHost.ResolveDelay(host)
	if delay <= 0 {
		return 0, nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		return delay, ctx.Err()
	}
}

// OnOutcome feeds the Result Rule's verdict back into the per-host
// waiter: errors escalate backoff, terminal outcomes reset it.
func (w *Waiter) OnOutcome(host string, v Verdict) {
	switch v.Outcome {
	case OutcomeError, OutcomeRetry:
		w.perHost.Backoff(host)
	case OutcomeDone:
		w.perHost.ResetBackoff(host)
	}
}
