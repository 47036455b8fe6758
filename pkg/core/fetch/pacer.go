// Package fetch implements the shared rate-limited HTTP client used for all
// archive requests. One Client instance is created per run and injected into
// every fetch task; there is no package-level state.
package fetch

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer serializes request grants so the aggregate rate never exceeds the
// configured ceiling no matter how many tasks call Acquire concurrently.
// With a burst of one, two grants are never closer than 1/rps.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer for the given requests-per-second ceiling.
// Non-positive values fall back to a conservative 0.1 rps.
func NewPacer(rps float64) *Pacer {
	if rps <= 0 {
		rps = 0.1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Acquire blocks until the minimum inter-request interval has elapsed since
// the last grant, or the context is cancelled.
func (p *Pacer) Acquire(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
