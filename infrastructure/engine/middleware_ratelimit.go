package engine

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/lexforge/lexforge/internal/domain"
)

// rateLimitedCore paces engine calls with a token bucket. A single
// model execution context degrades badly under bursty load; the
// limiter smooths request pacing across all pipelines.
type rateLimitedCore struct {
	next    Core
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware enforcing a sustained
// requests-per-second limit with the given burst allowance.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)
	return func(next Core) Core {
		return &rateLimitedCore{next: next, limiter: limiter}
	}
}

// DoGenerate waits for a token before forwarding the call. The wait is
// cancellable through ctx.
func (r *rateLimitedCore) DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", domain.NewEngineError(r.next.Backend(), domain.EngineAborted,
			fmt.Errorf("rate limit wait: %w", err))
	}
	return r.next.DoGenerate(ctx, prompt, grammar, cfg)
}

// Backend returns the backend name from the wrapped implementation.
func (r *rateLimitedCore) Backend() string { return r.next.Backend() }

// Available delegates to the wrapped implementation.
func (r *rateLimitedCore) Available(ctx context.Context) bool { return r.next.Available(ctx) }
