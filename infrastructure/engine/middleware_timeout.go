package engine

import (
	"context"
	"time"

	"github.com/lexforge/lexforge/internal/domain"
)

// timeoutCore bounds a single generation call independently of the
// caller's request deadline.
type timeoutCore struct {
	next    Core
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces a per-call
// timeout so one stuck generation cannot hold its admission slot
// indefinitely.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Core) Core {
		return &timeoutCore{next: next, timeout: timeout}
	}
}

// DoGenerate executes the call under a derived deadline.
func (t *timeoutCore) DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoGenerate(ctx, prompt, grammar, cfg)
}

// Backend returns the backend name from the wrapped implementation.
func (t *timeoutCore) Backend() string { return t.next.Backend() }

// Available delegates to the wrapped implementation.
func (t *timeoutCore) Available(ctx context.Context) bool { return t.next.Available(ctx) }
