// Package engine provides adapters for grammar-constrained text
// generation backends behind a single interface, with cross-cutting
// concerns (metrics, rate limiting, timeouts, tracing) composed through
// a middleware chain.
//
// Two backends are supported: the native llama.cpp server API, which
// accepts a raw GBNF grammar constraint, and the OpenAI-compatible API
// that local servers (llama.cpp, vLLM) also expose, which falls back to
// JSON-mode structured output.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lexforge/lexforge/internal/domain"
	"github.com/lexforge/lexforge/internal/ports"
)

// Core is the minimal surface a generation backend must implement.
// Middleware wraps any conforming implementation.
type Core interface {
	// DoGenerate produces raw text for the prompt under the grammar
	// constraint and sampling parameters. Failures are reported as
	// *domain.EngineError.
	DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error)

	// Backend returns the adapter's registered name.
	Backend() string

	// Available reports whether the backend can currently serve calls.
	Available(ctx context.Context) bool
}

// Middleware wraps a Core to add cross-cutting behavior without
// touching backend logic.
type Middleware func(Core) Core

// Config holds the settings shared by all backend adapters.
type Config struct {
	// BaseURL is the backend server address.
	BaseURL string
	// Model names the model for backends that multiplex several.
	Model string
	// Timeout bounds one generation call end to end. Zero disables the
	// adapter-level bound; callers may still carry their own deadline.
	Timeout time.Duration
	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// Factory builds a backend Core from configuration.
type Factory func(Config) (Core, error)

var factories = map[string]Factory{}

// RegisterFactory registers a backend under a name. Called from
// adapter init functions.
func RegisterFactory(name string, f Factory) { factories[name] = f }

// Engine implements ports.InferenceEngine over a middleware-wrapped
// backend Core.
type Engine struct {
	core Core
}

var _ ports.InferenceEngine = (*Engine)(nil)

// New builds an Engine for the named backend, assembling the
// middleware chain in reverse so the first middleware is outermost.
func New(backend string, cfg Config) (*Engine, error) {
	factory, ok := factories[backend]
	if !ok {
		return nil, fmt.Errorf("unknown engine backend: %s", backend)
	}

	core, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backend, err)
	}

	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		core = cfg.Middleware[i](core)
	}

	return &Engine{core: core}, nil
}

// Generate implements ports.InferenceEngine.
func (e *Engine) Generate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	return e.core.DoGenerate(ctx, prompt, grammar, cfg)
}

// Available implements ports.InferenceEngine.
func (e *Engine) Available(ctx context.Context) bool {
	return e.core.Available(ctx)
}
