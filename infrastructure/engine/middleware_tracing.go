package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lexforge/lexforge/internal/domain"
)

// tracedCore wraps engine calls in OpenTelemetry spans.
type tracedCore struct {
	next   Core
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that records a span per
// generation call with sampling attributes and failure status.
func TracingMiddleware(serviceName string) Middleware {
	tracer := otel.Tracer(serviceName)
	return func(next Core) Core {
		return &tracedCore{next: next, tracer: tracer}
	}
}

// DoGenerate executes the call inside a span.
func (t *tracedCore) DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	ctx, span := t.tracer.Start(ctx, "engine.generate",
		trace.WithAttributes(
			attribute.String("engine.backend", t.next.Backend()),
			attribute.Int("engine.prompt_length", len(prompt)),
			attribute.Bool("engine.grammar_constrained", grammar != ""),
			attribute.Float64("engine.temperature", cfg.Temperature),
			attribute.Float64("engine.top_p", cfg.TopP),
			attribute.Int("engine.max_tokens", cfg.MaxTokens),
		),
	)
	defer span.End()

	raw, err := t.next.DoGenerate(ctx, prompt, grammar, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ee, ok := domain.AsEngineError(err); ok {
			span.SetAttributes(attribute.String("engine.failure_kind", ee.Kind.String()))
		}
		return "", err
	}

	span.SetAttributes(attribute.Int("engine.output_length", len(raw)))
	return raw, nil
}

// Backend returns the backend name from the wrapped implementation.
func (t *tracedCore) Backend() string { return t.next.Backend() }

// Available delegates to the wrapped implementation.
func (t *tracedCore) Available(ctx context.Context) bool { return t.next.Available(ctx) }
