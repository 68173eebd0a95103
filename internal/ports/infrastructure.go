// Package ports defines the contracts between the word pipeline and
// the infrastructure it consumes. Implementations live under
// infrastructure/ and internal/testutils.
package ports

import (
	"context"

	"github.com/lexforge/lexforge/internal/domain"
)

// InferenceEngine is the consumed contract of the text-generation
// engine. The engine guarantees that every emitted token sequence is a
// member of the language defined by the grammar constraint; it does not
// guarantee semantic correctness of the content.
type InferenceEngine interface {
	// Generate produces raw text for the prompt under the structural
	// grammar constraint and the given sampling parameters. It blocks
	// until the engine finishes, fails, or ctx is cancelled; on
	// cancellation it releases engine-internal resources before
	// returning. Failures are reported as *domain.EngineError.
	Generate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error)

	// Available reports whether the engine can currently serve calls.
	// Used by health reporting only, never for admission decisions.
	Available(ctx context.Context) bool
}

// ResponseValidator checks a generation attempt's raw output against
// the schema contract and the semantic invariants beyond it.
// Implementations must be pure: same raw text, same outcome, no side
// effects, no internal retries.
type ResponseValidator interface {
	Validate(rawText, word string) domain.ValidationOutcome
}
