// Package pipeline drives words through the generate→validate→retry
// sequence and schedules batches of pipelines under a shared admission
// cap on the inference engine.
package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lexforge/lexforge/internal/domain"
	"github.com/lexforge/lexforge/internal/ports"
	"github.com/lexforge/lexforge/internal/prompt"
)

// state enumerates the attempt controller's states. Transitions are
// explicit so the retry-vs-fail-fast distinction is a transition rule,
// not an incidental catch clause.
type state int

const (
	stateIdle state = iota
	stateBuilding
	stateGenerating
	stateValidating
	stateRetrying
	stateSucceeded
	stateFailed
)

// DefaultMaxAttempts is the default attempt budget per word: one
// generation plus one retry with safer sampling.
const DefaultMaxAttempts = 2

// Controller runs one word through the pipeline. A Controller instance
// owns its attempt history exclusively; it is created per run and must
// not be shared across concurrent pipelines.
type Controller struct {
	engine      ports.InferenceEngine
	validator   ports.ResponseValidator
	builder     *prompt.Builder
	grammar     string
	base        domain.SamplingConfig
	maxAttempts int
	log         zerolog.Logger

	st       state
	word     string
	prompt   string
	cfg      domain.SamplingConfig
	attempts []domain.GenerationAttempt
	outcome  domain.ValidationOutcome

	failCategory string
	failMessage  string
}

// ControllerParams bundles the shared, read-only collaborators a
// controller needs. The zero value is not usable.
type ControllerParams struct {
	Engine      ports.InferenceEngine
	Validator   ports.ResponseValidator
	Builder     *prompt.Builder
	Grammar     string
	Sampling    domain.SamplingConfig
	MaxAttempts int
	Logger      zerolog.Logger
}

// NewController builds a controller for a single pipeline run.
func NewController(p ControllerParams) *Controller {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	builder := p.Builder
	if builder == nil {
		builder = prompt.NewBuilder()
	}
	return &Controller{
		engine:      p.Engine,
		validator:   p.Validator,
		builder:     builder,
		grammar:     p.Grammar,
		base:        p.Sampling,
		maxAttempts: maxAttempts,
		log:         p.Logger,
		st:          stateIdle,
	}
}

// Attempts returns the attempt history of the completed run. The
// returned slice is owned by the controller; callers must not mutate it.
func (c *Controller) Attempts() []domain.GenerationAttempt { return c.attempts }

// Run drives rawWord to a terminal state and returns its result.
// Exactly one WordResult is produced per call. Cancellation of ctx is
// observed at the engine call and aborts the run.
func (c *Controller) Run(ctx context.Context, rawWord string) domain.WordResult {
	c.st = stateBuilding
	for {
		switch c.st {
		case stateBuilding:
			c.stepBuild(rawWord)
		case stateGenerating:
			c.stepGenerate(ctx)
		case stateValidating:
			c.stepValidate()
		case stateRetrying:
			c.stepRetry()
		case stateSucceeded:
			return domain.WordResult{Word: c.word, OK: true, Data: c.outcome.Entry}
		case stateFailed:
			return c.failedResult()
		default:
			return domain.WordResult{
				Word:     c.word,
				Category: domain.CategoryInternalError,
				Error:    "pipeline reached an unknown state",
			}
		}
	}
}

// stepBuild sanitizes the word and composes the prompt. A builder
// rejection fails the run without consuming an attempt.
func (c *Controller) stepBuild(rawWord string) {
	text, word, err := c.builder.Build(rawWord)
	if err != nil {
		c.word = strings.TrimSpace(rawWord)
		c.failInput(err)
		return
	}
	c.word = word
	c.prompt = text
	c.cfg = c.base
	c.st = stateGenerating
}

// stepGenerate submits one engine call with the current sampling
// configuration and appends its attempt record.
func (c *Controller) stepGenerate(ctx context.Context) {
	attempt := domain.GenerationAttempt{Index: len(c.attempts), Config: c.cfg}

	raw, err := c.engine.Generate(ctx, c.prompt, c.grammar, c.cfg)
	if err != nil {
		kind := classifyEngineErr(ctx, err)
		attempt.Failure = kind
		c.attempts = append(c.attempts, attempt)

		switch kind {
		case domain.CategoryEngineTimeout:
			// Content-layer failure: the model ran out of time, not the
			// infrastructure. Retry with safer sampling.
			c.log.Warn().Str("word", c.word).Int("attempt", attempt.Index).Msg("engine call timed out")
			c.retryOrFail(kind, err.Error())
		case domain.CategoryEngineUnavailable:
			c.log.Error().Str("word", c.word).Err(err).Msg("inference engine unavailable")
			c.fail(kind, err.Error())
		default:
			c.log.Warn().Str("word", c.word).Err(err).Msg("pipeline aborted")
			c.fail(kind, err.Error())
		}
		return
	}

	attempt.RawOutput = raw
	c.attempts = append(c.attempts, attempt)
	c.st = stateValidating
}

// stepValidate checks the last attempt's raw output against the
// contract and records the outcome on that attempt.
func (c *Controller) stepValidate() {
	last := &c.attempts[len(c.attempts)-1]
	c.outcome = c.validator.Validate(last.RawOutput, c.word)

	if c.outcome.Valid {
		c.st = stateSucceeded
		return
	}

	last.Violations = c.outcome.Violations
	last.Failure = c.outcome.Category()
	c.log.Debug().
		Str("word", c.word).
		Int("attempt", last.Index).
		Str("category", last.Failure).
		Int("violations", len(c.outcome.Violations)).
		Msg("generated output rejected")
	c.retryOrFail(last.Failure, violationSummary(c.outcome.Violations))
}

// stepRetry derives a safer sampling configuration and loops back to
// generation. The prior attempt's record is never mutated.
func (c *Controller) stepRetry() {
	c.cfg = c.cfg.Relaxed()
	c.st = stateGenerating
}

// retryOrFail transitions to Retrying while budget remains, otherwise
// to Failed with the given category and message.
func (c *Controller) retryOrFail(category, msg string) {
	if len(c.attempts) < c.maxAttempts {
		c.st = stateRetrying
		return
	}
	c.fail(category, msg)
}

func (c *Controller) fail(category, msg string) {
	c.st = stateFailed
	c.failCategory = category
	c.failMessage = msg
}

func (c *Controller) failInput(err error) {
	c.fail(domain.CategoryInputError, err.Error())
}

func (c *Controller) failedResult() domain.WordResult {
	return domain.WordResult{
		Word:     c.word,
		Category: c.failCategory,
		Error:    c.failMessage,
	}
}

// classifyEngineErr maps an engine call error to a failure category.
// Adapters report *domain.EngineError; anything else is classified by
// the context state, with unexplained errors treated as internal.
func classifyEngineErr(ctx context.Context, err error) string {
	if ee, ok := domain.AsEngineError(err); ok {
		switch ee.Kind {
		case domain.EngineTimeout:
			return domain.CategoryEngineTimeout
		case domain.EngineUnavailable:
			return domain.CategoryEngineUnavailable
		case domain.EngineAborted:
			return domain.CategoryInternalError
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.CategoryEngineTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return domain.CategoryInternalError
	}
	return domain.CategoryInternalError
}

// violationSummary flattens the last attempt's violations into the
// user-visible error message. Earlier attempts stay in the history for
// diagnostics but are not surfaced.
func violationSummary(vs []domain.Violation) string {
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		if v.Path != "" {
			parts = append(parts, v.Path+": "+v.Message)
			continue
		}
		parts = append(parts, v.Message)
	}
	return strings.Join(parts, "; ")
}
