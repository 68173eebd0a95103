package pipeline

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lexforge/lexforge/internal/domain"
	"github.com/lexforge/lexforge/internal/ports"
	"github.com/lexforge/lexforge/internal/prompt"
)

// Defaults for the scheduler's resource limits.
const (
	// DefaultConcurrency is the default admission pool capacity. The
	// engine is a scarce shared resource; the cap applies process-wide,
	// across single-word and batch requests alike.
	DefaultConcurrency = 8
	// DefaultMaxBatchSize bounds how many words one batch may carry.
	DefaultMaxBatchSize = 32
)

// Config tunes a Service.
type Config struct {
	// Concurrency is the admission pool capacity C. When the underlying
	// engine supports only N simultaneous execution contexts, C must be
	// configured to N at deployment time; the scheduler does not probe.
	Concurrency int `validate:"min=1,max=64"`
	// MaxAttempts is the per-word attempt budget.
	MaxAttempts int `validate:"min=1,max=10"`
	// MaxBatchSize is the largest accepted batch.
	MaxBatchSize int `validate:"min=1,max=1024"`
}

// Service owns the process-wide admission pool and runs word pipelines
// under it. One Service instance serves all HTTP requests.
type Service struct {
	engine    ports.InferenceEngine
	validator ports.ResponseValidator
	builder   *prompt.Builder
	grammar   string
	sampling  domain.SamplingConfig
	cfg       Config
	admission *semaphore.Weighted
	log       zerolog.Logger
}

// NewService wires a Service around the shared engine, validator, and
// generation assets.
func NewService(
	engine ports.InferenceEngine,
	validator ports.ResponseValidator,
	grammar string,
	sampling domain.SamplingConfig,
	cfg Config,
	log zerolog.Logger,
) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	return &Service{
		engine:    engine,
		validator: validator,
		builder:   prompt.NewBuilder(),
		grammar:   grammar,
		sampling:  sampling,
		cfg:       cfg,
		admission: semaphore.NewWeighted(int64(cfg.Concurrency)),
		log:       log,
	}
}

// RunWord drives a single word to its terminal state under one
// admission slot. The slot is released on every exit path; cancellation
// observed while waiting for admission aborts before a slot is held.
func (s *Service) RunWord(ctx context.Context, word string, sampling domain.SamplingConfig) domain.WordResult {
	if err := s.admission.Acquire(ctx, 1); err != nil {
		return domain.WordResult{
			Word:     word,
			Category: categoryForWait(ctx),
			Error:    "request ended while waiting for an inference slot",
		}
	}
	defer s.admission.Release(1)

	ctrl := NewController(ControllerParams{
		Engine:      s.engine,
		Validator:   s.validator,
		Builder:     s.builder,
		Grammar:     s.grammar,
		Sampling:    sampling,
		MaxAttempts: s.cfg.MaxAttempts,
		Logger:      s.log,
	})
	return ctrl.Run(ctx, word)
}

// RunWordDefault runs a word with the service's base sampling defaults.
func (s *Service) RunWordDefault(ctx context.Context, word string) domain.WordResult {
	return s.RunWord(ctx, word, s.sampling)
}

// RunBatch runs every word through its own pipeline concurrently,
// bounded by the shared admission pool, and returns results in input
// order regardless of completion order. A failing pipeline never
// cancels or blocks its siblings. Oversized or empty batches are
// rejected before any engine call.
func (s *Service) RunBatch(ctx context.Context, words []string) (domain.BatchResult, error) {
	if len(words) == 0 {
		return domain.BatchResult{}, domain.NewInputError("words", domain.ErrBatchEmpty)
	}
	if len(words) > s.cfg.MaxBatchSize {
		return domain.BatchResult{}, domain.NewInputError("words", domain.ErrBatchTooLarge)
	}

	results := make([]domain.WordResult, len(words))
	g, ctx := errgroup.WithContext(ctx)
	for i, word := range words {
		i, word := i, word
		g.Go(func() error {
			// Results are recorded by input index; per-word failures
			// land in the result, never in the group error.
			results[i] = s.RunWord(ctx, word, s.sampling)
			return nil
		})
	}
	// Always nil: fault isolation keeps sibling pipelines alive.
	_ = g.Wait()

	return domain.BatchResult{Results: results}, nil
}

// Concurrency reports the configured admission capacity.
func (s *Service) Concurrency() int { return s.cfg.Concurrency }

// categoryForWait classifies a failed admission wait.
func categoryForWait(ctx context.Context) string {
	if ctx.Err() == context.DeadlineExceeded {
		return domain.CategoryEngineTimeout
	}
	return domain.CategoryInternalError
}
