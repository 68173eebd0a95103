// Command lexforge serves structured linguistic descriptions of words,
// generated by a grammar-constrained local inference engine and
// validated against a fixed schema contract.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lexforge/lexforge/infrastructure/engine"
	"github.com/lexforge/lexforge/internal/config"
	"github.com/lexforge/lexforge/internal/contract"
	"github.com/lexforge/lexforge/internal/pipeline"
	"github.com/lexforge/lexforge/internal/server"
	"github.com/lexforge/lexforge/internal/validate"
)

func main() {
	// A missing .env is fine; the environment itself still applies.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "lexforge").Logger()

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("service failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	validator, err := validate.NewValidator()
	if err != nil {
		return err
	}

	grammar := contract.GrammarGBNF
	if cfg.GrammarPath != "" {
		buf, err := os.ReadFile(cfg.GrammarPath)
		if err != nil {
			return err
		}
		grammar = string(buf)
	}

	baseSampling := cfg.Sampling.Domain()
	profiles, err := config.LoadProfiles(cfg.ProfilesPath, baseSampling)
	if err != nil {
		return err
	}

	middleware := []engine.Middleware{
		engine.TracingMiddleware("lexforge"),
		engine.MetricsMiddleware(engine.NewMetrics(nil)),
	}
	if cfg.Engine.RequestsPerSecond > 0 {
		middleware = append(middleware,
			engine.RateLimitMiddleware(rate.Limit(cfg.Engine.RequestsPerSecond), 1))
	}
	middleware = append(middleware, engine.TimeoutMiddleware(cfg.Engine.Timeout))

	eng, err := engine.New(cfg.Engine.Backend, engine.Config{
		BaseURL:    cfg.Engine.BaseURL,
		Model:      cfg.Engine.Model,
		Timeout:    cfg.Engine.Timeout,
		Middleware: middleware,
	})
	if err != nil {
		return err
	}

	svc := pipeline.NewService(eng, validator, grammar, baseSampling, pipeline.Config{
		Concurrency:  cfg.Pipeline.Concurrency,
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
		MaxBatchSize: cfg.Pipeline.MaxBatchSize,
	}, log)

	srv := server.New(svc, eng, profiles, baseSampling, cfg.Pipeline.RequestTimeout, log)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.BindAddr).
			Str("backend", cfg.Engine.Backend).
			Int("concurrency", cfg.Pipeline.Concurrency).
			Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
