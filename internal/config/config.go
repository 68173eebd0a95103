// Package config loads the process configuration. Values are read once
// at startup from the environment (with an optional YAML file) and are
// immutable afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/lexforge/lexforge/internal/domain"
)

// Shared validator instance to reduce allocations.
var configValidator = validator.New()

// Config is the root process configuration.
type Config struct {
	// BindAddr is the HTTP listen address.
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0:8080" validate:"required,hostname_port"`

	Engine   EngineConfig   `yaml:"engine"`
	Sampling SamplingConfig `yaml:"sampling"`
	Pipeline PipelineConfig `yaml:"pipeline"`

	// GrammarPath optionally overrides the embedded grammar constraint.
	GrammarPath string `yaml:"grammar_path" env:"GRAMMAR_PATH"`
	// ProfilesPath optionally points at a YAML file of named sampling
	// presets selectable per request.
	ProfilesPath string `yaml:"profiles_path" env:"PROFILES_PATH"`
	// LogLevel is the zerolog level name.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=trace debug info warn error"`
}

// EngineConfig selects and tunes the inference backend. The context
// size, batch size, and GPU layer settings describe the model process;
// they are forwarded to a supervised engine process when one is
// launched and are informational otherwise.
type EngineConfig struct {
	// Backend selects the adapter: "llamacpp" or "openai".
	Backend string `yaml:"backend" env:"ENGINE_BACKEND" env-default:"llamacpp" validate:"oneof=llamacpp openai"`
	// BaseURL is the engine server address.
	BaseURL string `yaml:"base_url" env:"ENGINE_BASE_URL" env-default:"http://127.0.0.1:8081" validate:"required,url"`
	// Model names the served model for multiplexing backends.
	Model string `yaml:"model" env:"ENGINE_MODEL"`
	// ModelPath is the model resource on disk, used when this process
	// supervises the engine.
	ModelPath string `yaml:"model_path" env:"MODEL_PATH"`
	// NCtx is the model context size in tokens.
	NCtx int `yaml:"n_ctx" env:"N_CTX" env-default:"4096" validate:"min=256"`
	// NBatch is the prompt processing batch size.
	NBatch int `yaml:"n_batch" env:"N_BATCH" env-default:"256" validate:"min=1"`
	// NGPULayers is the number of layers offloaded to the accelerator.
	NGPULayers int `yaml:"n_gpu_layers" env:"N_GPU_LAYERS" env-default:"28" validate:"min=0"`
	// Timeout bounds one generation call.
	Timeout time.Duration `yaml:"timeout" env:"ENGINE_TIMEOUT" env-default:"120s" validate:"min=1s"`
	// RequestsPerSecond optionally paces engine calls; zero disables
	// the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"ENGINE_RPS" env-default:"0" validate:"min=0"`
}

// SamplingConfig carries the base decoding defaults, mirrored into
// domain.SamplingConfig at startup.
type SamplingConfig struct {
	Temperature   float64 `yaml:"temperature" env:"TEMP" env-default:"0.4" validate:"min=0,max=2"`
	TopP          float64 `yaml:"top_p" env:"TOP_P" env-default:"0.9" validate:"min=0,max=1"`
	MinP          float64 `yaml:"min_p" env:"MIN_P" env-default:"0.05" validate:"min=0,max=1"`
	RepeatPenalty float64 `yaml:"repeat_penalty" env:"REPEAT_PENALTY" env-default:"1.1" validate:"min=0.5,max=2"`
	MaxTokens     int     `yaml:"max_tokens" env:"MAX_TOKENS" env-default:"1024" validate:"min=1"`
}

// PipelineConfig tunes the scheduler and retry policy.
type PipelineConfig struct {
	// Concurrency is the admission pool capacity C, shared across all
	// in-flight requests process-wide.
	Concurrency int `yaml:"concurrency" env:"INFER_CONCURRENCY" env-default:"8" validate:"min=1,max=64"`
	// MaxAttempts is the per-word attempt budget.
	MaxAttempts int `yaml:"max_attempts" env:"MAX_ATTEMPTS" env-default:"2" validate:"min=1,max=10"`
	// MaxBatchSize bounds one batch request.
	MaxBatchSize int `yaml:"max_batch_size" env:"MAX_BATCH_SIZE" env-default:"32" validate:"min=1,max=1024"`
	// RequestTimeout bounds one HTTP request end to end, including
	// admission wait and all attempts.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"120s" validate:"min=1s"`
}

// Domain converts the sampling defaults to the domain type.
func (s SamplingConfig) Domain() domain.SamplingConfig {
	return domain.SamplingConfig{
		Temperature:   s.Temperature,
		TopP:          s.TopP,
		MinP:          s.MinP,
		RepeatPenalty: s.RepeatPenalty,
		MaxTokens:     s.MaxTokens,
	}
}

// Load reads configuration with priority ENV > YAML file > defaults.
// The file path comes from CONFIG_PATH; when unset, config.yaml is
// used if present and skipped otherwise.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration's value bounds.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}
