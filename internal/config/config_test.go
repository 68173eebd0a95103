package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	assert.Equal(t, "llamacpp", cfg.Engine.Backend)
	assert.Equal(t, "http://127.0.0.1:8081", cfg.Engine.BaseURL)
	assert.Equal(t, 4096, cfg.Engine.NCtx)
	assert.Equal(t, 256, cfg.Engine.NBatch)
	assert.Equal(t, 28, cfg.Engine.NGPULayers)
	assert.Equal(t, 120*time.Second, cfg.Engine.Timeout)

	assert.InDelta(t, 0.4, cfg.Sampling.Temperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.Sampling.TopP, 1e-9)
	assert.InDelta(t, 0.05, cfg.Sampling.MinP, 1e-9)
	assert.InDelta(t, 1.1, cfg.Sampling.RepeatPenalty, 1e-9)
	assert.Equal(t, 1024, cfg.Sampling.MaxTokens)

	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, 2, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, 32, cfg.Pipeline.MaxBatchSize)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"bind_addr: \"127.0.0.1:9000\"\npipeline:\n  concurrency: 4\n"), 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("INFER_CONCURRENCY", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.BindAddr, "file value applies")
	assert.Equal(t, 16, cfg.Pipeline.Concurrency, "environment wins over file")
}

func TestLoadRejectsMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsOutOfBoundsValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "zero concurrency", key: "INFER_CONCURRENCY", value: "0"},
		{name: "excessive concurrency", key: "INFER_CONCURRENCY", value: "200"},
		{name: "unknown backend", key: "ENGINE_BACKEND", value: "mystery"},
		{name: "temperature above range", key: "TEMP", value: "3.5"},
		{name: "unknown log level", key: "LOG_LEVEL", value: "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdirTemp(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSamplingDomainConversion(t *testing.T) {
	s := SamplingConfig{Temperature: 0.4, TopP: 0.9, MinP: 0.05, RepeatPenalty: 1.1, MaxTokens: 1024}
	d := s.Domain()

	assert.InDelta(t, s.Temperature, d.Temperature, 1e-9)
	assert.InDelta(t, s.TopP, d.TopP, 1e-9)
	assert.InDelta(t, s.MinP, d.MinP, 1e-9)
	assert.InDelta(t, s.RepeatPenalty, d.RepeatPenalty, 1e-9)
	assert.Equal(t, s.MaxTokens, d.MaxTokens)
}
