package engine_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexforge/lexforge/infrastructure/engine"
	"github.com/lexforge/lexforge/internal/domain"
)

func sampling() domain.SamplingConfig {
	return domain.SamplingConfig{Temperature: 0.4, TopP: 0.9, MinP: 0.05, RepeatPenalty: 1.1, MaxTokens: 1024}
}

func TestLlamaCppSendsGrammarAndSampling(t *testing.T) {
	var (
		mu      sync.Mutex
		payload map[string]any
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/completion", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		mu.Lock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		mu.Unlock()

		_ = json.NewEncoder(w).Encode(map[string]any{"content": `{"word":"run"}`})
	}))
	defer ts.Close()

	eng, err := engine.New(engine.BackendLlamaCpp, engine.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	out, err := eng.Generate(context.Background(), "prompt text", "root ::= value", sampling())
	require.NoError(t, err)
	assert.Equal(t, `{"word":"run"}`, out)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "prompt text", payload["prompt"])
	assert.Equal(t, "root ::= value", payload["grammar"], "grammar must reach the server verbatim")
	assert.InDelta(t, 0.4, payload["temperature"], 1e-9)
	assert.InDelta(t, 0.9, payload["top_p"], 1e-9)
	assert.InDelta(t, 0.05, payload["min_p"], 1e-9)
	assert.InDelta(t, 1.1, payload["repeat_penalty"], 1e-9)
	assert.InDelta(t, 1024, payload["n_predict"], 1e-9)
	assert.Equal(t, false, payload["stream"])
}

func TestLlamaCppMapsServerErrorToUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model loading", http.StatusInternalServerError)
	}))
	defer ts.Close()

	eng, err := engine.New(engine.BackendLlamaCpp, engine.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = eng.Generate(context.Background(), "prompt", "", sampling())
	require.Error(t, err)

	engErr, ok := domain.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, domain.EngineUnavailable, engErr.Kind)
	assert.Equal(t, engine.BackendLlamaCpp, engErr.Backend)
}

func TestLlamaCppMapsDeadlineToTimeout(t *testing.T) {
	started := make(chan struct{})
	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-done
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "late"})
	}))
	defer ts.Close()
	defer close(done)

	eng, err := engine.New(engine.BackendLlamaCpp, engine.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = eng.Generate(ctx, "prompt", "", sampling())
	require.Error(t, err)
	<-started

	engErr, ok := domain.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, domain.EngineTimeout, engErr.Kind)
}

func TestLlamaCppMapsCancelToAborted(t *testing.T) {
	started := make(chan struct{})
	done := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		close(started)
		<-done
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "late"})
	}))
	defer ts.Close()
	defer close(done)

	eng, err := engine.New(engine.BackendLlamaCpp, engine.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err = eng.Generate(ctx, "prompt", "", sampling())
	require.Error(t, err)

	engErr, ok := domain.AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, domain.EngineAborted, engErr.Kind)
}

func TestLlamaCppAvailable(t *testing.T) {
	healthy := true
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	eng, err := engine.New(engine.BackendLlamaCpp, engine.Config{BaseURL: ts.URL})
	require.NoError(t, err)

	assert.True(t, eng.Available(context.Background()))
	healthy = false
	assert.False(t, eng.Available(context.Background()))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := engine.New("imaginary", engine.Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown engine backend")
}

func TestMiddlewareOrderFirstEntryOutermost(t *testing.T) {
	var order []string
	tag := func(name string) engine.Middleware {
		return func(next engine.Core) engine.Core {
			return tagged{name: name, next: next, order: &order}
		}
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"content": "ok"})
	}))
	defer ts.Close()

	eng, err := engine.New(engine.BackendLlamaCpp, engine.Config{
		BaseURL:    ts.URL,
		Middleware: []engine.Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	_, err = eng.Generate(context.Background(), "prompt", "", sampling())
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type tagged struct {
	name  string
	next  engine.Core
	order *[]string
}

func (t tagged) DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	*t.order = append(*t.order, t.name)
	return t.next.DoGenerate(ctx, prompt, grammar, cfg)
}

func (t tagged) Backend() string                    { return t.next.Backend() }
func (t tagged) Available(ctx context.Context) bool { return t.next.Available(ctx) }
