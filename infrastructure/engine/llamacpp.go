package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexforge/lexforge/internal/domain"
)

// BackendLlamaCpp is the registered name of the native llama.cpp
// server adapter. It is the only backend that transmits the grammar
// constraint verbatim.
const BackendLlamaCpp = "llamacpp"

const (
	defaultLlamaURL     = "http://127.0.0.1:8081"
	defaultLlamaTimeout = 120 * time.Second
)

func init() {
	RegisterFactory(BackendLlamaCpp, newLlamaCpp)
}

// llamaCpp talks to a llama.cpp server's native /completion endpoint.
type llamaCpp struct {
	baseURL string
	client  *http.Client
}

func newLlamaCpp(cfg Config) (Core, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultLlamaURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultLlamaTimeout
	}
	return &llamaCpp{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// completionRequest is the native llama.cpp completion payload.
type completionRequest struct {
	Prompt        string  `json:"prompt"`
	Grammar       string  `json:"grammar,omitempty"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	MinP          float64 `json:"min_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	NPredict      int     `json:"n_predict"`
	CachePrompt   bool    `json:"cache_prompt"`
	Stream        bool    `json:"stream"`
}

// completionResponse is the subset of the server's reply we consume.
type completionResponse struct {
	Content         string `json:"content"`
	StoppedLimit    bool   `json:"stopped_limit"`
	TokensPredicted int    `json:"tokens_predicted"`
}

// Backend returns the adapter name.
func (l *llamaCpp) Backend() string { return BackendLlamaCpp }

// DoGenerate implements Core against the native completion endpoint.
func (l *llamaCpp) DoGenerate(ctx context.Context, prompt, grammar string, cfg domain.SamplingConfig) (string, error) {
	body, err := json.Marshal(completionRequest{
		Prompt:        prompt,
		Grammar:       grammar,
		Temperature:   cfg.Temperature,
		TopP:          cfg.TopP,
		MinP:          cfg.MinP,
		RepeatPenalty: cfg.RepeatPenalty,
		NPredict:      cfg.MaxTokens,
		CachePrompt:   true,
	})
	if err != nil {
		return "", domain.NewEngineError(BackendLlamaCpp, domain.EngineUnavailable, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", domain.NewEngineError(BackendLlamaCpp, domain.EngineUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", domain.NewEngineError(BackendLlamaCpp, classifyTransportErr(ctx, err), err)
	}
	defer resp.Body.Close() //nolint:errcheck // close error after full read is not actionable

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.NewEngineError(BackendLlamaCpp, domain.EngineUnavailable,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody)))
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", domain.NewEngineError(BackendLlamaCpp, domain.EngineUnavailable, fmt.Errorf("decode response: %w", err))
	}

	return out.Content, nil
}

// Available probes the server's health endpoint.
func (l *llamaCpp) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/health", http.NoBody)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// classifyTransportErr maps an HTTP transport error to an engine
// failure kind: the caller's deadline means timeout, the caller's
// cancellation means aborted, anything else means the engine is down.
func classifyTransportErr(ctx context.Context, err error) domain.EngineFailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.EngineTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return domain.EngineAborted
	default:
		return domain.EngineUnavailable
	}
}
