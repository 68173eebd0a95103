package engine

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/lexforge/lexforge/internal/domain"
)

// BackendOpenAI is the registered name of the OpenAI-compatible
// adapter. Local servers such as llama.cpp and vLLM expose this
// surface; it cannot carry a raw grammar constraint, so structural
// conformance is requested via JSON mode and the validator remains the
// authority on the contract.
const BackendOpenAI = "openai"

const defaultOpenAIModel = "local"

func init() {
	RegisterFactory(BackendOpenAI, newOpenAICompat)
}

type openAICompat struct {
	client *openai.Client
	model  string
}

func newOpenAICompat(cfg Config) (Core, error) {
	// Local OpenAI-compatible servers ignore the key but the client
	// requires one.
	cc := openai.DefaultConfig("local")
	if cfg.BaseURL != "" {
		cc.BaseURL = cfg.BaseURL + "/v1"
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAICompat{
		client: openai.NewClientWithConfig(cc),
		model:  model,
	}, nil
}

// Backend returns the adapter name.
func (o *openAICompat) Backend() string { return BackendOpenAI }

// DoGenerate implements Core over the chat completion API. The grammar
// parameter is not transmissible on this surface and is ignored.
func (o *openAICompat) DoGenerate(ctx context.Context, prompt, _ string, cfg domain.SamplingConfig) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: float32(cfg.Temperature),
		TopP:        float32(cfg.TopP),
		MaxTokens:   cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", domain.NewEngineError(BackendOpenAI, classifyOpenAIErr(ctx, err), err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.NewEngineError(BackendOpenAI, domain.EngineUnavailable,
			errors.New("no completion choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Available probes the models endpoint.
func (o *openAICompat) Available(ctx context.Context) bool {
	_, err := o.client.ListModels(ctx)
	return err == nil
}

func classifyOpenAIErr(ctx context.Context, err error) domain.EngineFailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.EngineTimeout
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return domain.EngineAborted
	default:
		return domain.EngineUnavailable
	}
}
