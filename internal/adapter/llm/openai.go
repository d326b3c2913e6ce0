package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"quizbench/internal/config"
	"quizbench/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openAIBaseURL     = "https://api.openai.com/v1"
	grokBaseURL       = "https://api.x.ai/v1"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
)

// openAICompatAdapter fronts any provider speaking the OpenAI chat
// completions dialect. OpenAI, Grok and OpenRouter share the wire
// schema and differ only in base URL, credential and backoff tuning.
type openAICompatAdapter struct {
	id       string
	provider string
	model    string
	keyEnv   string
	client   *openai.Client
	defaults map[string]any
	retry    retryPolicy
	timeout  time.Duration
}

func newOpenAICompat(provider, baseURL string, maxBackoff time.Duration, cfg *config.ModelConfig, net config.AdapterConfig) (*openAICompatAdapter, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, domain.NewConfigError(
			fmt.Sprintf("model %s: environment variable %s is not set", cfg.ID, cfg.APIKeyEnv))
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = baseURL
	return &openAICompatAdapter{
		id:       cfg.ID,
		provider: provider,
		model:    cfg.Model,
		keyEnv:   cfg.APIKeyEnv,
		client:   openai.NewClientWithConfig(clientCfg),
		defaults: cfg.DefaultParams,
		retry:    newRetryPolicy(net.MaxAttempts, maxBackoff),
		timeout:  net.RequestTimeout,
	}, nil
}

// NewOpenAIAdapter creates an adapter for the OpenAI chat API.
func NewOpenAIAdapter(cfg *config.ModelConfig, net config.AdapterConfig) (domain.ChatAdapter, error) {
	return newOpenAICompat("openai", openAIBaseURL, 4*time.Second, cfg, net)
}

// NewGrokAdapter creates an adapter for the xAI chat API.
func NewGrokAdapter(cfg *config.ModelConfig, net config.AdapterConfig) (domain.ChatAdapter, error) {
	return newOpenAICompat("grok", grokBaseURL, 10*time.Second, cfg, net)
}

// NewOpenRouterAdapter creates an adapter for the OpenRouter chat API.
func NewOpenRouterAdapter(cfg *config.ModelConfig, net config.AdapterConfig) (domain.ChatAdapter, error) {
	return newOpenAICompat("openrouter", openRouterBaseURL, 4*time.Second, cfg, net)
}

func (a *openAICompatAdapter) ID() string {
	return a.id
}

func (a *openAICompatAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	req := openai.ChatCompletionRequest{Model: a.model}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	applyChatParams(&req, mergeParams(a.defaults, params))

	start := time.Now()
	var resp openai.ChatCompletionResponse
	err := a.retry.execute(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		r, err := a.client.CreateChatCompletion(callCtx, req)
		if err != nil {
			return a.classify(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	latency := time.Since(start).Milliseconds()
	if len(resp.Choices) == 0 {
		return nil, &domain.ProviderError{
			Code:     domain.ErrProviderHTTP,
			Provider: a.provider,
			Model:    a.model,
			Message:  "response contained no choices",
		}
	}

	tokensIn := resp.Usage.PromptTokens
	tokensOut := resp.Usage.CompletionTokens
	return &domain.ChatResponse{
		Text:      resp.Choices[0].Message.Content,
		TokensIn:  &tokensIn,
		TokensOut: &tokensOut,
		LatencyMS: latency,
	}, nil
}

// classify turns go-openai errors into the domain taxonomy. APIError
// and RequestError both carry the HTTP status; anything else is a
// transport failure.
func (a *openAICompatAdapter) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return newHTTPError(a.provider, a.model, a.keyEnv, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return newHTTPError(a.provider, a.model, a.keyEnv, reqErr.HTTPStatusCode, "", err)
	}
	return newTransportError(a.provider, a.model, err)
}

// applyChatParams maps the merged parameter bag onto the typed request.
// Unknown keys are ignored rather than rejected; providers differ in
// what they accept and the bag is shared across them.
func applyChatParams(req *openai.ChatCompletionRequest, params map[string]any) {
	if v, ok := floatParam(params, "temperature"); ok {
		req.Temperature = float32(v)
	}
	if v, ok := floatParam(params, "top_p"); ok {
		req.TopP = float32(v)
	}
	if v, ok := intParam(params, "max_tokens"); ok {
		req.MaxTokens = v
	}
	if v, ok := floatParam(params, "presence_penalty"); ok {
		req.PresencePenalty = float32(v)
	}
	if v, ok := floatParam(params, "frequency_penalty"); ok {
		req.FrequencyPenalty = float32(v)
	}
	if v, ok := params["stop"].([]string); ok {
		req.Stop = v
	}
}
