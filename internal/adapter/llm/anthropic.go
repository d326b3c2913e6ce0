package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"quizbench/internal/config"
	"quizbench/internal/domain"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	// Anthropic requires max_tokens on every request.
	anthropicDefaultMaxTokens = 1024
)

// AnthropicAdapter fronts the Anthropic messages API. The wire schema
// differs enough from the OpenAI dialect (system prompt as a top-level
// field, content blocks, bespoke usage keys) that it gets its own
// client rather than a go-openai configuration.
type AnthropicAdapter struct {
	id         string
	model      string
	keyEnv     string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	defaults   map[string]any
	retry      retryPolicy
	timeout    time.Duration
}

// NewAnthropicAdapter creates an adapter for the Anthropic messages API.
func NewAnthropicAdapter(cfg *config.ModelConfig, net config.AdapterConfig) (domain.ChatAdapter, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, domain.NewConfigError(
			fmt.Sprintf("model %s: environment variable %s is not set", cfg.ID, cfg.APIKeyEnv))
	}
	return &AnthropicAdapter{
		id:         cfg.ID,
		model:      cfg.Model,
		keyEnv:     cfg.APIKeyEnv,
		apiKey:     apiKey,
		baseURL:    anthropicBaseURL,
		httpClient: &http.Client{},
		defaults:   cfg.DefaultParams,
		retry:      newRetryPolicy(net.MaxAttempts, 4*time.Second),
		timeout:    net.RequestTimeout,
	}, nil
}

func (a *AnthropicAdapter) ID() string {
	return a.id
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
	TopP        *float64           `json:"top_p,omitempty"`
}

func (a *AnthropicAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	merged := mergeParams(a.defaults, params)
	payload := a.buildRequest(messages, merged)

	headers := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}

	start := time.Now()
	var body []byte
	err := a.retry.execute(ctx, func() error {
		status, data, err := postJSON(ctx, a.httpClient, a.baseURL+"/messages", headers, payload, a.timeout)
		if err != nil {
			return newTransportError("anthropic", a.model, err)
		}
		if status < 200 || status >= 300 {
			return newHTTPError("anthropic", a.model, a.keyEnv, status, anthropicErrorMessage(data), nil)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := parseAnthropicResponse(body)
	if err != nil {
		return nil, &domain.ProviderError{
			Code:     domain.ErrProviderHTTP,
			Provider: "anthropic",
			Model:    a.model,
			Message:  "failed to decode response body",
			Err:      err,
		}
	}
	resp.LatencyMS = time.Since(start).Milliseconds()
	return resp, nil
}

func (a *AnthropicAdapter) buildRequest(messages []domain.Message, params map[string]any) anthropicRequest {
	req := anthropicRequest{
		Model:     a.model,
		MaxTokens: anthropicDefaultMaxTokens,
	}

	// The messages API takes the system prompt as a top-level field.
	var system []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")

	if v, ok := intParam(params, "max_tokens"); ok {
		req.MaxTokens = v
	}
	if v, ok := floatParam(params, "temperature"); ok {
		req.Temperature = &v
	}
	if v, ok := floatParam(params, "top_p"); ok {
		req.TopP = &v
	}
	return req
}

// parseAnthropicResponse is the pure wire-to-ChatResponse mapping for
// Anthropic's schema: text lives in content blocks, usage under
// input_tokens/output_tokens.
func parseAnthropicResponse(data []byte) (*domain.ChatResponse, error) {
	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  *int `json:"input_tokens"`
			OutputTokens *int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	var text string
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	return &domain.ChatResponse{
		Text:      text,
		TokensIn:  decoded.Usage.InputTokens,
		TokensOut: decoded.Usage.OutputTokens,
	}, nil
}

func anthropicErrorMessage(data []byte) string {
	var decoded struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.Error.Message == "" {
		return truncateBody(data)
	}
	return decoded.Error.Message
}

// truncateBody keeps unparseable error bodies short enough for a
// one-line root cause.
func truncateBody(data []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(data))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
