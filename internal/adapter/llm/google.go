package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"quizbench/internal/config"
	"quizbench/internal/domain"
)

const (
	googleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	googleDefaultMaxOutputTokens = 1024
)

// GoogleAdapter fronts the Gemini generateContent API. Google has no
// system role, so system content is folded into the adjacent user
// message, and the assistant role maps to "model" on the wire.
type GoogleAdapter struct {
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

// NewGoogleAdapter creates an adapter for the Gemini API.
func NewGoogleAdapter(cfg *config.ModelConfig, net config.AdapterConfig) (domain.ChatAdapter, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, domain.NewConfigError(
			fmt.Sprintf("model %s: environment variable %s is not set", cfg.ID, cfg.APIKeyEnv))
	}
	return &GoogleAdapter{
		id:         cfg.ID,
		model:      cfg.Model,
		keyEnv:     cfg.APIKeyEnv,
		apiKey:     apiKey,
		baseURL:    googleBaseURL,
		httpClient: &http.Client{},
		defaults:   cfg.DefaultParams,
		retry:      newRetryPolicy(net.MaxAttempts, 10*time.Second),
		timeout:    net.RequestTimeout,
	}, nil
}

func (g *GoogleAdapter) ID() string {
	return g.id
}

type googlePart struct {
	Text string `json:"text"`
}

type googleContent struct {
	Role  string       `json:"role"`
	Parts []googlePart `json:"parts"`
}

type googleGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	CandidateCount  int      `json:"candidateCount"`
}

type googleRequest struct {
	Contents         []googleContent        `json:"contents"`
	GenerationConfig googleGenerationConfig `json:"generationConfig"`
}

func (g *GoogleAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	merged := mergeParams(g.defaults, params)
	payload := g.buildRequest(messages, merged)

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, g.model, url.QueryEscape(g.apiKey))

	start := time.Now()
	var body []byte
	err := g.retry.execute(ctx, func() error {
		status, data, err := postJSON(ctx, g.httpClient, endpoint, nil, payload, g.timeout)
		if err != nil {
			return newTransportError("google", g.model, err)
		}
		if status < 200 || status >= 300 {
			return newHTTPError("google", g.model, g.keyEnv, status, googleErrorMessage(data), nil)
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp, err := parseGoogleResponse(body)
	if err != nil {
		return nil, &domain.ProviderError{
			Code:     domain.ErrProviderHTTP,
			Provider: "google",
			Model:    g.model,
			Message:  "failed to decode response body",
			Err:      err,
		}
	}
	resp.LatencyMS = time.Since(start).Milliseconds()
	return resp, nil
}

func (g *GoogleAdapter) buildRequest(messages []domain.Message, params map[string]any) googleRequest {
	folded := foldMessages(messages, func(role string) bool {
		return role == domain.RoleUser || role == domain.RoleAssistant
	}, domain.RoleUser)

	req := googleRequest{
		GenerationConfig: googleGenerationConfig{
			MaxOutputTokens: googleDefaultMaxOutputTokens,
			CandidateCount:  1,
		},
	}
	for _, m := range folded {
		role := "user"
		if m.Role == domain.RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, googleContent{
			Role:  role,
			Parts: []googlePart{{Text: m.Content}},
		})
	}

	if v, ok := floatParam(params, "temperature"); ok {
		req.GenerationConfig.Temperature = &v
	}
	if v, ok := intParam(params, "max_tokens"); ok {
		req.GenerationConfig.MaxOutputTokens = v
	}
	return req
}

// parseGoogleResponse is the pure wire-to-ChatResponse mapping for the
// Gemini schema: candidates[0].content.parts[0].text plus
// usageMetadata counters. A candidate without parts yields empty text,
// not an error.
func parseGoogleResponse(data []byte) (*domain.ChatResponse, error) {
	var decoded struct {
		Candidates []struct {
			Content struct {
				Parts []googlePart `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     *int `json:"promptTokenCount"`
			CandidatesTokenCount *int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	var text string
	if len(decoded.Candidates) > 0 && len(decoded.Candidates[0].Content.Parts) > 0 {
		text = decoded.Candidates[0].Content.Parts[0].Text
	}
	return &domain.ChatResponse{
		Text:      text,
		TokensIn:  decoded.UsageMetadata.PromptTokenCount,
		TokensOut: decoded.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func googleErrorMessage(data []byte) string {
	var decoded struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil || decoded.Error.Message == "" {
		return truncateBody(data)
	}
	return decoded.Error.Message
}
