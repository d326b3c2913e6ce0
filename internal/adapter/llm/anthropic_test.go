package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"quizbench/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnthropicAdapter(srv *httptest.Server) *AnthropicAdapter {
	return &AnthropicAdapter{
		id:         "claude",
		model:      "claude-sonnet-4",
		keyEnv:     "ANTHROPIC_API_KEY",
		apiKey:     "test-key",
		baseURL:    srv.URL,
		httpClient: srv.Client(),
		retry:      retryPolicy{maxAttempts: 3, baseDelay: time.Millisecond, maxDelay: 4 * time.Millisecond},
		timeout:    time.Second,
	}
}

func TestAnthropicSend(t *testing.T) {
	var gotReq anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "{\"choice\":\"A\",\"reason\":\"Coffee.\"}"}],
			"usage": {"input_tokens": 42, "output_tokens": 12}
		}`))
	}))
	defer srv.Close()

	adapter := newTestAnthropicAdapter(srv)
	resp, err := adapter.Send(context.Background(), []domain.Message{
		{Role: domain.RoleSystem, Content: "Answer honestly."},
		{Role: domain.RoleUser, Content: "Pick one."},
	}, map[string]any{"temperature": 0.3})

	require.NoError(t, err)
	assert.Contains(t, resp.Text, `"choice":"A"`)
	require.NotNil(t, resp.TokensIn)
	assert.Equal(t, 42, *resp.TokensIn)
	require.NotNil(t, resp.TokensOut)
	assert.Equal(t, 12, *resp.TokensOut)
	assert.GreaterOrEqual(t, resp.LatencyMS, int64(0))

	// System content rides the top-level field, never the message list.
	assert.Equal(t, "Answer honestly.", gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, domain.RoleUser, gotReq.Messages[0].Role)
	require.NotNil(t, gotReq.Temperature)
	assert.Equal(t, 0.3, *gotReq.Temperature)
	assert.Equal(t, anthropicDefaultMaxTokens, gotReq.MaxTokens)
}

func TestAnthropicSend_AuthFailureNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer srv.Close()

	adapter := newTestAnthropicAdapter(srv)
	_, err := adapter.Send(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Hi"}}, nil)

	require.Error(t, err)
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.ErrProviderAuth, perr.Code)
	assert.Equal(t, 401, perr.Status)
	assert.Equal(t, "invalid x-api-key", perr.Message)
	assert.Contains(t, perr.Hint, "ANTHROPIC_API_KEY")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnthropicSend_RateLimitRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "slow down"}}`))
			return
		}
		w.Write([]byte(`{"content": [{"type": "text", "text": "ok"}], "usage": {}}`))
	}))
	defer srv.Close()

	adapter := newTestAnthropicAdapter(srv)
	resp, err := adapter.Send(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Hi"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnthropicSend_ServerErrorExhaustsBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`overloaded`))
	}))
	defer srv.Close()

	adapter := newTestAnthropicAdapter(srv)
	_, err := adapter.Send(context.Background(), []domain.Message{{Role: domain.RoleUser, Content: "Hi"}}, nil)

	require.Error(t, err)
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, domain.ErrProviderHTTP, perr.Code)
	assert.Equal(t, 503, perr.Status)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestParseAnthropicResponse(t *testing.T) {
	resp, err := parseAnthropicResponse([]byte(`{
		"content": [
			{"type": "thinking", "text": "hmm"},
			{"type": "text", "text": "the answer"}
		],
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`))

	require.NoError(t, err)
	assert.Equal(t, "the answer", resp.Text)
	assert.Equal(t, 10, *resp.TokensIn)
	assert.Equal(t, 5, *resp.TokensOut)
}

func TestParseAnthropicResponse_NoUsage(t *testing.T) {
	resp, err := parseAnthropicResponse([]byte(`{"content": [{"type": "text", "text": "x"}]}`))

	require.NoError(t, err)
	assert.Equal(t, "x", resp.Text)
	assert.Nil(t, resp.TokensIn)
	assert.Nil(t, resp.TokensOut)
}

func TestAnthropicErrorMessage_UnparseableBody(t *testing.T) {
	msg := anthropicErrorMessage([]byte("<html>gateway timeout</html>"))
	assert.Equal(t, "<html>gateway timeout</html>", msg)
}

func TestTruncateBody(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateBody(long)
	assert.Len(t, got, 203)
	assert.Contains(t, got, "...")
}
