package llm

import (
	"context"
	"time"

	"quizbench/internal/domain"
)

// MockAdapter satisfies the ChatAdapter contract without network I/O.
// It exists so the engine runs the identical code path in tests and
// demos as in production.
type MockAdapter struct {
	id string
}

// NewMockAdapter creates a mock adapter with the given identity.
func NewMockAdapter(id string) *MockAdapter {
	if id == "" {
		id = "mock"
	}
	return &MockAdapter{id: id}
}

func (m *MockAdapter) ID() string {
	return m.id
}

func (m *MockAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	start := time.Now()
	zero := 0
	return &domain.ChatResponse{
		Text:      `{"choice":"C","reason":"Mock response."}`,
		TokensIn:  &zero,
		TokensOut: &zero,
		LatencyMS: time.Since(start).Milliseconds(),
	}, nil
}
