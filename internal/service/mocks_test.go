package service

import (
	"context"

	"quizbench/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockRunRepository ---
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) CreateRun(ctx context.Context, run *domain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error {
	args := m.Called(ctx, runID, status)
	return args.Error(0)
}

func (m *MockRunRepository) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunRepository) MarkStaleRunsFailed(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// --- MockQuizRepository ---
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) UpsertQuiz(ctx context.Context, quiz *domain.QuizDefinition, rawYAML string) error {
	args := m.Called(ctx, quiz, rawYAML)
	return args.Error(0)
}

func (m *MockQuizRepository) GetQuizYAML(ctx context.Context, quizID string) (string, error) {
	args := m.Called(ctx, quizID)
	return args.String(0), args.Error(1)
}

func (m *MockQuizRepository) ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizInfo), args.Error(1)
}

// --- MockResultRepository ---
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) SaveBatch(ctx context.Context, records []*domain.ResultRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockResultRepository) GetByRunID(ctx context.Context, runID string) ([]*domain.ResultRecord, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ResultRecord), args.Error(1)
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// scriptedAdapter returns canned replies in order, then repeats the
// last one.
type scriptedAdapter struct {
	id      string
	replies []string
	calls   int
}

func (a *scriptedAdapter) ID() string { return a.id }

func (a *scriptedAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	idx := a.calls
	if idx >= len(a.replies) {
		idx = len(a.replies) - 1
	}
	a.calls++
	return &domain.ChatResponse{Text: a.replies[idx], LatencyMS: 5}, nil
}

// failingAdapter fails every call with the configured error.
type failingAdapter struct {
	id  string
	err error
}

func (a *failingAdapter) ID() string { return a.id }

func (a *failingAdapter) Send(ctx context.Context, messages []domain.Message, params map[string]any) (*domain.ChatResponse, error) {
	return nil, a.err
}
