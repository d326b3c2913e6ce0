package service

import (
	"context"
	"testing"
	"time"

	"quizbench/internal/adapter/llm"
	"quizbench/internal/config"
	"quizbench/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testQuizYAML = `
id: drink-quiz
title: "Which Drink Are You?"
source:
  publication: "Example Press"
  url: "https://example.com/quiz"
questions:
  - id: q1
    text: "Pick a morning ritual:"
    options:
      - id: coffee
        text: "Coffee"
        tags: [energetic]
      - id: tea
        text: "Tea"
        tags: [calm]
  - id: q2
    text: "Pick an evening ritual:"
    options:
      - id: wine
        text: "Wine"
        tags: [energetic]
      - id: cocoa
        text: "Cocoa"
        tags: [calm]
outcomes:
  - id: espresso
    condition:
      mostlyTag: energetic
    result: "You are an espresso."
  - id: chamomile
    condition:
      mostlyTag: calm
    result: "You are a chamomile."
`

const testCatalogYAML = `
models:
  - id: mock
    provider: mock
    model: mock
`

// MockEngine stands in for the benchmark engine.
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Execute(ctx context.Context, run *domain.Run, quiz *domain.QuizDefinition, adapters []domain.ChatAdapter) (*domain.RunSummary, error) {
	args := m.Called(ctx, run, quiz, adapters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func newTestService(t *testing.T, engine domain.BenchmarkEngine, quizRepo domain.QuizRepository, runRepo domain.RunRepository, resultRepo domain.ResultRepository) BenchmarkService {
	catalog, err := config.ParseModelCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	builder := llm.NewBuilder(config.AdapterConfig{}, true)
	return NewBenchmarkService(engine, quizRepo, runRepo, resultRepo, catalog, builder, nil, 0, zap.NewNop())
}

func TestRegisterQuiz(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("UpsertQuiz", mock.Anything, mock.Anything, testQuizYAML).Return(nil)
	svc := newTestService(t, new(MockEngine), quizRepo, new(MockRunRepository), new(MockResultRepository))

	def, err := svc.RegisterQuiz(context.Background(), []byte(testQuizYAML))

	require.NoError(t, err)
	assert.Equal(t, "drink-quiz", def.ID)
	assert.Len(t, def.Questions, 2)
	quizRepo.AssertExpectations(t)
}

func TestRegisterQuiz_InvalidYAML(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	svc := newTestService(t, new(MockEngine), quizRepo, new(MockRunRepository), new(MockResultRepository))

	_, err := svc.RegisterQuiz(context.Background(), []byte("not: [valid"))

	require.Error(t, err)
	quizRepo.AssertNotCalled(t, "UpsertQuiz", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetQuiz(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "drink-quiz").Return(testQuizYAML, nil)
	svc := newTestService(t, new(MockEngine), quizRepo, new(MockRunRepository), new(MockResultRepository))

	def, err := svc.GetQuiz(context.Background(), "drink-quiz")

	require.NoError(t, err)
	assert.Equal(t, "Which Drink Are You?", def.Title)
}

func TestGetQuiz_NotFound(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "missing").Return("", domain.NewQuizNotFoundError("missing"))
	svc := newTestService(t, new(MockEngine), quizRepo, new(MockRunRepository), new(MockResultRepository))

	_, err := svc.GetQuiz(context.Background(), "missing")

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrQuizNotFound, derr.Code)
}

func TestStartRun(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "drink-quiz").Return(testQuizYAML, nil)

	runRepo := new(MockRunRepository)
	runRepo.On("CreateRun", mock.Anything, mock.MatchedBy(func(run *domain.Run) bool {
		return run.QuizID == "drink-quiz" && run.Status == domain.RunStatusQueued && run.RunID != ""
	})).Return(nil)

	engine := new(MockEngine)
	expected := &domain.RunSummary{RunID: "run-1", QuizID: "drink-quiz"}
	engine.On("Execute", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(adapters []domain.ChatAdapter) bool {
		return len(adapters) == 1 && adapters[0].ID() == "mock"
	})).Return(expected, nil)

	svc := newTestService(t, engine, quizRepo, runRepo, new(MockResultRepository))

	summary, err := svc.StartRun(context.Background(), "drink-quiz", []string{"mock"}, map[string]any{"temperature": 0.2})

	require.NoError(t, err)
	assert.Equal(t, expected, summary)
	runRepo.AssertExpectations(t)
	engine.AssertExpectations(t)
}

func TestStartRun_UnknownModel(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "drink-quiz").Return(testQuizYAML, nil)
	engine := new(MockEngine)
	runRepo := new(MockRunRepository)
	svc := newTestService(t, engine, quizRepo, runRepo, new(MockResultRepository))

	_, err := svc.StartRun(context.Background(), "drink-quiz", []string{"no-such-model"}, nil)

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrInvalidInput, derr.Code)
	// No run row is written when the model set cannot be resolved.
	runRepo.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
	engine.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStartRunAsync(t *testing.T) {
	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "drink-quiz").Return(testQuizYAML, nil)

	runRepo := new(MockRunRepository)
	runRepo.On("CreateRun", mock.Anything, mock.Anything).Return(nil)

	executed := make(chan *domain.Run, 1)
	engine := new(MockEngine)
	engine.On("Execute", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			executed <- args.Get(1).(*domain.Run)
		}).
		Return(&domain.RunSummary{QuizID: "drink-quiz"}, nil)

	svc := newTestService(t, engine, quizRepo, runRepo, new(MockResultRepository))

	runID, err := svc.StartRunAsync(context.Background(), "drink-quiz", []string{"mock"}, nil)

	require.NoError(t, err)
	require.NotEmpty(t, runID)

	select {
	case run := <-executed:
		assert.Equal(t, runID, run.RunID)
	case <-time.After(2 * time.Second):
		t.Fatal("background execution never started")
	}
}

func TestGetRunResults(t *testing.T) {
	runRepo := new(MockRunRepository)
	runRepo.On("GetRun", mock.Anything, "run-1").Return(&domain.Run{
		RunID:  "run-1",
		QuizID: "drink-quiz",
		Status: domain.RunStatusCompleted,
	}, nil)

	records := []*domain.ResultRecord{
		{RunID: "run-1", QuizID: "drink-quiz", ModelID: "mock",
			QAResult: domain.QAResult{QuestionID: "q1", Choice: "B"}},
		{RunID: "run-1", QuizID: "drink-quiz", ModelID: "mock",
			QAResult: domain.QAResult{QuestionID: "q2", Choice: "B"}},
	}
	resultRepo := new(MockResultRepository)
	resultRepo.On("GetByRunID", mock.Anything, "run-1").Return(records, nil)

	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "drink-quiz").Return(testQuizYAML, nil)

	svc := newTestService(t, new(MockEngine), quizRepo, runRepo, resultRepo)

	got, outcomes, err := svc.GetRunResults(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, records, got)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "chamomile", outcomes[0].OutcomeID)
	assert.Equal(t, "You are a chamomile.", outcomes[0].Result)
}

func TestGetRunResults_QuizGone(t *testing.T) {
	runRepo := new(MockRunRepository)
	runRepo.On("GetRun", mock.Anything, "run-1").Return(&domain.Run{
		RunID:  "run-1",
		QuizID: "drink-quiz",
	}, nil)

	records := []*domain.ResultRecord{
		{RunID: "run-1", QuizID: "drink-quiz", ModelID: "mock",
			QAResult: domain.QAResult{QuestionID: "q1", Choice: "A"}},
	}
	resultRepo := new(MockResultRepository)
	resultRepo.On("GetByRunID", mock.Anything, "run-1").Return(records, nil)

	quizRepo := new(MockQuizRepository)
	quizRepo.On("GetQuizYAML", mock.Anything, "drink-quiz").Return("", domain.NewQuizNotFoundError("drink-quiz"))

	svc := newTestService(t, new(MockEngine), quizRepo, runRepo, resultRepo)

	got, outcomes, err := svc.GetRunResults(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.Nil(t, outcomes)
}

func TestGetRunResults_RunNotFound(t *testing.T) {
	runRepo := new(MockRunRepository)
	runRepo.On("GetRun", mock.Anything, "missing").Return(nil, domain.NewRunNotFoundError("missing"))

	svc := newTestService(t, new(MockEngine), new(MockQuizRepository), runRepo, new(MockResultRepository))

	_, _, err := svc.GetRunResults(context.Background(), "missing")

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrRunNotFound, derr.Code)
}
