package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizbench/internal/config"
	"quizbench/internal/domain"
	"quizbench/internal/dto"
	"quizbench/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBenchmarkService mocks service.BenchmarkService.
type MockBenchmarkService struct {
	mock.Mock
}

func (m *MockBenchmarkService) RegisterQuiz(ctx context.Context, rawYAML []byte) (*domain.QuizDefinition, error) {
	args := m.Called(ctx, rawYAML)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizDefinition), args.Error(1)
}

func (m *MockBenchmarkService) ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QuizInfo), args.Error(1)
}

func (m *MockBenchmarkService) GetQuiz(ctx context.Context, quizID string) (*domain.QuizDefinition, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizDefinition), args.Error(1)
}

func (m *MockBenchmarkService) StartRun(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (*domain.RunSummary, error) {
	args := m.Called(ctx, quizID, modelIDs, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockBenchmarkService) StartRunAsync(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (string, error) {
	args := m.Called(ctx, quizID, modelIDs, settings)
	return args.String(0), args.Error(1)
}

func (m *MockBenchmarkService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockBenchmarkService) GetRunResults(ctx context.Context, runID string) ([]*domain.ResultRecord, []domain.ModelOutcomeSummary, error) {
	args := m.Called(ctx, runID)
	var records []*domain.ResultRecord
	if args.Get(0) != nil {
		records = args.Get(0).([]*domain.ResultRecord)
	}
	var outcomes []domain.ModelOutcomeSummary
	if args.Get(1) != nil {
		outcomes = args.Get(1).([]domain.ModelOutcomeSummary)
	}
	return records, outcomes, args.Error(2)
}

const handlerCatalogYAML = `
models:
  - id: mock
    provider: mock
    model: mock
  - id: gpt-4o
    provider: openai
    model: gpt-4o
    apiKeyEnv: HANDLER_TEST_OPENAI_KEY
model_groups:
  all:
    - mock
    - gpt-4o
`

func setupTestApp(t *testing.T, svc *MockBenchmarkService) *fiber.App {
	catalog, err := config.ParseModelCatalog([]byte(handlerCatalogYAML))
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	h := NewBenchmarkHandler(svc, catalog, true)
	h.RegisterRoutes(app.Group("/api"))
	return app
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestListModels(t *testing.T) {
	app := setupTestApp(t, new(MockBenchmarkService))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/models", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.ModelCatalogResponse
	decodeBody(t, resp, &body)
	assert.Len(t, body.Models, 2)
	assert.Contains(t, body.Groups, "all")
	// Mock mode makes every model available.
	for _, m := range body.Models {
		assert.True(t, m.Available)
	}
}

func TestUploadQuiz(t *testing.T) {
	svc := new(MockBenchmarkService)
	def := &domain.QuizDefinition{
		ID:        "drink-quiz",
		Title:     "Which Drink Are You?",
		Questions: make([]domain.QuizQuestion, 3),
	}
	svc.On("RegisterQuiz", mock.Anything, mock.Anything).Return(def, nil)
	app := setupTestApp(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", bytes.NewBufferString("id: drink-quiz\n"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var body dto.QuizResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "drink-quiz", body.ID)
	assert.Equal(t, 3, body.Questions)
}

func TestUploadQuiz_EmptyBody(t *testing.T) {
	app := setupTestApp(t, new(MockBenchmarkService))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/quizzes", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetQuiz_NotFound(t *testing.T) {
	svc := new(MockBenchmarkService)
	svc.On("GetQuiz", mock.Anything, "missing").Return(nil, domain.NewQuizNotFoundError("missing"))
	app := setupTestApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/quizzes/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body middleware.ErrorResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, string(domain.ErrQuizNotFound), body.Code)
}

func TestStartRun(t *testing.T) {
	svc := new(MockBenchmarkService)
	svc.On("StartRunAsync", mock.Anything, "drink-quiz", []string{"mock"}, mock.Anything).Return("run-1", nil)
	app := setupTestApp(t, svc)

	payload, _ := json.Marshal(dto.StartRunRequest{QuizID: "drink-quiz", Models: []string{"mock"}})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	var body dto.RunStartedResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, "queued", body.Status)
	assert.Equal(t, []string{"mock"}, body.Models)
}

func TestStartRun_GroupResolvesThroughCatalog(t *testing.T) {
	svc := new(MockBenchmarkService)
	svc.On("StartRunAsync", mock.Anything, "drink-quiz", []string{"mock", "gpt-4o"}, mock.Anything).Return("run-2", nil)
	app := setupTestApp(t, svc)

	payload, _ := json.Marshal(dto.StartRunRequest{QuizID: "drink-quiz", Group: "all"})
	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	svc.AssertExpectations(t)
}

func TestStartRun_MissingQuizID(t *testing.T) {
	app := setupTestApp(t, new(MockBenchmarkService))

	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewBufferString(`{"models":["mock"]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStartRun_UnknownGroup(t *testing.T) {
	app := setupTestApp(t, new(MockBenchmarkService))

	req := httptest.NewRequest(http.MethodPost, "/api/runs", bytes.NewBufferString(`{"quiz_id":"q","group":"nope"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRun(t *testing.T) {
	svc := new(MockBenchmarkService)
	svc.On("GetRun", mock.Anything, "run-1").Return(&domain.Run{
		RunID:  "run-1",
		QuizID: "drink-quiz",
		Status: domain.RunStatusRunning,
		Models: []string{"mock"},
	}, nil)
	app := setupTestApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/runs/run-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.RunResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "running", body.Status)
}

func TestGetRunResults(t *testing.T) {
	svc := new(MockBenchmarkService)
	records := []*domain.ResultRecord{
		{RunID: "run-1", QuizID: "drink-quiz", ModelID: "mock",
			QAResult: domain.QAResult{QuestionID: "q1", Choice: "A", Reason: "Coffee.", LatencyMS: 12}},
	}
	outcomes := []domain.ModelOutcomeSummary{
		{ModelID: "mock", OutcomeID: "espresso", Result: "You are an espresso."},
	}
	svc.On("GetRunResults", mock.Anything, "run-1").Return(records, outcomes, nil)
	app := setupTestApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/runs/run-1/results", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body dto.RunResultsResponse
	decodeBody(t, resp, &body)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "A", body.Results[0].Choice)
	require.Len(t, body.Outcomes, 1)
	assert.Equal(t, "espresso", body.Outcomes[0].OutcomeID)
}

func TestGetRunResults_RunNotFound(t *testing.T) {
	svc := new(MockBenchmarkService)
	svc.On("GetRunResults", mock.Anything, "missing").Return(nil, nil, domain.NewRunNotFoundError("missing"))
	app := setupTestApp(t, svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/runs/missing/results", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
