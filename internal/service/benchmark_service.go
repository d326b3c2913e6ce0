package service

import (
	"context"
	"time"

	"quizbench/internal/adapter/llm"
	"quizbench/internal/config"
	"quizbench/internal/domain"
	"quizbench/internal/quiz"
	"quizbench/internal/util"

	"go.uber.org/zap"
)

// BenchmarkService is the application face of the harness: it owns
// quiz storage, model resolution and run orchestration on behalf of
// the HTTP handlers and the CLI.
type BenchmarkService interface {
	// RegisterQuiz parses, validates and stores a quiz YAML document.
	RegisterQuiz(ctx context.Context, rawYAML []byte) (*domain.QuizDefinition, error)

	// ListQuizzes returns the stored quizzes.
	ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error)

	// GetQuiz loads and parses a stored quiz.
	GetQuiz(ctx context.Context, quizID string) (*domain.QuizDefinition, error)

	// StartRun executes a stored quiz against the named models and
	// blocks until the run resolves.
	StartRun(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (*domain.RunSummary, error)

	// StartRunAsync validates the request, records the run in queued
	// state and executes it in the background. The returned run id can
	// be polled via GetRun while the run is still in flight.
	StartRunAsync(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (string, error)

	// GetRun returns the lifecycle state of a run.
	GetRun(ctx context.Context, runID string) (*domain.Run, error)

	// GetRunResults returns every recorded result of a run together
	// with the outcome labels the quiz's rules assign per model.
	GetRunResults(ctx context.Context, runID string) ([]*domain.ResultRecord, []domain.ModelOutcomeSummary, error)
}

type benchmarkService struct {
	engine     domain.BenchmarkEngine
	quizRepo   domain.QuizRepository
	runRepo    domain.RunRepository
	resultRepo domain.ResultRepository
	catalog    *config.ModelCatalog
	builder    *llm.Builder
	cache      domain.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewBenchmarkService creates a new instance of benchmarkService.
// cache may be nil; responses are then fetched fresh on every run.
func NewBenchmarkService(
	engine domain.BenchmarkEngine,
	quizRepo domain.QuizRepository,
	runRepo domain.RunRepository,
	resultRepo domain.ResultRepository,
	catalog *config.ModelCatalog,
	builder *llm.Builder,
	cache domain.Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) BenchmarkService {
	return &benchmarkService{
		engine:     engine,
		quizRepo:   quizRepo,
		runRepo:    runRepo,
		resultRepo: resultRepo,
		catalog:    catalog,
		builder:    builder,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

func (s *benchmarkService) RegisterQuiz(ctx context.Context, rawYAML []byte) (*domain.QuizDefinition, error) {
	def, err := quiz.Parse(rawYAML)
	if err != nil {
		return nil, err
	}
	if err := s.quizRepo.UpsertQuiz(ctx, def, string(rawYAML)); err != nil {
		return nil, err
	}
	s.logger.Info("Quiz registered",
		zap.String("quiz_id", def.ID),
		zap.String("title", def.Title),
		zap.Int("questions", len(def.Questions)),
	)
	return def, nil
}

func (s *benchmarkService) ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error) {
	return s.quizRepo.ListQuizzes(ctx)
}

func (s *benchmarkService) GetQuiz(ctx context.Context, quizID string) (*domain.QuizDefinition, error) {
	rawYAML, err := s.quizRepo.GetQuizYAML(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return quiz.Parse([]byte(rawYAML))
}

func (s *benchmarkService) StartRun(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (*domain.RunSummary, error) {
	def, adapters, run, err := s.prepareRun(ctx, quizID, modelIDs, settings)
	if err != nil {
		return nil, err
	}
	return s.engine.Execute(ctx, run, def, adapters)
}

func (s *benchmarkService) StartRunAsync(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (string, error) {
	def, adapters, run, err := s.prepareRun(ctx, quizID, modelIDs, settings)
	if err != nil {
		return "", err
	}

	// The run outlives the HTTP request that started it.
	go func() {
		bgCtx := context.Background()
		if _, err := s.engine.Execute(bgCtx, run, def, adapters); err != nil {
			s.logger.Error("Background run failed",
				zap.String("run_id", run.RunID),
				zap.Error(err),
			)
			if updateErr := s.runRepo.UpdateRunStatus(bgCtx, run.RunID, domain.RunStatusFailed); updateErr != nil {
				s.logger.Error("Failed to mark run failed",
					zap.String("run_id", run.RunID),
					zap.Error(updateErr),
				)
			}
		}
	}()
	return run.RunID, nil
}

// prepareRun resolves the quiz and models and records the run in queued
// state. Unknown models and missing credentials surface here, before
// any run row exists.
func (s *benchmarkService) prepareRun(ctx context.Context, quizID string, modelIDs []string, settings map[string]any) (*domain.QuizDefinition, []domain.ChatAdapter, *domain.Run, error) {
	def, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, nil, err
	}
	adapters, err := s.buildAdapters(modelIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	run := &domain.Run{
		RunID:     util.NewULID(),
		QuizID:    def.ID,
		Status:    domain.RunStatusQueued,
		Models:    modelIDs,
		Settings:  settings,
		CreatedAt: time.Now(),
	}
	if err := s.runRepo.CreateRun(ctx, run); err != nil {
		return nil, nil, nil, err
	}
	return def, adapters, run, nil
}

func (s *benchmarkService) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	return s.runRepo.GetRun(ctx, runID)
}

func (s *benchmarkService) GetRunResults(ctx context.Context, runID string) ([]*domain.ResultRecord, []domain.ModelOutcomeSummary, error) {
	run, err := s.runRepo.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.resultRepo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, nil, err
	}

	def, err := s.GetQuiz(ctx, run.QuizID)
	if err != nil {
		// Results remain readable even if the quiz document was later
		// replaced with one that no longer validates.
		s.logger.Warn("Quiz unavailable for outcome scoring",
			zap.String("run_id", runID),
			zap.String("quiz_id", run.QuizID),
			zap.Error(err),
		)
		return records, nil, nil
	}
	return records, ScoreOutcomes(def, records), nil
}

// buildAdapters resolves model ids through the catalog and constructs
// one adapter per model, wrapping each in the response cache when one
// is configured. Unknown ids and missing credentials fail the request
// up front rather than producing a run full of refusals.
func (s *benchmarkService) buildAdapters(modelIDs []string) ([]domain.ChatAdapter, error) {
	if len(modelIDs) == 0 {
		return nil, domain.NewInvalidInputError("a run needs at least one model")
	}
	adapters := make([]domain.ChatAdapter, 0, len(modelIDs))
	for _, id := range modelIDs {
		cfg, found := s.catalog.Get(id)
		if !found {
			return nil, domain.NewInvalidInputError("unknown model id: " + id)
		}
		adapter, err := s.builder.Build(cfg)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			adapter = llm.NewCachedChatAdapter(adapter, s.cache, s.cacheTTL)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
