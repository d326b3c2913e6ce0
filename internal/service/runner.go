package service

import (
	"context"
	"fmt"
	"strings"

	"quizbench/internal/domain"
	"quizbench/internal/prompt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunnerOptions tunes engine execution.
type RunnerOptions struct {
	// Parallel runs the models concurrently. Questions within one model
	// always run sequentially in quiz order.
	Parallel bool
}

// benchmarkRunner implements the domain.BenchmarkEngine interface.
type benchmarkRunner struct {
	runRepo    domain.RunRepository
	resultRepo domain.ResultRepository
	txManager  domain.TransactionManager
	logger     *zap.Logger
	opts       RunnerOptions
}

// NewBenchmarkRunner creates a new instance of benchmarkRunner.
func NewBenchmarkRunner(
	runRepo domain.RunRepository,
	resultRepo domain.ResultRepository,
	txManager domain.TransactionManager,
	logger *zap.Logger,
	opts RunnerOptions,
) domain.BenchmarkEngine {
	return &benchmarkRunner{
		runRepo:    runRepo,
		resultRepo: resultRepo,
		txManager:  txManager,
		logger:     logger,
		opts:       opts,
	}
}

// Execute runs the quiz against every adapter and persists the results.
// Each model produces one record per question, refusals included, so a
// completed run always holds len(adapters) * len(questions) records.
func (r *benchmarkRunner) Execute(ctx context.Context, run *domain.Run, quiz *domain.QuizDefinition, adapters []domain.ChatAdapter) (*domain.RunSummary, error) {
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	if len(adapters) == 0 {
		return nil, domain.NewInvalidInputError("a run needs at least one model")
	}
	settings := run.Settings

	r.logger.Info("Run starting",
		zap.String("run_id", run.RunID),
		zap.String("quiz_id", quiz.ID),
		zap.Strings("models", run.Models),
		zap.Int("questions", len(quiz.Questions)),
	)

	if err := r.runRepo.UpdateRunStatus(ctx, run.RunID, domain.RunStatusRunning); err != nil {
		return nil, fmt.Errorf("failed to mark run running: %w", err)
	}

	batches := make([][]*domain.ResultRecord, len(adapters))
	reports := make([]domain.ModelRunReport, len(adapters))

	if r.opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, adapter := range adapters {
			g.Go(func() error {
				batches[i], reports[i] = r.runModel(gctx, run.RunID, quiz, adapter, settings)
				return nil
			})
		}
		// Workers report failures through their ModelRunReport, never
		// through the group error.
		_ = g.Wait()
	} else {
		for i, adapter := range adapters {
			batches[i], reports[i] = r.runModel(ctx, run.RunID, quiz, adapter, settings)
		}
	}

	if err := r.runRepo.UpdateRunStatus(ctx, run.RunID, domain.RunStatusReporting); err != nil {
		return nil, fmt.Errorf("failed to mark run reporting: %w", err)
	}

	// Persist each model's batch in its own transaction so one model's
	// write failure cannot take another model's results with it.
	for i := range adapters {
		if reports[i].State == domain.ModelRunFailed {
			continue
		}
		records := batches[i]
		err := r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			return r.resultRepo.SaveBatch(txCtx, records)
		})
		if err != nil {
			r.logger.Error("Failed to persist model results",
				zap.String("run_id", run.RunID),
				zap.String("model_id", reports[i].ModelID),
				zap.Error(err),
			)
			reports[i].State = domain.ModelRunFailed
			reports[i].Error = "failed to persist results: " + domain.RootCause(err)
		}
	}

	summary := &domain.RunSummary{
		RunID:  run.RunID,
		QuizID: quiz.ID,
		Models: reports,
	}

	finalStatus := domain.RunStatusCompleted
	if len(summary.Succeeded()) == 0 {
		finalStatus = domain.RunStatusFailed
	}
	if err := r.runRepo.UpdateRunStatus(ctx, run.RunID, finalStatus); err != nil {
		return nil, fmt.Errorf("failed to finalize run: %w", err)
	}

	r.logger.Info("Run finished",
		zap.String("run_id", run.RunID),
		zap.String("status", string(finalStatus)),
		zap.Int("models_succeeded", len(summary.Succeeded())),
		zap.Int("models_failed", len(summary.Failed())),
	)
	return summary, nil
}

// runModel walks the quiz questions in order against one adapter. Every
// question yields a record: an answer when the reply parsed cleanly, a
// refusal otherwise. Only context cancellation aborts the loop.
func (r *benchmarkRunner) runModel(ctx context.Context, runID string, quiz *domain.QuizDefinition, adapter domain.ChatAdapter, settings map[string]any) ([]*domain.ResultRecord, domain.ModelRunReport) {
	modelID := adapter.ID()
	report := domain.ModelRunReport{ModelID: modelID, State: domain.ModelRunCompleted}
	records := make([]*domain.ResultRecord, 0, len(quiz.Questions))

	for i, question := range quiz.Questions {
		if ctx.Err() != nil {
			report.State = domain.ModelRunFailed
			report.Error = "run aborted: " + ctx.Err().Error()
			return records, report
		}

		result := r.askQuestion(ctx, quiz, i, adapter, settings)
		if result.Refused {
			report.Refused++
			r.logger.Warn("Question refused",
				zap.String("run_id", runID),
				zap.String("model_id", modelID),
				zap.String("question_id", question.ID),
				zap.String("reason", result.Reason),
			)
		} else {
			report.Answered++
			r.logger.Debug("Question answered",
				zap.String("run_id", runID),
				zap.String("model_id", modelID),
				zap.String("question_id", question.ID),
				zap.String("choice", result.Choice),
				zap.Int64("latency_ms", result.LatencyMS),
			)
		}
		records = append(records, &domain.ResultRecord{
			RunID:    runID,
			QuizID:   quiz.ID,
			ModelID:  modelID,
			QAResult: result,
		})
	}
	return records, report
}

// askQuestion resolves one (model, question) pair to a QAResult. It
// never returns an error: any failure becomes a refusal record carrying
// the root cause.
func (r *benchmarkRunner) askQuestion(ctx context.Context, quiz *domain.QuizDefinition, index int, adapter domain.ChatAdapter, settings map[string]any) domain.QAResult {
	question := quiz.Questions[index]
	optionTexts := make([]string, len(question.Options))
	for i, opt := range question.Options {
		optionTexts[i] = opt.Text
	}

	messages, err := prompt.RenderMessages(prompt.Context{
		QuizTitle:      quiz.Title,
		QuestionNumber: index + 1,
		QuestionTotal:  len(quiz.Questions),
		QuestionText:   question.Text,
		Options:        optionTexts,
	})
	if err != nil {
		return refusal(question.ID, "failed to render prompt: "+domain.RootCause(err))
	}

	resp, err := adapter.Send(ctx, messages, settings)
	if err != nil {
		return refusal(question.ID, domain.RootCause(err))
	}

	reply, ok := prompt.ParseReply(resp.Text)
	if !ok {
		result := refusal(question.ID, "reply was not parseable as a choice")
		result.LatencyMS = resp.LatencyMS
		result.TokensIn = resp.TokensIn
		result.TokensOut = resp.TokensOut
		return result
	}

	choice := strings.ToUpper(strings.TrimSpace(reply.Choice))
	result := domain.QAResult{
		QuestionID:         question.ID,
		Choice:             choice,
		Reason:             reply.Reason,
		AdditionalThoughts: reply.AdditionalThoughts,
		LatencyMS:          resp.LatencyMS,
		TokensIn:           resp.TokensIn,
		TokensOut:          resp.TokensOut,
	}
	if choice == "" {
		result.Refused = true
		if result.Reason == "" {
			result.Reason = "model declined to choose"
		}
		return result
	}
	if question.OptionByLetter(choice) == nil {
		result.Refused = true
		result.Choice = ""
		result.Reason = fmt.Sprintf("model chose an unlisted option %q", choice)
		return result
	}
	return result
}

// refusal builds the zero-latency record used when a question could not
// be answered at all.
func refusal(questionID, reason string) domain.QAResult {
	return domain.QAResult{
		QuestionID: questionID,
		Refused:    true,
		Reason:     reason,
	}
}
