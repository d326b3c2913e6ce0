package repository

import (
	"context"
	"fmt"

	"quizbench/internal/domain"
	"quizbench/internal/repository/models"
	"quizbench/internal/util"

	"github.com/jmoiron/sqlx"
)

// ResultRepositoryImpl implements domain.ResultRepository over sqlite.
type ResultRepositoryImpl struct {
	db *sqlx.DB
}

// NewResultRepository creates a new result repository instance
func NewResultRepository(db *sqlx.DB) domain.ResultRepository {
	return &ResultRepositoryImpl{db: db}
}

// SaveBatch appends one model's full result set for a run. Callers run
// it inside a transaction so a model's batch lands atomically.
func (r *ResultRepositoryImpl) SaveBatch(ctx context.Context, records []*domain.ResultRecord) error {
	if len(records) == 0 {
		return nil
	}
	executor := GetExecutor(ctx, r.db)

	query := `INSERT INTO results (id, run_id, quiz_id, model_id, question_id, choice, reason,
		additional_thoughts, refused, latency_ms, tokens_in, tokens_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, rec := range records {
		refused := 0
		if rec.Refused {
			refused = 1
		}
		_, err := executor.ExecContext(ctx, query,
			util.NewULID(),
			rec.RunID,
			rec.QuizID,
			rec.ModelID,
			rec.QuestionID,
			rec.Choice,
			rec.Reason,
			rec.AdditionalThoughts,
			refused,
			rec.LatencyMS,
			rec.TokensIn,
			rec.TokensOut,
		)
		if err != nil {
			return fmt.Errorf("failed to insert result for run %s model %s question %s: %w",
				rec.RunID, rec.ModelID, rec.QuestionID, err)
		}
	}
	return nil
}

// GetByRunID returns every result tuple recorded for a run, ordered by
// model then insertion order.
func (r *ResultRepositoryImpl) GetByRunID(ctx context.Context, runID string) ([]*domain.ResultRecord, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.Result
	err := executor.SelectContext(ctx, &rows,
		`SELECT id, run_id, quiz_id, model_id, question_id, choice, reason,
			additional_thoughts, refused, latency_ms, tokens_in, tokens_out
		FROM results WHERE run_id = ? ORDER BY model_id, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get results of run %s: %w", runID, err)
	}

	records := make([]*domain.ResultRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, &domain.ResultRecord{
			RunID:   row.RunID,
			QuizID:  row.QuizID,
			ModelID: row.ModelID,
			QAResult: domain.QAResult{
				QuestionID:         row.QuestionID,
				Choice:             row.Choice,
				Reason:             row.Reason,
				AdditionalThoughts: row.AdditionalThoughts,
				Refused:            row.Refused != 0,
				LatencyMS:          row.LatencyMS,
				TokensIn:           row.TokensIn,
				TokensOut:          row.TokensOut,
			},
		})
	}
	return records, nil
}
