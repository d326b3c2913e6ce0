package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizbench/internal/domain"
	"quizbench/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// QuizRepositoryImpl implements domain.QuizRepository over sqlite.
type QuizRepositoryImpl struct {
	db *sqlx.DB
}

// NewQuizRepository creates a new quiz repository instance
func NewQuizRepository(db *sqlx.DB) domain.QuizRepository {
	return &QuizRepositoryImpl{db: db}
}

// UpsertQuiz inserts or replaces a stored quiz together with its raw
// YAML document.
func (r *QuizRepositoryImpl) UpsertQuiz(ctx context.Context, quiz *domain.QuizDefinition, rawYAML string) error {
	executor := GetExecutor(ctx, r.db)

	sourceJSON, err := json.Marshal(quiz.Source)
	if err != nil {
		return fmt.Errorf("failed to marshal source of quiz %s: %w", quiz.ID, err)
	}

	query := `INSERT INTO quizzes (quiz_id, title, source_json, quiz_yaml, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(quiz_id) DO UPDATE SET
			title = excluded.title,
			source_json = excluded.source_json,
			quiz_yaml = excluded.quiz_yaml`
	_, err = executor.ExecContext(ctx, query,
		quiz.ID,
		quiz.Title,
		string(sourceJSON),
		rawYAML,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert quiz %s: %w", quiz.ID, err)
	}
	return nil
}

// GetQuizYAML returns the raw YAML of a stored quiz.
func (r *QuizRepositoryImpl) GetQuizYAML(ctx context.Context, quizID string) (string, error) {
	executor := GetExecutor(ctx, r.db)

	var rawYAML string
	err := executor.GetContext(ctx, &rawYAML, `SELECT quiz_yaml FROM quizzes WHERE quiz_id = ?`, quizID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.NewQuizNotFoundError(quizID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get quiz %s: %w", quizID, err)
	}
	return rawYAML, nil
}

// ListQuizzes returns all stored quizzes ordered by creation time.
func (r *QuizRepositoryImpl) ListQuizzes(ctx context.Context) ([]domain.QuizInfo, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.Quiz
	err := executor.SelectContext(ctx, &rows,
		`SELECT quiz_id, title, source_json, quiz_yaml, created_at FROM quizzes ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	infos := make([]domain.QuizInfo, 0, len(rows))
	for _, row := range rows {
		createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at of quiz %s: %w", row.QuizID, err)
		}
		infos = append(infos, domain.QuizInfo{
			ID:        row.QuizID,
			Title:     row.Title,
			CreatedAt: createdAt,
		})
	}
	return infos, nil
}
