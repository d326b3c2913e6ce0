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

// RunRepositoryImpl implements domain.RunRepository over sqlite.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository instance
func NewRunRepository(db *sqlx.DB) domain.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// CreateRun inserts a new run row.
func (r *RunRepositoryImpl) CreateRun(ctx context.Context, run *domain.Run) error {
	executor := GetExecutor(ctx, r.db)

	modelsJSON, err := json.Marshal(run.Models)
	if err != nil {
		return fmt.Errorf("failed to marshal run models: %w", err)
	}
	settings := run.Settings
	if settings == nil {
		settings = map[string]any{}
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal run settings: %w", err)
	}

	query := `INSERT INTO runs (run_id, quiz_id, created_at, status, models_json, settings_json)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = executor.ExecContext(ctx, query,
		run.RunID,
		run.QuizID,
		run.CreatedAt.UTC().Format(time.RFC3339),
		string(run.Status),
		string(modelsJSON),
		string(settingsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}
	return nil
}

// UpdateRunStatus moves a run to the given lifecycle state.
func (r *RunRepositoryImpl) UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus) error {
	executor := GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, `UPDATE runs SET status = ? WHERE run_id = ?`, string(status), runID)
	if err != nil {
		return fmt.Errorf("failed to update status of run %s: %w", runID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for run %s: %w", runID, err)
	}
	if affected == 0 {
		return domain.NewRunNotFoundError(runID)
	}
	return nil
}

// GetRun retrieves a run by id.
func (r *RunRepositoryImpl) GetRun(ctx context.Context, runID string) (*domain.Run, error) {
	executor := GetExecutor(ctx, r.db)

	var row models.Run
	err := executor.GetContext(ctx, &row, `SELECT run_id, quiz_id, created_at, status, models_json, settings_json
		FROM runs WHERE run_id = ?`, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewRunNotFoundError(runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return mapRunRow(&row)
}

// MarkStaleRunsFailed flips runs left in a non-terminal state by a
// crashed process to failed and returns their ids.
func (r *RunRepositoryImpl) MarkStaleRunsFailed(ctx context.Context) ([]string, error) {
	executor := GetExecutor(ctx, r.db)

	var staleIDs []string
	err := executor.SelectContext(ctx, &staleIDs,
		`SELECT run_id FROM runs WHERE status IN (?, ?, ?)`,
		string(domain.RunStatusQueued), string(domain.RunStatusRunning), string(domain.RunStatusReporting))
	if err != nil {
		return nil, fmt.Errorf("failed to list stale runs: %w", err)
	}
	if len(staleIDs) == 0 {
		return nil, nil
	}

	_, err = executor.ExecContext(ctx,
		`UPDATE runs SET status = ? WHERE status IN (?, ?, ?)`,
		string(domain.RunStatusFailed),
		string(domain.RunStatusQueued), string(domain.RunStatusRunning), string(domain.RunStatusReporting))
	if err != nil {
		return nil, fmt.Errorf("failed to mark stale runs failed: %w", err)
	}
	return staleIDs, nil
}

func mapRunRow(row *models.Run) (*domain.Run, error) {
	var modelIDs []string
	if err := json.Unmarshal([]byte(row.ModelsJSON), &modelIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal models of run %s: %w", row.RunID, err)
	}
	var settings map[string]any
	if err := json.Unmarshal([]byte(row.SettingsJSON), &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings of run %s: %w", row.RunID, err)
	}
	createdAt, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at of run %s: %w", row.RunID, err)
	}
	return &domain.Run{
		RunID:     row.RunID,
		QuizID:    row.QuizID,
		Status:    domain.RunStatus(row.Status),
		Models:    modelIDs,
		Settings:  settings,
		CreatedAt: createdAt,
	}, nil
}
