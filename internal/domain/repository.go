package domain

import (
	"context"
	"time"
)

// TransactionManager runs a function within a database transaction.
// Repository operations invoked inside fn pick the transaction up from
// the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunRepository persists run lifecycle state.
type RunRepository interface {
	// CreateRun inserts a new run row.
	CreateRun(ctx context.Context, run *Run) error

	// UpdateRunStatus moves a run to the given lifecycle state.
	UpdateRunStatus(ctx context.Context, runID string, status RunStatus) error

	// GetRun retrieves a run by id.
	GetRun(ctx context.Context, runID string) (*Run, error)

	// MarkStaleRunsFailed flips runs left queued/running/reporting by a
	// crashed process to failed and returns their ids.
	MarkStaleRunsFailed(ctx context.Context) ([]string, error)
}

// QuizInfo is the stored-quiz listing entry.
type QuizInfo struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// QuizRepository persists quiz documents alongside their raw YAML so
// reporting can reconstruct labels without re-reading quiz files.
type QuizRepository interface {
	// UpsertQuiz inserts or replaces a stored quiz.
	UpsertQuiz(ctx context.Context, quiz *QuizDefinition, rawYAML string) error

	// GetQuizYAML returns the raw YAML of a stored quiz.
	GetQuizYAML(ctx context.Context, quizID string) (string, error)

	// ListQuizzes returns all stored quizzes.
	ListQuizzes(ctx context.Context) ([]QuizInfo, error)
}

// ResultRepository is the engine's result sink. Batches are written
// transactionally per model; results for a run are retrievable by
// run_id alone.
type ResultRepository interface {
	// SaveBatch appends one model's full result set for a run.
	SaveBatch(ctx context.Context, records []*ResultRecord) error

	// GetByRunID returns every result tuple recorded for a run.
	GetByRunID(ctx context.Context, runID string) ([]*ResultRecord, error)
}
