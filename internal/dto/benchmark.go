package dto

import (
	"time"

	"quizbench/internal/domain"
)

// ErrorResponse is the minimal error body handlers return directly.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ModelResponse describes one benchmarkable model.
type ModelResponse struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Description string `json:"description,omitempty"`
	Available   bool   `json:"available"`
}

// ModelCatalogResponse lists models and named model groups.
type ModelCatalogResponse struct {
	Models []ModelResponse     `json:"models"`
	Groups map[string][]string `json:"groups,omitempty"`
}

// QuizInfoResponse is one entry of the stored-quiz listing.
type QuizInfoResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizResponse is the parsed form of a stored quiz.
type QuizResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Questions int    `json:"questions"`
	Outcomes  int    `json:"outcomes"`
}

// StartRunRequest asks for a stored quiz to be run against a set of
// models. Models and Group are alternatives; Group resolves through the
// catalog's named groups.
type StartRunRequest struct {
	QuizID   string         `json:"quiz_id"`
	Models   []string       `json:"models,omitempty"`
	Group    string         `json:"group,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// RunStartedResponse acknowledges a run accepted for background
// execution.
type RunStartedResponse struct {
	RunID  string   `json:"run_id"`
	QuizID string   `json:"quiz_id"`
	Status string   `json:"status"`
	Models []string `json:"models"`
}

// RunResponse is the lifecycle view of a run.
type RunResponse struct {
	RunID     string    `json:"run_id"`
	QuizID    string    `json:"quiz_id"`
	Status    string    `json:"status"`
	Models    []string  `json:"models"`
	CreatedAt time.Time `json:"created_at"`
}

// ResultResponse is one recorded (model, question) result.
type ResultResponse struct {
	ModelID            string `json:"model_id"`
	QuestionID         string `json:"question_id"`
	Choice             string `json:"choice"`
	Reason             string `json:"reason"`
	AdditionalThoughts string `json:"additional_thoughts,omitempty"`
	Refused            bool   `json:"refused"`
	LatencyMS          int64  `json:"latency_ms"`
	TokensIn           *int   `json:"tokens_in,omitempty"`
	TokensOut          *int   `json:"tokens_out,omitempty"`
}

// OutcomeResponse is the outcome label a model's answers mapped to.
type OutcomeResponse struct {
	ModelID     string `json:"model_id"`
	OutcomeID   string `json:"outcome_id"`
	Result      string `json:"result"`
	Description string `json:"description,omitempty"`
}

// RunResultsResponse bundles every recorded result of a run with the
// outcome labels, when the quiz defines outcome rules.
type RunResultsResponse struct {
	RunID    string            `json:"run_id"`
	Results  []ResultResponse  `json:"results"`
	Outcomes []OutcomeResponse `json:"outcomes,omitempty"`
}

// NewRunResultsResponse maps records and outcomes to their response form.
func NewRunResultsResponse(runID string, records []*domain.ResultRecord, outcomes []domain.ModelOutcomeSummary) RunResultsResponse {
	out := RunResultsResponse{
		RunID:   runID,
		Results: make([]ResultResponse, 0, len(records)),
	}
	for _, rec := range records {
		out.Results = append(out.Results, ResultResponse{
			ModelID:            rec.ModelID,
			QuestionID:         rec.QuestionID,
			Choice:             rec.Choice,
			Reason:             rec.Reason,
			AdditionalThoughts: rec.AdditionalThoughts,
			Refused:            rec.Refused,
			LatencyMS:          rec.LatencyMS,
			TokensIn:           rec.TokensIn,
			TokensOut:          rec.TokensOut,
		})
	}
	for _, o := range outcomes {
		out.Outcomes = append(out.Outcomes, OutcomeResponse{
			ModelID:     o.ModelID,
			OutcomeID:   o.OutcomeID,
			Result:      o.Result,
			Description: o.Description,
		})
	}
	return out
}
