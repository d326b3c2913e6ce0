package domain

import "time"

// RunStatus is the lifecycle state of a benchmark run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusReporting RunStatus = "reporting"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one execution of a quiz against a set of adapters. run_id is
// generated once per execution and never reused; it is the join key
// across every persisted result.
type Run struct {
	RunID     string
	QuizID    string
	Status    RunStatus
	Models    []string
	Settings  map[string]any
	CreatedAt time.Time
}

// Message roles follow the role-tagged transcript convention.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the uniform response extracted from any provider.
// Token counts are optional; not all providers report usage. Latency is
// measured by the adapter as end-to-end wall time including retries.
type ChatResponse struct {
	Text      string `json:"text"`
	TokensIn  *int   `json:"tokens_in,omitempty"`
	TokensOut *int   `json:"tokens_out,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// QAResult is one model's recorded answer (or failure) for one quiz
// question. Records are created exactly once when an attempt resolves
// and are immutable thereafter.
type QAResult struct {
	QuestionID         string `json:"question_id"`
	Choice             string `json:"choice"`
	Reason             string `json:"reason"`
	AdditionalThoughts string `json:"additional_thoughts,omitempty"`
	Refused            bool   `json:"refused"`
	LatencyMS          int64  `json:"latency_ms"`
	TokensIn           *int   `json:"tokens_in,omitempty"`
	TokensOut          *int   `json:"tokens_out,omitempty"`
}

// ResultRecord is a QAResult keyed for persistence and reporting.
type ResultRecord struct {
	RunID   string `json:"run_id"`
	QuizID  string `json:"quiz_id"`
	ModelID string `json:"model_id"`
	QAResult
}

// ModelRunState classifies how a model fared across a whole quiz.
// A model completes even when individual questions were refused;
// it fails only when the adapter could not be exercised at all or its
// results could not be persisted.
type ModelRunState string

const (
	ModelRunCompleted ModelRunState = "completed"
	ModelRunFailed    ModelRunState = "failed"
)

// ModelRunReport is the per-model entry of a run summary.
type ModelRunReport struct {
	ModelID  string        `json:"model_id"`
	State    ModelRunState `json:"state"`
	Answered int           `json:"answered"`
	Refused  int           `json:"refused"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary partitions the models of a run into succeeded and failed.
type RunSummary struct {
	RunID  string           `json:"run_id"`
	QuizID string           `json:"quiz_id"`
	Models []ModelRunReport `json:"models"`
}

// Succeeded returns the reports of models whose question loop ran to
// completion, refusals included.
func (s *RunSummary) Succeeded() []ModelRunReport {
	var out []ModelRunReport
	for _, m := range s.Models {
		if m.State == ModelRunCompleted {
			out = append(out, m)
		}
	}
	return out
}

// Failed returns the reports of models that could not be exercised.
func (s *RunSummary) Failed() []ModelRunReport {
	var out []ModelRunReport
	for _, m := range s.Models {
		if m.State == ModelRunFailed {
			out = append(out, m)
		}
	}
	return out
}

// ModelOutcomeSummary is the outcome label a model's aggregate choices
// mapped to, if any rule matched.
type ModelOutcomeSummary struct {
	ModelID     string `json:"model_id"`
	OutcomeID   string `json:"outcome_id"`
	Result      string `json:"result"`
	Description string `json:"description,omitempty"`
}
