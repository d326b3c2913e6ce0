package models

// Run is the persisted form of a benchmark run. Timestamps are stored
// as RFC 3339 strings; the model list and settings as JSON blobs.
type Run struct {
	RunID        string `db:"run_id"`
	QuizID       string `db:"quiz_id"`
	CreatedAt    string `db:"created_at"`
	Status       string `db:"status"`
	ModelsJSON   string `db:"models_json"`
	SettingsJSON string `db:"settings_json"`
}

// Quiz is the persisted form of a quiz document. The raw YAML is kept
// verbatim so reporting can reconstruct labels without the source file.
type Quiz struct {
	QuizID     string `db:"quiz_id"`
	Title      string `db:"title"`
	SourceJSON string `db:"source_json"`
	QuizYAML   string `db:"quiz_yaml"`
	CreatedAt  string `db:"created_at"`
}

// Result is one persisted QAResult row.
type Result struct {
	ID                 string `db:"id"`
	RunID              string `db:"run_id"`
	QuizID             string `db:"quiz_id"`
	ModelID            string `db:"model_id"`
	QuestionID         string `db:"question_id"`
	Choice             string `db:"choice"`
	Reason             string `db:"reason"`
	AdditionalThoughts string `db:"additional_thoughts"`
	Refused            int    `db:"refused"`
	LatencyMS          int64  `db:"latency_ms"`
	TokensIn           *int   `db:"tokens_in"`
	TokensOut          *int   `db:"tokens_out"`
}
