package domain

import "context"

// BenchmarkEngine drives one quiz across a set of chat adapters and
// persists exactly one QAResult per (model, question) pair. A failing
// question never aborts the model's loop and a failing model never
// aborts the run. The run row must already exist in queued state; the
// engine owns every later status transition.
type BenchmarkEngine interface {
	Execute(ctx context.Context, run *Run, quiz *QuizDefinition, adapters []ChatAdapter) (*RunSummary, error)
}
