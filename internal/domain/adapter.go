package domain

import "context"

// ChatAdapter is the uniform capability contract over one LLM
// provider's chat API. Implementations own their network client and
// credential, perform bounded retry internally and classify failures
// into ProviderError values. The engine never calls the same adapter
// concurrently.
type ChatAdapter interface {
	// ID returns the stable adapter identity. Configuration may
	// override it to disambiguate multiple configurations of the same
	// provider/model pair.
	ID() string

	// Send translates the transcript and parameter bag into the
	// provider's wire schema, executes the call under the adapter's
	// retry policy and extracts a uniform response. Caller params win
	// over the adapter's configured defaults on key collision.
	Send(ctx context.Context, messages []Message, params map[string]any) (*ChatResponse, error)
}
