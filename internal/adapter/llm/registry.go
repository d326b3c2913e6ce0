package llm

import (
	"quizbench/internal/config"
	"quizbench/internal/domain"
)

// AdapterFactory constructs a chat adapter from a model configuration.
// Factories fail fast on missing credentials so broken models are
// excluded before a run starts, never discovered mid-run.
type AdapterFactory func(cfg *config.ModelConfig, net config.AdapterConfig) (domain.ChatAdapter, error)

// Builder resolves provider tags to adapter constructors through an
// explicit registry. The provider set is closed; unknown tags are a
// configuration error, not a reflection lookup.
type Builder struct {
	registry map[string]AdapterFactory
	net      config.AdapterConfig
	useMocks bool
}

// NewBuilder creates a Builder with the default provider registry.
func NewBuilder(net config.AdapterConfig, useMocks bool) *Builder {
	return &Builder{
		registry: map[string]AdapterFactory{
			"openai":     NewOpenAIAdapter,
			"anthropic":  NewAnthropicAdapter,
			"google":     NewGoogleAdapter,
			"grok":       NewGrokAdapter,
			"openrouter": NewOpenRouterAdapter,
			"mock": func(cfg *config.ModelConfig, _ config.AdapterConfig) (domain.ChatAdapter, error) {
				return NewMockAdapter(cfg.ID), nil
			},
		},
		net:      net,
		useMocks: useMocks,
	}
}

// Build constructs the adapter for one model. In mock mode every model
// resolves to a mock adapter carrying the model's configured id, so
// the engine exercises the same code path without credentials.
func (b *Builder) Build(cfg *config.ModelConfig) (domain.ChatAdapter, error) {
	if b.useMocks {
		return NewMockAdapter(cfg.ID), nil
	}
	factory, ok := b.registry[cfg.Provider]
	if !ok {
		return nil, domain.NewConfigError("unknown provider: " + cfg.Provider)
	}
	return factory(cfg, b.net)
}

// BuildAll constructs adapters for every given model, failing fast on
// the first configuration error.
func (b *Builder) BuildAll(models []*config.ModelConfig) ([]domain.ChatAdapter, error) {
	adapters := make([]domain.ChatAdapter, 0, len(models))
	for _, m := range models {
		adapter, err := b.Build(m)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
