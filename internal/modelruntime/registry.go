package modelruntime

import (
	"context"
	"fmt"

	"github.com/craftwork/polaris/internal/config"
	"go.uber.org/fx"
)

// ProviderType tags a provider row with the adapter that serves it.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderTEI    ProviderType = "tei"
)

func (t ProviderType) Valid() bool {
	switch t {
	case ProviderOpenAI, ProviderTEI:
		return true
	default:
		return false
	}
}

// Registry resolves a provider type to its adapter. It is assembled once at
// startup and injected where needed; adapters are stateless and safe for
// concurrent use.
type Registry struct {
	llms       map[ProviderType]LLMProvider
	embeddings map[ProviderType]EmbeddingProvider
}

func NewRegistry(holder *config.RuntimeHolder) *Registry {
	return &Registry{
		llms: map[ProviderType]LLMProvider{
			ProviderOpenAI: NewOpenAIProvider(holder),
		},
		embeddings: map[ProviderType]EmbeddingProvider{
			ProviderTEI: NewTEIProvider(holder),
		},
	}
}

// LLM returns the text-generation adapter for the given type.
func (r *Registry) LLM(t ProviderType) (LLMProvider, error) {
	p, ok := r.llms[t]
	if !ok {
		return nil, fmt.Errorf("unsupported LLM provider type: %s", t)
	}
	return p, nil
}

// Embedding returns the embedding adapter for the given type.
func (r *Registry) Embedding(t ProviderType) (EmbeddingProvider, error) {
	p, ok := r.embeddings[t]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding provider type: %s", t)
	}
	return p, nil
}

// ValidateCredentials dispatches a live credential check to whichever
// adapter serves the type, preferring the LLM capability when both exist.
func (r *Registry) ValidateCredentials(ctx context.Context, t ProviderType, creds Credentials) error {
	if p, ok := r.llms[t]; ok {
		return p.ValidateCredentials(ctx, creds)
	}
	if p, ok := r.embeddings[t]; ok {
		return p.ValidateCredentials(ctx, creds)
	}
	return fmt.Errorf("unsupported provider type: %s", t)
}

var Module = fx.Module("modelruntime",
	fx.Provide(NewRegistry),
)
