package modelruntime

import "context"

// LLMProvider is the text-generation capability.
type LLMProvider interface {
	// ValidateCredentials performs a cheap live call against the provider
	// to prove the credentials work.
	ValidateCredentials(ctx context.Context, creds Credentials) error
	AvailableModels(ctx context.Context, creds Credentials) ([]string, error)
	Invoke(ctx context.Context, creds Credentials, params ModelParams, messages []Message) (*Result, error)
	// StreamInvoke calls fn once per delta, in stream order. A non-nil
	// error from fn stops the stream and is returned as-is.
	StreamInvoke(ctx context.Context, creds Credentials, params ModelParams, messages []Message, fn func(Chunk) error) error
}

// EmbeddingProvider is the embedding capability.
type EmbeddingProvider interface {
	ValidateCredentials(ctx context.Context, creds Credentials) error
	AvailableModels(ctx context.Context, creds Credentials) ([]string, error)
	EmbedDocuments(ctx context.Context, creds Credentials, texts []string) (*EmbeddingResult, error)
	EmbedQuery(ctx context.Context, creds Credentials, text string) ([]float64, error)
}
