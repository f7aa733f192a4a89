package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedQuery generates a vector embedding for a single query string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vector embeddings for multiple text passages.
	// Batch processing is more efficient than calling EmbedQuery repeatedly.
	// The returned slice contains embeddings in the same order as the inputs.
	// Returns an error if any embedding generation fails.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel generates answer text from a context block and a question.
// Implementations must be thread-safe for concurrent use.
type ChatModel interface {
	// Generate produces a complete answer in one call.
	Generate(ctx context.Context, system, prompt string) (string, error)

	// GenerateStream produces the answer incrementally, invoking onToken for
	// each token as it arrives. Returning an error from onToken aborts the
	// stream. The accumulated text emitted so far is returned either way.
	GenerateStream(ctx context.Context, system, prompt string, onToken func(ctx context.Context, token string) error) (string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and ChatModel instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ChatModel returns the answer generation service.
	// The returned ChatModel is safe for concurrent use.
	ChatModel() ChatModel

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
