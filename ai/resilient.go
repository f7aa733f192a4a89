package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/metrics"
)

// ResilientEmbedder wraps an Embedder with the shared retry policy and
// validates every returned vector against the configured dimension contract.
// When retries are exhausted the error wraps core.ErrServiceUnavailable so
// callers can distinguish a dead provider from a bad request. A dimension
// mismatch wraps core.ErrDataIntegrity and is never retried.
type ResilientEmbedder struct {
	inner   Embedder
	policy  RetryPolicy
	dims    int
	metrics metrics.Sink
	logger  *slog.Logger
}

var _ Embedder = (*ResilientEmbedder)(nil)

// NewResilientEmbedder wraps inner with the retry policy and dimension
// contract from cfg. The sink may be nil.
func NewResilientEmbedder(inner Embedder, cfg *Config, sink metrics.Sink) (*ResilientEmbedder, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: embedder is not configured", core.ErrServiceUnavailable)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ResilientEmbedder{
		inner:   inner,
		policy:  cfg.Retry,
		dims:    cfg.EmbeddingDimensions,
		metrics: metrics.OrNoop(sink),
		logger:  slog.Default().With("component", "embedder"),
	}, nil
}

// EmbedQuery embeds a single query string.
func (e *ResilientEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	var vector []float32
	err := e.retry(ctx, func() error {
		var opErr error
		vector, opErr = e.inner.EmbedQuery(ctx, text)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	if err := e.checkDims(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedBatch embeds a batch of passages. The caller is responsible for never
// submitting an empty batch; doing so is a validation error.
func (e *ResilientEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty embedding batch", core.ErrValidation)
	}

	var vectors [][]float32
	err := e.retry(ctx, func() error {
		var opErr error
		vectors, opErr = e.inner.EmbedBatch(ctx, texts)
		return opErr
	})
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch: sent %d texts, received %d vectors",
			core.ErrDataIntegrity, len(texts), len(vectors))
	}
	for i, vector := range vectors {
		if err := e.checkDims(vector); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
	}
	return vectors, nil
}

func (e *ResilientEmbedder) retry(ctx context.Context, op func() error) error {
	attempts := 0
	err := e.policy.Retry(ctx, func() error {
		attempts++
		return op()
	})
	if attempts > 1 {
		e.metrics.Count(ctx, metrics.EmbeddingRetries, int64(attempts-1))
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	e.logger.Error("embedding retries exhausted", "attempts", attempts, "err", err)
	return fmt.Errorf("%w: embedding provider: %v", core.ErrServiceUnavailable, err)
}

func (e *ResilientEmbedder) checkDims(vector []float32) error {
	if len(vector) != e.dims {
		return fmt.Errorf("%w: embedding dimension mismatch: expected %d, received %d",
			core.ErrDataIntegrity, e.dims, len(vector))
	}
	return nil
}

// ResilientChatModel wraps a ChatModel, retrying non-streaming generation with
// the shared policy. Streaming is deliberately not retried: partial output has
// already reached the caller, so retry is the caller's decision.
type ResilientChatModel struct {
	inner   ChatModel
	policy  RetryPolicy
	metrics metrics.Sink
	logger  *slog.Logger
}

var _ ChatModel = (*ResilientChatModel)(nil)

// NewResilientChatModel wraps inner with the retry policy from cfg.
func NewResilientChatModel(inner ChatModel, cfg *Config, sink metrics.Sink) (*ResilientChatModel, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: chat model is not configured", core.ErrServiceUnavailable)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ResilientChatModel{
		inner:   inner,
		policy:  cfg.Retry,
		metrics: metrics.OrNoop(sink),
		logger:  slog.Default().With("component", "chat-model"),
	}, nil
}

// Generate produces a complete answer, retrying transient provider failures.
func (m *ResilientChatModel) Generate(ctx context.Context, system, prompt string) (string, error) {
	var answer string
	attempts := 0
	err := m.policy.Retry(ctx, func() error {
		attempts++
		var opErr error
		answer, opErr = m.inner.Generate(ctx, system, prompt)
		return opErr
	})
	if attempts > 1 {
		m.metrics.Count(ctx, metrics.GenerationRetries, int64(attempts-1))
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		m.logger.Error("generation retries exhausted", "attempts", attempts, "err", err)
		return "", fmt.Errorf("%w: chat provider: %v", core.ErrServiceUnavailable, err)
	}
	return answer, nil
}

// GenerateStream forwards to the inner model without retry.
func (m *ResilientChatModel) GenerateStream(ctx context.Context, system, prompt string, onToken func(ctx context.Context, token string) error) (string, error) {
	return m.inner.GenerateStream(ctx, system, prompt, onToken)
}
