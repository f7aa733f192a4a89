// Copyright 2025 The citewell authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/citewell/citewell/ai"
	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/metrics"
	"github.com/citewell/citewell/storage"
)

const (
	// DefaultMMRLambda balances relevance against diversity. 0.7 leans
	// toward relevance while still suppressing near-duplicates.
	DefaultMMRLambda = 0.7

	// DefaultFetchMultiplier is how many times topK candidates MMR
	// over-fetches before re-ranking.
	DefaultFetchMultiplier = 4

	// DefaultMaxCandidates caps the MMR over-fetch.
	DefaultMaxCandidates = 50
)

// Query describes one retrieval request. WorkspaceId is mandatory: search
// fails closed rather than ever crossing workspaces.
type Query struct {
	WorkspaceId core.ID
	Text        string
	TopK        int
	UseMMR      bool
}

// Searcher retrieves workspace-scoped chunks by embedding similarity, with
// optional maximal-marginal-relevance re-ranking for diversity.
type Searcher struct {
	vectors  storage.VectorStore
	embedder ai.Embedder
	sink     metrics.Sink
	logger   *slog.Logger

	lambda        float64
	multiplier    int
	maxCandidates int
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMMRLambda sets the relevance/diversity trade-off in [0,1].
func WithMMRLambda(lambda float64) Option {
	return func(s *Searcher) error {
		if lambda < 0 || lambda > 1 {
			return fmt.Errorf("%w: mmr lambda must be in [0,1], got %v", core.ErrValidation, lambda)
		}
		s.lambda = lambda
		return nil
	}
}

// WithFetchMultiplier sets the MMR over-fetch factor.
func WithFetchMultiplier(multiplier int) Option {
	return func(s *Searcher) error {
		if multiplier < 1 {
			return fmt.Errorf("%w: fetch multiplier must be positive, got %d", core.ErrValidation, multiplier)
		}
		s.multiplier = multiplier
		return nil
	}
}

// WithMaxCandidates caps the MMR candidate pool.
func WithMaxCandidates(max int) Option {
	return func(s *Searcher) error {
		if max < 1 {
			return fmt.Errorf("%w: max candidates must be positive, got %d", core.ErrValidation, max)
		}
		s.maxCandidates = max
		return nil
	}
}

// WithMetrics sets the metrics sink. Default is a no-op sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(s *Searcher) error {
		s.sink = metrics.OrNoop(sink)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(vectors storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		vectors:       vectors,
		embedder:      embedder,
		sink:          metrics.Noop{},
		logger:        slog.Default().With("component", "searcher"),
		lambda:        DefaultMMRLambda,
		multiplier:    DefaultFetchMultiplier,
		maxCandidates: DefaultMaxCandidates,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search embeds the query text and returns up to TopK chunks of the
// workspace ordered by descending similarity (1 − cosine distance). With
// UseMMR the result set is re-ranked for diversity.
func (s *Searcher) Search(ctx context.Context, query Query) ([]*core.ScoredChunk, error) {
	if query.WorkspaceId == 0 {
		return nil, fmt.Errorf("%w: workspace id is required", core.ErrValidation)
	}
	if query.Text == "" {
		return nil, fmt.Errorf("%w: query text is required", core.ErrValidation)
	}
	if query.TopK <= 0 {
		return nil, fmt.Errorf("%w: top k must be positive, got %d", core.ErrValidation, query.TopK)
	}

	start := time.Now()

	vector, err := s.embedder.EmbedQuery(ctx, query.Text)
	if err != nil {
		s.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	results, err := s.SearchByVector(ctx, query, vector)
	if err != nil {
		return nil, err
	}

	s.sink.Count(ctx, metrics.Searches, 1)
	s.sink.Observe(ctx, metrics.SearchLatency, time.Since(start).Seconds())
	return results, nil
}

// SearchByVector is Search for callers that already hold the query
// embedding.
func (s *Searcher) SearchByVector(ctx context.Context, query Query, vector []float32) ([]*core.ScoredChunk, error) {
	if query.WorkspaceId == 0 {
		return nil, fmt.Errorf("%w: workspace id is required", core.ErrValidation)
	}

	fetchK := query.TopK
	if query.UseMMR {
		fetchK = min(query.TopK*s.multiplier, s.maxCandidates)
	}

	distances, err := s.vectors.Search(ctx, query.WorkspaceId, vector, fetchK)
	if err != nil {
		s.logger.Error("error searching vector store", "workspace", query.WorkspaceId, "err", err)
		return nil, err
	}

	if !query.UseMMR {
		return toScored(distances), nil
	}

	candidates := make([]candidate, len(distances))
	for i, d := range distances {
		candidates[i] = candidate{
			Chunk:     d.Chunk,
			Relevance: 1 - float64(d.Distance),
			Rank:      i,
		}
	}

	selected := mmrSelect(candidates, query.TopK, s.lambda)
	results := make([]*core.ScoredChunk, len(selected))
	for i, sel := range selected {
		results[i] = &core.ScoredChunk{
			Chunk:      sel.Chunk,
			Similarity: float32(sel.Relevance),
		}
	}
	return results, nil
}

func toScored(distances []storage.ChunkDistance) []*core.ScoredChunk {
	results := make([]*core.ScoredChunk, len(distances))
	for i, d := range distances {
		results[i] = &core.ScoredChunk{
			Chunk:      d.Chunk,
			Similarity: 1 - d.Distance,
		}
	}
	return results
}
