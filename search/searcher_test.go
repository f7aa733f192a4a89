package search

import (
	"context"
	"testing"

	"github.com/citewell/citewell/ai/mock"
	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/metrics"
	badgerstore "github.com/citewell/citewell/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChunks(t *testing.T) (*badgerstore.VectorStore, func()) {
	t.Helper()

	backend, err := badgerstore.OpenBackend("", true)
	require.NoError(t, err)
	vectors := badgerstore.NewVectorStore(backend)

	ctx := context.Background()
	chunks := []*core.Chunk{
		{Id: 1, DocumentId: 10, WorkspaceId: 1, Content: "about cats", Vector: []float32{1, 0, 0}},
		{Id: 2, DocumentId: 10, WorkspaceId: 1, Content: "also about cats", Vector: []float32{0.95, 0.05, 0}},
		{Id: 3, DocumentId: 10, WorkspaceId: 1, Content: "about dogs", Vector: []float32{0, 1, 0}},
	}
	require.NoError(t, vectors.ReplaceDocumentChunks(ctx, 1, 10, chunks))
	require.NoError(t, vectors.ReplaceDocumentChunks(ctx, 2, 20, []*core.Chunk{
		{Id: 4, DocumentId: 20, WorkspaceId: 2, Content: "other workspace", Vector: []float32{1, 0, 0}},
	}))

	return vectors, func() { backend.Close() }
}

func queryEmbedder(vector []float32) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedQueryFunc = func(ctx context.Context, text string) ([]float32, error) {
		return vector, nil
	}
	return embedder
}

func TestSearch_SimilarityOrdering(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	recorder := metrics.NewRecorder()
	searcher, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}), WithMetrics(recorder))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), Query{WorkspaceId: 1, Text: "cats", TopK: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.Equal(t, core.ID(2), results[1].Chunk.Id)
	assert.Equal(t, core.ID(3), results[2].Chunk.Id)

	// Similarity is 1 − cosine distance, descending
	assert.InDelta(t, 1.0, float64(results[0].Similarity), 1e-5)
	assert.Greater(t, results[1].Similarity, results[2].Similarity)

	assert.Equal(t, int64(1), recorder.CountOf(metrics.Searches))
	require.Len(t, recorder.Observations(metrics.SearchLatency), 1)
	assert.GreaterOrEqual(t, recorder.Observations(metrics.SearchLatency)[0], 0.0)
}

func TestSearch_WorkspaceRequired(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	searcher, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	_, err = searcher.Search(context.Background(), Query{WorkspaceId: 0, Text: "cats", TopK: 3})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSearch_NeverCrossesWorkspaces(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	searcher, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), Query{WorkspaceId: 2, Text: "cats", TopK: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ID(4), results[0].Chunk.Id)
}

func TestSearch_InvalidInput(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	searcher, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = searcher.Search(ctx, Query{WorkspaceId: 1, Text: "", TopK: 3})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = searcher.Search(ctx, Query{WorkspaceId: 1, Text: "cats", TopK: 0})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestSearch_MMRPrefersDiversity(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	// Heavy diversity weighting: the near-duplicate of the best hit loses
	// its slot to the dog chunk
	searcher, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}), WithMMRLambda(0.2))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), Query{WorkspaceId: 1, Text: "cats", TopK: 2, UseMMR: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, core.ID(1), results[0].Chunk.Id)
	assert.Equal(t, core.ID(3), results[1].Chunk.Id)
}

func TestSearch_MMRLambdaOneMatchesTopK(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	plain, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}))
	require.NoError(t, err)
	relevanceOnly, err := NewSearcher(vectors, queryEmbedder([]float32{1, 0, 0}), WithMMRLambda(1.0))
	require.NoError(t, err)

	ctx := context.Background()
	topK, err := plain.Search(ctx, Query{WorkspaceId: 1, Text: "cats", TopK: 2})
	require.NoError(t, err)
	mmr, err := relevanceOnly.Search(ctx, Query{WorkspaceId: 1, Text: "cats", TopK: 2, UseMMR: true})
	require.NoError(t, err)

	require.Len(t, mmr, len(topK))
	for i := range topK {
		assert.Equal(t, topK[i].Chunk.Id, mmr[i].Chunk.Id)
	}
}

func TestSearcher_OptionValidation(t *testing.T) {
	vectors, cleanup := seedChunks(t)
	defer cleanup()

	embedder := queryEmbedder([]float32{1})

	_, err := NewSearcher(vectors, embedder, WithMMRLambda(1.5))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewSearcher(vectors, embedder, WithFetchMultiplier(0))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewSearcher(vectors, embedder, WithMaxCandidates(0))
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = NewSearcher(nil, embedder)
	assert.ErrorIs(t, err, ErrVectorStoreRequired)

	_, err = NewSearcher(vectors, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
