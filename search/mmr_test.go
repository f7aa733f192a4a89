package search

import (
	"testing"

	"github.com/citewell/citewell/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mmrCandidates(vectors [][]float32, relevances []float64) []candidate {
	candidates := make([]candidate, len(vectors))
	for i := range vectors {
		candidates[i] = candidate{
			Chunk:     &core.Chunk{Id: core.ID(i + 1), Vector: vectors[i]},
			Relevance: relevances[i],
			Rank:      i,
		}
	}
	return candidates
}

func selectedIDs(selected []candidate) []core.ID {
	ids := make([]core.ID, len(selected))
	for i, sel := range selected {
		ids[i] = sel.Chunk.Id
	}
	return ids
}

func TestMMRSelect_LambdaOneIsTopK(t *testing.T) {
	candidates := mmrCandidates(
		[][]float32{{1, 0}, {1, 0.01}, {0, 1}, {0.5, 0.5}},
		[]float64{0.9, 0.8, 0.7, 0.6},
	)

	selected := mmrSelect(candidates, 3, 1.0)
	assert.Equal(t, []core.ID{1, 2, 3}, selectedIDs(selected))
}

func TestMMRSelect_LambdaZeroAvoidsDuplicates(t *testing.T) {
	// Candidates 1 and 2 are identical vectors; a distinct candidate exists
	candidates := mmrCandidates(
		[][]float32{{1, 0}, {1, 0}, {0, 1}},
		[]float64{0.9, 0.89, 0.2},
	)

	selected := mmrSelect(candidates, 2, 0.0)
	require.Len(t, selected, 2)
	assert.Equal(t, []core.ID{1, 3}, selectedIDs(selected))
}

func TestMMRSelect_PenalizesNearDuplicates(t *testing.T) {
	// Candidate 2 nearly duplicates candidate 1; candidate 3 is orthogonal
	// with slightly lower relevance. A balanced lambda prefers 3.
	candidates := mmrCandidates(
		[][]float32{{1, 0}, {0.999, 0.001}, {0, 1}},
		[]float64{0.95, 0.94, 0.80},
	)

	selected := mmrSelect(candidates, 2, 0.5)
	assert.Equal(t, []core.ID{1, 3}, selectedIDs(selected))
}

func TestMMRSelect_KLargerThanCandidates(t *testing.T) {
	candidates := mmrCandidates(
		[][]float32{{1, 0}, {0, 1}},
		[]float64{0.9, 0.8},
	)

	selected := mmrSelect(candidates, 10, 0.7)
	assert.Len(t, selected, 2)
}

func TestMMRSelect_Empty(t *testing.T) {
	assert.Nil(t, mmrSelect(nil, 5, 0.7))
	assert.Nil(t, mmrSelect(mmrCandidates([][]float32{{1}}, []float64{1}), 0, 0.7))
}

func TestMMRSelect_Deterministic(t *testing.T) {
	candidates := mmrCandidates(
		[][]float32{{1, 0}, {0.7, 0.7}, {0, 1}, {0.5, 0.5}},
		[]float64{0.9, 0.85, 0.85, 0.7},
	)

	first := selectedIDs(mmrSelect(candidates, 3, 0.7))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, selectedIDs(mmrSelect(candidates, 3, 0.7)))
	}
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate input
	assert.Zero(t, cosine(nil, []float32{1}))
	assert.Zero(t, cosine([]float32{1, 0}, []float32{1}))
	assert.Zero(t, cosine([]float32{0, 0}, []float32{1, 0}))
}
