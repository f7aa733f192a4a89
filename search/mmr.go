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
	"math"

	"github.com/citewell/citewell/core"
)

// candidate is one retrieved chunk inside the MMR selection. Rank is the
// chunk's position in the original relevance ordering, used for
// deterministic tie-breaking.
type candidate struct {
	Chunk     *core.Chunk
	Relevance float64
	Rank      int
}

// cosine returns the cosine similarity of two vectors, 0 for degenerate
// input.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// mmrSelect greedily picks up to k candidates maximizing
//
//	lambda·relevance − (1−lambda)·maxSimilarityToSelected
//
// Candidates must arrive ordered by descending relevance. lambda=1 reduces to
// plain top-k; lambda=0 maximizes diversity. Ties fall back to original rank,
// then chunk ID, so output is deterministic.
func mmrSelect(candidates []candidate, k int, lambda float64) []candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	selected := make([]candidate, 0, k)
	used := make([]bool, len(candidates))

	// The most relevant candidate always wins the first slot
	selected = append(selected, candidates[0])
	used[0] = true

	for len(selected) < k {
		bestIdx := -1
		bestVal := math.Inf(-1)

		for i, cand := range candidates {
			if used[i] {
				continue
			}

			maxSim := 0.0
			for _, sel := range selected {
				if sim := cosine(cand.Chunk.Vector, sel.Chunk.Vector); sim > maxSim {
					maxSim = sim
				}
			}

			// Strict > keeps the earliest candidate on ties, which is the
			// original relevance rank order.
			val := lambda*cand.Relevance - (1-lambda)*maxSim
			if val > bestVal {
				bestVal = val
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, candidates[bestIdx])
	}

	return selected
}
