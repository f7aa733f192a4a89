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


package answer

import (
	"fmt"
	"strings"

	"github.com/citewell/citewell/core"
)

// DefaultMaxContextChars bounds the rendered context block handed to the
// model.
const DefaultMaxContextChars = 8000

// Source maps a citation marker in the context block back to the chunk it
// renders.
type Source struct {
	Marker     string
	ChunkId    core.ID
	DocumentId core.ID
	Offset     int
	Similarity float32
}

// Context is a citation-annotated context block plus the marker-to-chunk map
// for the caller's sources payload.
type Context struct {
	Text    string
	Sources []Source
}

// ContextBuilder packs ranked chunks into a bounded context block. Chunks
// are taken whole in rank order; the first chunk that would push the block
// past the limit stops the packing, so every marker always cites a complete
// passage.
type ContextBuilder struct {
	maxChars int
}

// NewContextBuilder creates a ContextBuilder with the given character limit.
func NewContextBuilder(maxChars int) (*ContextBuilder, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max context chars must be positive, got %d", core.ErrValidation, maxChars)
	}
	return &ContextBuilder{maxChars: maxChars}, nil
}

// Build renders chunks as "[S#] content" entries in rank order. Every marker
// in the output has exactly one entry in Sources and vice versa.
func (b *ContextBuilder) Build(chunks []*core.ScoredChunk) *Context {
	var sb strings.Builder
	var sources []Source

	for _, scored := range chunks {
		marker := fmt.Sprintf("[S%d]", len(sources)+1)
		entry := marker + " " + scored.Chunk.Content

		needed := len(entry)
		if sb.Len() > 0 {
			needed += 2 // separating blank line
		}
		if sb.Len()+needed > b.maxChars {
			break
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(entry)

		sources = append(sources, Source{
			Marker:     marker,
			ChunkId:    scored.Chunk.Id,
			DocumentId: scored.Chunk.DocumentId,
			Offset:     scored.Chunk.Offset,
			Similarity: scored.Similarity,
		})
	}

	return &Context{
		Text:    sb.String(),
		Sources: sources,
	}
}
