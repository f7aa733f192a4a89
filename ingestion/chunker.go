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


package ingestion

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/citewell/citewell/core"
)

const (
	// DefaultChunkSize is the default passage window in bytes.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the default overlap between consecutive passages.
	DefaultChunkOverlap = 200
)

// Passage is one window of extracted text with its byte offset retained for
// citation mapping.
type Passage struct {
	Index  int
	Offset int
	Text   string
}

// Chunker splits extracted text into overlapping fixed-size passages.
// The fixed window is deliberate: deterministic output, no sentence
// heuristics.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. Size must be positive and overlap must be
// smaller than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrValidation, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap must be in [0, size), got %d", core.ErrValidation, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split produces passages stepping size−overlap bytes at a time. Window
// edges are clamped back to rune starts so a multibyte character is never
// split across passages; a window too small to hold the next rune grows to
// include it. The final passage clamps to the end of the text. Empty or
// whitespace-only text yields no passages.
func (c *Chunker) Split(text string) []Passage {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	step := c.size - c.overlap
	var passages []Passage

	for start := 0; start < len(text); {
		end := start + c.size
		if end >= len(text) {
			passages = append(passages, Passage{
				Index:  len(passages),
				Offset: start,
				Text:   text[start:],
			})
			return passages
		}

		end = runeStart(text, end)
		if end <= start {
			_, n := utf8.DecodeRuneInString(text[start:])
			end = start + n
		}
		passages = append(passages, Passage{
			Index:  len(passages),
			Offset: start,
			Text:   text[start:end],
		})

		next := runeStart(text, start+step)
		if next <= start {
			next = end
		}
		start = next
	}

	return passages
}

// runeStart returns the largest rune-start index at or before i.
func runeStart(s string, i int) int {
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
