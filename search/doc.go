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


// Package search provides workspace-scoped retrieval over embedded chunks.
//
// The Searcher embeds a query, runs a cosine-distance search against the
// vector store, and reports similarity as 1 − distance. In MMR mode it
// over-fetches candidates and greedily re-ranks them with maximal marginal
// relevance, trading relevance against diversity so near-duplicate passages
// do not crowd out distinct ones.
package search
