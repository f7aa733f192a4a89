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


// Package storage provides the storage abstraction layer for citewell.
//
// This package defines repository interfaces that decouple storage
// implementation from business logic. It allows for different storage
// backends (BadgerDB, in-memory, etc.) to be used interchangeably:
//
//   - DocumentRepository: document records and atomic status mutation
//   - VectorStore: workspace-scoped chunk persistence and similarity search
//   - ConversationRepository: bounded conversation histories
//   - JobQueue: durable at-least-once ingestion jobs
//   - BlobStore: raw uploaded bytes
//
// Public constructors in backend packages return these interfaces (not
// concrete types) to enforce abstraction and keep consumers swappable.
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. All methods accept context.Context for
// cancellation support.
package storage
