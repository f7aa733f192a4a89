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


package citewell

import (
	"context"
	"log/slog"

	"github.com/citewell/citewell/ai"
	"github.com/citewell/citewell/ai/openai"
	"github.com/citewell/citewell/answer"
	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/guard"
	"github.com/citewell/citewell/ingestion"
	"github.com/citewell/citewell/metrics"
	"github.com/citewell/citewell/search"
	"github.com/citewell/citewell/storage"
	"github.com/citewell/citewell/storage/badger"
)

// Library is the composition root: it opens the store, wires the AI
// provider behind the retry wrappers, and hands out the ingestion and query
// components.
type Library struct {
	backend       *badger.Backend
	documents     storage.DocumentRepository
	vectors       storage.VectorStore
	conversations storage.ConversationRepository
	queue         *badger.JobQueue
	blobs         storage.BlobStore
	provider      ai.Provider
	embedder      ai.Embedder
	chat          ai.ChatModel
	lifecycle     *ingestion.Lifecycle
	pipeline      *ingestion.Pipeline
	searcher      *search.Searcher
	detector      *guard.Detector
	answerer      *answer.Answerer
	sink          metrics.Sink
	logger        *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig     *ai.Config
	provider     ai.Provider
	sink         metrics.Sink
	guardMode    guard.Mode
	maxMessages  int
	inMemory     bool
	logger       *slog.Logger
	searcherOpts []search.Option
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(cfg *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI client.
// Intended for tests and embedded setups.
func WithProvider(provider ai.Provider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithMetricsSink sets the metrics sink shared by all components.
func WithMetricsSink(sink metrics.Sink) LibraryOption {
	return func(o *libraryOptions) {
		o.sink = metrics.OrNoop(sink)
	}
}

// WithGuardMode sets the prompt injection handling mode.
// Default is guard.ModeFlag.
func WithGuardMode(mode guard.Mode) LibraryOption {
	return func(o *libraryOptions) {
		o.guardMode = mode
	}
}

// WithMaxConversationMessages bounds stored conversation histories.
func WithMaxConversationMessages(max int) LibraryOption {
	return func(o *libraryOptions) {
		o.maxMessages = max
	}
}

// WithInMemoryStore keeps all state in memory. Intended for tests.
func WithInMemoryStore() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// WithLibraryLogger sets the logger components derive theirs from.
func WithLibraryLogger(logger *slog.Logger) LibraryOption {
	return func(o *libraryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSearchOptions forwards options to the searcher (MMR lambda, fetch
// bounds).
func WithSearchOptions(opts ...search.Option) LibraryOption {
	return func(o *libraryOptions) {
		o.searcherOpts = append(o.searcherOpts, opts...)
	}
}

// NewLibrary opens a knowledge base at filePath and wires every component.
func NewLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig:    ai.DefaultConfig(),
		sink:        metrics.Noop{},
		guardMode:   guard.ModeFlag,
		maxMessages: badger.DefaultMaxMessages,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documents, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	queue, err := badger.NewJobQueue(backend)
	if err != nil {
		documents.Close()
		backend.Close()
		return nil, err
	}

	vectors := badger.NewVectorStore(backend)
	blobs := badger.NewBlobStore(backend)
	conversations := badger.NewConversationRepository(backend, badger.WithMaxMessages(options.maxMessages))

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			queue.Close()
			documents.Close()
			backend.Close()
			return nil, err
		}
	}

	lib := &Library{
		backend:       backend,
		documents:     documents,
		vectors:       vectors,
		conversations: conversations,
		queue:         queue,
		blobs:         blobs,
		provider:      provider,
		sink:          options.sink,
		logger:        options.logger,
	}

	if err := lib.wire(options); err != nil {
		lib.Close()
		return nil, err
	}

	return lib, nil
}

// wire builds the processing and query components on top of the opened
// stores.
func (lib *Library) wire(options *libraryOptions) error {
	embedder, err := ai.NewResilientEmbedder(lib.provider.Embedder(), options.aiConfig, options.sink)
	if err != nil {
		return err
	}
	chat, err := ai.NewResilientChatModel(lib.provider.ChatModel(), options.aiConfig, options.sink)
	if err != nil {
		return err
	}
	lib.embedder = embedder
	lib.chat = chat

	lifecycle, err := ingestion.NewLifecycle(lib.documents, lib.blobs, lib.queue, options.logger)
	if err != nil {
		return err
	}
	lib.lifecycle = lifecycle

	pipeline, err := ingestion.NewPipeline(lifecycle, lib.blobs, lib.vectors,
		ingestion.NewPlainTextExtractor(), embedder,
		ingestion.WithMetrics(options.sink),
		ingestion.WithPipelineLogger(options.logger))
	if err != nil {
		return err
	}
	lib.pipeline = pipeline

	searcherOpts := append([]search.Option{
		search.WithMetrics(options.sink),
		search.WithLogger(options.logger),
	}, options.searcherOpts...)
	searcher, err := search.NewSearcher(lib.vectors, embedder, searcherOpts...)
	if err != nil {
		return err
	}
	lib.searcher = searcher

	detector, err := guard.NewDetector(
		guard.WithMode(options.guardMode),
		guard.WithMetrics(options.sink),
		guard.WithLogger(options.logger))
	if err != nil {
		return err
	}
	lib.detector = detector

	answerer, err := answer.NewAnswerer(searcher, detector, chat,
		answer.WithConversations(lib.conversations),
		answer.WithMetrics(options.sink),
		answer.WithLogger(options.logger))
	if err != nil {
		return err
	}
	lib.answerer = answerer

	return nil
}

// Close releases every component. The library should not be used afterward.
func (lib *Library) Close() error {
	if lib.provider != nil {
		if err := lib.provider.Close(); err != nil {
			lib.logger.Error("error closing AI provider", "err", err)
		}
	}
	if err := lib.conversations.Close(); err != nil {
		lib.logger.Error("error closing conversation repository", "err", err)
	}
	if err := lib.queue.Close(); err != nil {
		lib.logger.Error("error closing job queue", "err", err)
	}
	if err := lib.documents.Close(); err != nil {
		lib.logger.Error("error closing document repository", "err", err)
		return err
	}
	if err := lib.backend.Close(); err != nil {
		lib.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Upload stores content and queues it for processing.
func (lib *Library) Upload(ctx context.Context, workspaceID core.ID, title, mimeType string, content []byte) (*core.Document, error) {
	return lib.lifecycle.Upload(ctx, workspaceID, title, mimeType, content)
}

// Process runs one processing attempt for a document. Normally invoked by a
// Worker; exposed for external schedulers and one-shot runs.
func (lib *Library) Process(ctx context.Context, documentID core.ID) error {
	return lib.pipeline.Process(ctx, documentID)
}

// Reprocess re-queues a non-PROCESSING document.
func (lib *Library) Reprocess(ctx context.Context, documentID core.ID) (*core.Document, error) {
	return lib.lifecycle.Reprocess(ctx, documentID)
}

// Cancel aborts an in-flight processing attempt.
func (lib *Library) Cancel(ctx context.Context, documentID core.ID) (*core.Document, error) {
	return lib.lifecycle.Cancel(ctx, documentID)
}

// Status reports a document's processing state.
func (lib *Library) Status(ctx context.Context, documentID core.ID) (*ingestion.StatusReport, error) {
	return lib.lifecycle.Status(ctx, documentID)
}

// Documents lists a workspace's live documents.
func (lib *Library) Documents(ctx context.Context, workspaceID core.ID) ([]*core.Document, error) {
	return lib.documents.ListDocuments(ctx, workspaceID)
}

// DeleteDocument soft-deletes a document and removes its chunks.
func (lib *Library) DeleteDocument(ctx context.Context, workspaceID, documentID core.ID) error {
	if err := lib.documents.SoftDeleteDocument(ctx, documentID); err != nil {
		return err
	}
	return lib.vectors.DeleteDocumentChunks(ctx, workspaceID, documentID)
}

// Search retrieves workspace-scoped chunks for a query.
func (lib *Library) Search(ctx context.Context, query search.Query) ([]*core.ScoredChunk, error) {
	return lib.searcher.Search(ctx, query)
}

// Ask answers a question in one shot.
func (lib *Library) Ask(ctx context.Context, req answer.Request) (*answer.Answer, error) {
	return lib.answerer.Ask(ctx, req)
}

// AskStream answers a question as a stream of events.
func (lib *Library) AskStream(ctx context.Context, req answer.Request) <-chan answer.Event {
	return lib.answerer.AskStream(ctx, req)
}

// NewWorker creates a worker bound to this library's queue and pipeline.
func (lib *Library) NewWorker(opts ...ingestion.WorkerOption) (*ingestion.Worker, error) {
	return ingestion.NewWorker(lib.queue, lib.pipeline, opts...)
}

// Conversation retrieves a stored conversation.
func (lib *Library) Conversation(ctx context.Context, id core.ID) (*core.Conversation, error) {
	return lib.conversations.GetConversation(ctx, id)
}
