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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/citewell/citewell/ai"
	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/metrics"
	"github.com/citewell/citewell/storage"
)

// Pipeline runs one processing attempt per document: download, extract,
// chunk, embed, persist. It owns no scheduling; the Worker (or any external
// scheduler) decides when Process is called.
type Pipeline struct {
	lifecycle *Lifecycle
	blobs     storage.BlobStore
	vectors   storage.VectorStore
	extractor storage.Extractor
	embedder  ai.Embedder
	chunker   *Chunker
	sink      metrics.Sink
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithChunker overrides the default chunker.
func WithChunker(chunker *Chunker) PipelineOption {
	return func(p *Pipeline) error {
		if chunker == nil {
			return fmt.Errorf("%w: chunker must not be nil", core.ErrValidation)
		}
		p.chunker = chunker
		return nil
	}
}

// WithMetrics sets the metrics sink. Default is a no-op sink.
func WithMetrics(sink metrics.Sink) PipelineOption {
	return func(p *Pipeline) error {
		p.sink = metrics.OrNoop(sink)
		return nil
	}
}

// WithPipelineLogger sets a custom logger. Default is slog.Default().
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "pipeline")
		return nil
	}
}

// NewPipeline creates a processing pipeline.
func NewPipeline(
	lifecycle *Lifecycle,
	blobs storage.BlobStore,
	vectors storage.VectorStore,
	extractor storage.Extractor,
	embedder ai.Embedder,
	opts ...PipelineOption,
) (*Pipeline, error) {
	if lifecycle == nil {
		return nil, ErrLifecycleRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if vectors == nil {
		return nil, ErrVectorStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	chunker, err := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		lifecycle: lifecycle,
		blobs:     blobs,
		vectors:   vectors,
		extractor: extractor,
		embedder:  embedder,
		chunker:   chunker,
		sink:      metrics.Noop{},
		logger:    slog.Default().With("component", "pipeline"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			return nil, optErr
		}
	}

	return p, nil
}

// Process runs one full processing attempt for the document. Duplicate
// deliveries no-op against the status machine. Any error or panic inside the
// attempt body forces the document to FAILED; Process itself only returns an
// error for infrastructure failures around the attempt (claim or final
// transition could not be recorded).
func (p *Pipeline) Process(ctx context.Context, documentID core.ID) error {
	doc, claimed, err := p.lifecycle.BeginProcessing(ctx, documentID)
	if err != nil {
		return err
	}
	if !claimed {
		p.logger.Debug("duplicate delivery, document not claimable", "document", documentID, "status", doc.Status)
		return nil
	}

	chunksCreated, attemptErr := p.attempt(ctx, doc)
	if attemptErr != nil {
		p.sink.Count(ctx, metrics.DocumentsFailed, 1)
		p.logger.Warn("processing attempt failed", "document", documentID, "err", attemptErr)

		_, failErr := p.lifecycle.Fail(ctx, documentID, attemptErr.Error())
		if failErr != nil && !errors.Is(failErr, core.ErrConflict) {
			// Cancelled mid-attempt is fine; anything else means the
			// document may be stuck PROCESSING.
			return failErr
		}
		return nil
	}

	_, err = p.lifecycle.Succeed(ctx, documentID, chunksCreated)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			p.logger.Info("document no longer processing, result discarded", "document", documentID)
			return nil
		}
		return err
	}

	p.sink.Count(ctx, metrics.DocumentsProcessed, 1)
	p.sink.Count(ctx, metrics.ChunksWritten, int64(chunksCreated))
	p.logger.Info("document processed", "document", documentID, "chunks", chunksCreated)
	return nil
}

// attempt is the single failure boundary of a processing attempt. Panics are
// converted into errors here so a bad document can never leave the state
// machine stuck in PROCESSING.
func (p *Pipeline) attempt(ctx context.Context, doc *core.Document) (chunksCreated int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing panicked: %v", r)
		}
	}()

	content, err := p.blobs.Download(ctx, doc.StorageKey)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}

	text, err := p.extractor.Extract(doc.MimeType, content)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	passages := p.chunker.Split(text)
	if len(passages) == 0 {
		// Nothing to embed; an empty replacement still clears stale chunks
		// from a previous attempt.
		if err := p.vectors.ReplaceDocumentChunks(ctx, doc.WorkspaceId, doc.Id, nil); err != nil {
			return 0, fmt.Errorf("replace chunks: %w", err)
		}
		return 0, nil
	}

	texts := make([]string, len(passages))
	for i, passage := range passages {
		texts[i] = passage.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(passages) {
		return 0, fmt.Errorf("%w: %d embeddings for %d passages", core.ErrDataIntegrity, len(vectors), len(passages))
	}

	chunks := make([]*core.Chunk, len(passages))
	for i, passage := range passages {
		chunks[i] = &core.Chunk{
			Id:          chunkID(doc.Id, passage),
			DocumentId:  doc.Id,
			WorkspaceId: doc.WorkspaceId,
			Index:       passage.Index,
			Offset:      passage.Offset,
			Content:     passage.Text,
			Vector:      vectors[i],
		}
	}

	if err := p.vectors.ReplaceDocumentChunks(ctx, doc.WorkspaceId, doc.Id, chunks); err != nil {
		return 0, fmt.Errorf("replace chunks: %w", err)
	}

	return len(chunks), nil
}

// chunkID derives a stable content-addressed chunk ID, so reprocessing an
// unchanged document produces identical IDs.
func chunkID(documentID core.ID, passage Passage) core.ID {
	return core.IDFromContent(fmt.Sprintf("%d:%d:%s", documentID, passage.Index, passage.Text))
}
