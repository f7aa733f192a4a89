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
	"time"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
)

// CancelledReason is the error message recorded when processing is cancelled.
const CancelledReason = "cancelled"

// errNoTransition signals from inside a mutation that the document is already
// past the requested transition. The mutation is abandoned without a write.
var errNoTransition = errors.New("no transition")

// Lifecycle owns the document status state machine. Every transition goes
// through the repository's atomic read-modify-write, so concurrent workers
// race on commit, not on stale reads.
type Lifecycle struct {
	documents storage.DocumentRepository
	blobs     storage.BlobStore
	queue     storage.JobQueue
	logger    *slog.Logger
}

// NewLifecycle creates a Lifecycle.
func NewLifecycle(documents storage.DocumentRepository, blobs storage.BlobStore, queue storage.JobQueue, logger *slog.Logger) (*Lifecycle, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if queue == nil {
		return nil, ErrJobQueueRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Lifecycle{
		documents: documents,
		blobs:     blobs,
		queue:     queue,
		logger:    logger.With("component", "lifecycle"),
	}, nil
}

// Upload stores the raw content, creates a PENDING document, and enqueues a
// processing job. If the enqueue fails the document is immediately failed so
// no PENDING record is left without queued work.
func (l *Lifecycle) Upload(ctx context.Context, workspaceID core.ID, title, mimeType string, content []byte) (*core.Document, error) {
	if workspaceID == 0 {
		return nil, fmt.Errorf("%w: workspace id is required", core.ErrValidation)
	}

	storageKey := fmt.Sprintf("ws%d/%016x", workspaceID, uint64(core.IDFromContent(string(content))))
	if err := l.blobs.Upload(ctx, storageKey, content); err != nil {
		return nil, err
	}

	doc, err := l.documents.AddDocument(ctx, &core.Document{
		WorkspaceId: workspaceID,
		Title:       title,
		Status:      core.StatusPending,
		StorageKey:  storageKey,
		MimeType:    mimeType,
	})
	if err != nil {
		return nil, err
	}

	if err := l.enqueue(ctx, doc); err != nil {
		return nil, err
	}

	l.logger.Info("document uploaded", "document", doc.Id, "workspace", workspaceID, "title", title)
	return doc, nil
}

// BeginProcessing claims the document for a worker: a compare-and-set from
// PENDING or FAILED to PROCESSING. A document already PROCESSING or READY is
// a duplicate delivery; the call is a no-op reporting claimed=false with the
// current state. This is what makes at-least-once delivery effectively-once.
func (l *Lifecycle) BeginProcessing(ctx context.Context, id core.ID) (doc *core.Document, claimed bool, err error) {
	doc, err = l.documents.MutateDocument(ctx, id, func(d *core.Document) error {
		switch d.Status {
		case core.StatusPending, core.StatusFailed:
			d.Status = core.StatusProcessing
			d.ErrorMessage = ""
			return nil
		default:
			return errNoTransition
		}
	})
	if errors.Is(err, errNoTransition) {
		doc, err = l.documents.GetDocument(ctx, id)
		return doc, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Succeed completes a processing attempt: PROCESSING to READY with the chunk
// count recorded. Any other current status is a conflict.
func (l *Lifecycle) Succeed(ctx context.Context, id core.ID, chunksCreated int) (*core.Document, error) {
	return l.documents.MutateDocument(ctx, id, func(d *core.Document) error {
		if d.Status != core.StatusProcessing {
			return fmt.Errorf("%w: cannot succeed document in status %s", core.ErrConflict, d.Status)
		}
		d.Status = core.StatusReady
		d.ChunksCreated = chunksCreated
		d.ErrorMessage = ""
		return nil
	})
}

// Fail moves any non-terminal document to FAILED with a truncated message.
// Failing an already terminal document is a conflict.
func (l *Lifecycle) Fail(ctx context.Context, id core.ID, message string) (*core.Document, error) {
	return l.documents.MutateDocument(ctx, id, func(d *core.Document) error {
		if d.Status.Terminal() {
			return fmt.Errorf("%w: cannot fail document in status %s", core.ErrConflict, d.Status)
		}
		d.Status = core.StatusFailed
		d.ErrorMessage = core.TruncateErrorMessage(message)
		return nil
	})
}

// Cancel aborts an in-flight processing attempt. Only a PROCESSING document
// can be cancelled; anything else is a conflict.
func (l *Lifecycle) Cancel(ctx context.Context, id core.ID) (*core.Document, error) {
	doc, err := l.documents.MutateDocument(ctx, id, func(d *core.Document) error {
		if d.Status != core.StatusProcessing {
			return fmt.Errorf("%w: cannot cancel document in status %s", core.ErrConflict, d.Status)
		}
		d.Status = core.StatusFailed
		d.ErrorMessage = CancelledReason
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("document cancelled", "document", id)
	return doc, nil
}

// Reprocess resets a non-PROCESSING document to PENDING and enqueues a new
// job. If the enqueue fails the document is forced to FAILED so it is never
// stuck PENDING with no queued work.
func (l *Lifecycle) Reprocess(ctx context.Context, id core.ID) (*core.Document, error) {
	doc, err := l.documents.MutateDocument(ctx, id, func(d *core.Document) error {
		if d.Status == core.StatusProcessing {
			return fmt.Errorf("%w: cannot reprocess document while processing", core.ErrConflict)
		}
		d.Status = core.StatusPending
		d.ErrorMessage = ""
		d.ChunksCreated = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := l.enqueue(ctx, doc); err != nil {
		return nil, err
	}

	l.logger.Info("document requeued", "document", id)
	return doc, nil
}

// StatusReport is the polling view of a document.
type StatusReport struct {
	Status        core.DocumentStatus
	ErrorMessage  string
	ChunksCreated int
	IsReady       bool
}

// Status reports the current processing state of a document.
func (l *Lifecycle) Status(ctx context.Context, id core.ID) (*StatusReport, error) {
	doc, err := l.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Status:        doc.Status,
		ChunksCreated: doc.ChunksCreated,
		IsReady:       doc.Status == core.StatusReady,
	}
	if doc.Status == core.StatusFailed {
		report.ErrorMessage = doc.ErrorMessage
	}
	return report, nil
}

// enqueue submits a processing job for a PENDING document, forcing the
// document to FAILED when the queue rejects it.
func (l *Lifecycle) enqueue(ctx context.Context, doc *core.Document) error {
	err := l.queue.Enqueue(ctx, core.Job{
		DocumentId:  doc.Id,
		WorkspaceId: doc.WorkspaceId,
		EnqueuedAt:  time.Now().UTC(),
	})
	if err == nil {
		return nil
	}

	l.logger.Error("enqueue failed, failing document", "document", doc.Id, "err", err)
	if _, failErr := l.Fail(ctx, doc.Id, "enqueue failed: "+err.Error()); failErr != nil {
		l.logger.Error("could not fail document after enqueue error", "document", doc.Id, "err", failErr)
	}
	return fmt.Errorf("%w: enqueue failed: %s", core.ErrServiceUnavailable, err)
}
