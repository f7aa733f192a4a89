package storage

import (
	"context"

	"github.com/citewell/citewell/core"
)

// DocumentRepository provides operations for managing document records.
// Implementations must be thread-safe and support concurrent access.
type DocumentRepository interface {
	// AddDocument persists a new document. For documents with ID=0, generates
	// a new ID from sequence and sets CreatedAt/UpdatedAt timestamps.
	// Returns the document with generated fields populated.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist or is soft-deleted.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all live documents in a workspace.
	ListDocuments(ctx context.Context, workspaceID core.ID) ([]*core.Document, error)

	// MutateDocument applies fn to the stored document atomically: the read,
	// the mutation, and the write happen in one transaction, retried on
	// commit conflict. This is the primitive status transitions are built on.
	// If fn returns an error the document is left unchanged and the error is
	// returned verbatim. Returns ErrNotFound for missing or soft-deleted
	// documents.
	MutateDocument(ctx context.Context, id core.ID, fn func(doc *core.Document) error) (*core.Document, error)

	// SoftDeleteDocument marks a document deleted. The caller is responsible
	// for removing its chunks (the document exclusively owns them).
	SoftDeleteDocument(ctx context.Context, id core.ID) error

	// Close releases repository resources.
	Close() error
}

// ChunkDistance pairs a chunk with its cosine distance from a query vector.
// Smaller distance means more similar.
type ChunkDistance struct {
	Chunk    *core.Chunk
	Distance float32
}

// VectorStore persists chunks and serves workspace-scoped similarity search.
// It is the core's only chunk content/metadata persistence dependency.
type VectorStore interface {
	// Search returns up to topK chunks of the workspace ordered by ascending
	// cosine distance to the vector. Results never cross workspaces.
	Search(ctx context.Context, workspaceID core.ID, vector []float32, topK int) ([]ChunkDistance, error)

	// ReplaceDocumentChunks atomically replaces the full chunk set of a
	// document: the delete of the old set and the insert of the new one are
	// one unit, so a concurrent search never observes a partial set.
	ReplaceDocumentChunks(ctx context.Context, workspaceID, documentID core.ID, chunks []*core.Chunk) error

	// DeleteDocumentChunks removes all chunks of a document.
	DeleteDocumentChunks(ctx context.Context, workspaceID, documentID core.ID) error

	// CountDocumentChunks reports how many chunks a document currently has.
	CountDocumentChunks(ctx context.Context, workspaceID, documentID core.ID) (int, error)

	// Close releases store resources.
	Close() error
}

// ConversationRepository persists bounded conversation histories.
// A conversation has a single logical writer; implementations protect
// against concurrent misuse but do not order concurrent appends.
type ConversationRepository interface {
	// AppendMessages appends to the conversation, creating it on first use.
	// When the history exceeds the repository's configured maximum, the
	// oldest messages are evicted. Returns the conversation after the append.
	AppendMessages(ctx context.Context, conversationID, workspaceID core.ID, msgs ...core.Message) (*core.Conversation, error)

	// GetConversation retrieves a conversation by ID.
	// Returns ErrNotFound if it doesn't exist.
	GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error)

	// Close releases repository resources.
	Close() error
}

// QueuedJob is a dequeued ingestion job together with its acknowledgement.
type QueuedJob struct {
	Job core.Job

	// Ack removes the job from the queue. Delivery is at-least-once: a job
	// processed but not acked (crash, error) will be delivered again.
	Ack func() error

	// Release returns the job to the dequeueable set without removing it,
	// so a later Dequeue redelivers it. Called instead of Ack when a
	// processing attempt hits a transient failure.
	Release func()
}

// JobQueue is a durable at-least-once queue of ingestion jobs.
type JobQueue interface {
	// Enqueue adds a job. Enqueue failure is fatal to the caller's PENDING
	// transition: the document must be failed rather than left orphaned.
	Enqueue(ctx context.Context, job core.Job) error

	// Dequeue returns up to max jobs not currently in flight. It does not
	// block; an empty slice means the queue is drained.
	Dequeue(ctx context.Context, max int) ([]QueuedJob, error)

	// Release returns every unacked in-flight job to the dequeueable set.
	// Used when a worker shuts down without finishing its batch.
	Release()

	// Close releases queue resources.
	Close() error
}

// Extractor turns raw document bytes into plain text for chunking.
// An extraction error fails the document's processing attempt.
type Extractor interface {
	// Extract returns the text content of the document.
	Extract(mimeType string, data []byte) (string, error)
}

// BlobStore stores raw uploaded document bytes.
type BlobStore interface {
	// Download retrieves the bytes stored under key.
	// Returns ErrNotFound if the key doesn't exist.
	Download(ctx context.Context, key string) ([]byte, error)

	// Upload stores bytes under key, overwriting any previous value.
	Upload(ctx context.Context, key string, data []byte) error

	// Delete removes the bytes stored under key.
	Delete(ctx context.Context, key string) error
}
