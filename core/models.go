package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DocumentStatus tracks a document through the ingestion lifecycle.
type DocumentStatus int

const (
	// StatusPending means the document is uploaded and waiting for a worker.
	StatusPending DocumentStatus = iota + 1
	// StatusProcessing means a worker has claimed the document.
	StatusProcessing
	// StatusReady means ingestion completed and the document is searchable.
	StatusReady
	// StatusFailed means ingestion failed; ErrorMessage holds the reason.
	StatusFailed
)

// String returns the lowercase status name used in logs and CLI output.
func (s DocumentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusProcessing:
		return "processing"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is an end state of a processing attempt.
func (s DocumentStatus) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Document represents an uploaded source document owned by a workspace.
// A document exclusively owns its chunks: deleting or soft-deleting the
// document removes them as well.
type Document struct {
	Id            ID
	WorkspaceId   ID
	Title         string
	Status        DocumentStatus
	StorageKey    string
	MimeType      string
	ErrorMessage  string // Truncated failure reason, set only when Status is failed
	ChunksCreated int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     time.Time // Zero value means the document is live
}

// Deleted reports whether the document has been soft-deleted.
func (d *Document) Deleted() bool {
	return !d.DeletedAt.IsZero()
}

// Chunk is a bounded passage of a document paired with its embedding vector.
// Chunks are immutable once written; reprocessing replaces the whole set.
type Chunk struct {
	Id          ID
	DocumentId  ID
	WorkspaceId ID
	Index       int // Position of the chunk within its document
	Offset      int // Byte offset of Content within the extracted text
	Content     string
	Vector      []float32
	Metadata    map[string]string
}

// ScoredChunk is a chunk returned from similarity search together with its
// ephemeral relevance score. The score is never persisted.
type ScoredChunk struct {
	Chunk      *Chunk
	Similarity float32
}

// MessageRole identifies the author of a conversation message.
type MessageRole int

const (
	// RoleUser represents the human asking questions.
	RoleUser MessageRole = iota + 1
	// RoleAssistant represents generated answers.
	RoleAssistant
)

// MessageStatus records how an assistant message ended.
type MessageStatus int

const (
	// MessageComplete means generation finished normally.
	MessageComplete MessageStatus = iota + 1
	// MessageCancelled means the caller aborted mid-generation; Content holds
	// whatever tokens were emitted before the abort.
	MessageCancelled
	// MessageErrored means generation failed before completing.
	MessageErrored
)

// Message is a single entry in a conversation.
type Message struct {
	Role      MessageRole
	Content   string
	Status    MessageStatus
	CreatedAt time.Time
}

// Conversation is a bounded, append-only message history scoped to a
// workspace. Oldest messages are evicted beyond the configured maximum.
type Conversation struct {
	Id          ID
	WorkspaceId ID
	Messages    []Message
	UpdatedAt   time.Time
}

// Job is a queued ingestion request. Delivery is at-least-once; the document
// status machine turns duplicates into no-ops.
type Job struct {
	DocumentId  ID
	WorkspaceId ID
	EnqueuedAt  time.Time
}

// RiskAssessment is the injection-risk verdict for a piece of untrusted text.
// It is computed at read time and never persisted with the chunk.
type RiskAssessment struct {
	Score   float32  // Risk in [0,1]; higher means more instruction-like
	Flags   []string // Names of the heuristics that fired
	Flagged bool     // True when Score crossed the detector threshold
}
