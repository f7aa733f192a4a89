package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/citewell/citewell/core"
)

// Key prefixes for different data types
const (
	documentPrefix          = "docrec"
	documentWorkspacePrefix = "docws"
	documentIDSeq           = "docrecseq"
	chunkPrefix             = "chkrec"
	conversationPrefix      = "convrec"
	jobPrefix               = "jobrec"
	jobIDSeq                = "jobrecseq"
	blobPrefix              = "blobrec"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentWorkspaceKey generates a composite key for the workspace index.
// Format: prefix:workspaceID:documentID
func makeDocumentWorkspaceKey(workspaceID, documentID core.ID) []byte {
	return appendIDs([]byte(documentWorkspacePrefix+":"), workspaceID, documentID)
}

// makePartialDocumentWorkspaceKey generates a scan prefix for all documents
// of a workspace.
func makePartialDocumentWorkspaceKey(workspaceID core.ID) []byte {
	return appendIDs([]byte(documentWorkspacePrefix+":"), workspaceID)
}

// makeChunkKey generates a composite key for a chunk.
// Format: prefix:workspaceID:documentID:chunkID
func makeChunkKey(workspaceID, documentID, chunkID core.ID) []byte {
	return appendIDs([]byte(chunkPrefix+":"), workspaceID, documentID, chunkID)
}

// makePartialChunkWorkspaceKey generates a scan prefix for all chunks of a
// workspace.
func makePartialChunkWorkspaceKey(workspaceID core.ID) []byte {
	return appendIDs([]byte(chunkPrefix+":"), workspaceID)
}

// makePartialChunkDocumentKey generates a scan prefix for all chunks of a
// document.
func makePartialChunkDocumentKey(workspaceID, documentID core.ID) []byte {
	return appendIDs([]byte(chunkPrefix+":"), workspaceID, documentID)
}

// makeConversationKey generates a key for a conversation by ID.
func makeConversationKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conversationPrefix, id))
}

// makeJobKey generates a key for a queued job by sequence number.
// Sequence numbers are written BigEndian so lexicographic iteration yields
// FIFO order.
func makeJobKey(seq uint64) []byte {
	prefix := []byte(jobPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeBlobKey generates a key for uploaded bytes by storage key.
func makeBlobKey(storageKey string) []byte {
	return []byte(blobPrefix + ":" + storageKey)
}

// appendIDs appends BigEndian-encoded IDs to a key prefix so lexicographic
// sort matches numeric order.
func appendIDs(prefix []byte, ids ...core.ID) []byte {
	buf := make([]byte, len(prefix)+8*len(ids))
	offset := copy(buf, prefix)
	for _, id := range ids {
		binary.BigEndian.PutUint64(buf[offset:], uint64(id))
		offset += 8
	}
	return buf
}
