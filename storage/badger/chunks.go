package badger

import (
	"context"
	"math"
	"slices"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/dgraph-io/badger/v4"
)

// VectorStore implements storage.VectorStore for BadgerDB.
//
// Chunks live under workspace-scoped keys, so similarity search is a prefix
// scan that physically cannot cross workspaces.
type VectorStore struct {
	backend *Backend
}

var _ storage.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates a new VectorStore.
func NewVectorStore(backend *Backend) *VectorStore {
	return &VectorStore{backend: backend}
}

// Close is a no-op; the store holds no resources beyond the shared backend.
func (s *VectorStore) Close() error {
	return nil
}

// Search scans the workspace's chunks and returns up to topK ordered by
// ascending cosine distance. Chunks without embeddings are skipped.
func (s *VectorStore) Search(ctx context.Context, workspaceID core.ID, vector []float32, topK int) ([]storage.ChunkDistance, error) {
	if workspaceID == 0 || len(vector) == 0 || topK <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []storage.ChunkDistance

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkWorkspaceKey(workspaceID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || len(chunk.Vector) == 0 {
				continue
			}

			results = append(results, storage.ChunkDistance{
				Chunk:    chunk,
				Distance: cosineDistance(vector, chunk.Vector),
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by distance ascending; ties broken by chunk ID for determinism.
	slices.SortFunc(results, func(a, b storage.ChunkDistance) int {
		if a.Distance < b.Distance {
			return -1
		}
		if a.Distance > b.Distance {
			return 1
		}
		if a.Chunk.Id < b.Chunk.Id {
			return -1
		}
		if a.Chunk.Id > b.Chunk.Id {
			return 1
		}
		return 0
	})

	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}

// ReplaceDocumentChunks replaces the document's chunk set in one transaction:
// delete-then-insert, so a concurrent search sees either the old set or the
// new one, never a mix.
func (s *VectorStore) ReplaceDocumentChunks(ctx context.Context, workspaceID, documentID core.ID, chunks []*core.Chunk) error {
	if workspaceID == 0 || documentID == 0 {
		return storage.ErrInvalidQuery
	}

	return s.backend.WithRetryTx(ctx, func(tx *badger.Txn) error {
		if err := deleteChunksInTx(tx, workspaceID, documentID); err != nil {
			return err
		}
		for _, chunk := range chunks {
			key := makeChunkKey(workspaceID, documentID, chunk.Id)
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// DeleteDocumentChunks removes all chunks of a document.
func (s *VectorStore) DeleteDocumentChunks(ctx context.Context, workspaceID, documentID core.ID) error {
	return s.backend.WithRetryTx(ctx, func(tx *badger.Txn) error {
		if err := deleteChunksInTx(tx, workspaceID, documentID); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// CountDocumentChunks reports the size of a document's current chunk set.
func (s *VectorStore) CountDocumentChunks(ctx context.Context, workspaceID, documentID core.ID) (int, error) {
	count := 0
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialChunkDocumentKey(workspaceID, documentID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func deleteChunksInTx(tx *badger.Txn, workspaceID, documentID core.ID) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makePartialChunkDocumentKey(workspaceID, documentID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// cosineDistance computes 1 - cosine similarity. Zero-magnitude vectors are
// treated as maximally distant.
func cosineDistance(a, b []float32) float32 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return float32(1 - dot/(math.Sqrt(na)*math.Sqrt(nb)))
}
