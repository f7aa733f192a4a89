package badger

import (
	"context"
	"time"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/dgraph-io/badger/v4"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &DocumentRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *DocumentRepository) Close() error {
	return r.idSeq.Release()
}

// AddDocument persists a new document, assigning an ID and timestamps.
func (r *DocumentRepository) AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if doc.Id == 0 {
			nextID, err := r.idSeq.Next()
			if err != nil {
				return err
			}
			// BadgerDB sequences can return 0 on first call, so we skip it
			if nextID == 0 {
				nextID, err = r.idSeq.Next()
				if err != nil {
					return err
				}
			}
			doc.Id = core.ID(nextID)
		}

		doc.CreatedAt = time.Now().UTC()
		doc.UpdatedAt = doc.CreatedAt

		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Workspace index for ListDocuments
		wsKey := makeDocumentWorkspaceKey(doc.WorkspaceId, doc.Id)
		if err := tx.Set(wsKey, storage.MarshalID(doc.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// GetDocument retrieves a document by ID. Soft-deleted documents are treated
// as missing.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var doc *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		doc, err = readDocument(tx, id)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if doc == nil || doc.Deleted() {
		return nil, storage.ErrNotFound
	}
	return doc, nil
}

// ListDocuments retrieves all live documents of a workspace via the
// workspace index.
func (r *DocumentRepository) ListDocuments(ctx context.Context, workspaceID core.ID) ([]*core.Document, error) {
	var docs []*core.Document

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentWorkspaceKey(workspaceID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			doc, err := readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc == nil || doc.Deleted() {
				continue
			}
			docs = append(docs, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// MutateDocument applies fn to the stored document in one transaction,
// retrying on commit conflict. The conflict retry re-reads the document, so
// fn observes the latest committed state on every attempt and status
// transitions behave as compare-and-set under concurrent workers.
func (r *DocumentRepository) MutateDocument(ctx context.Context, id core.ID, fn func(doc *core.Document) error) (*core.Document, error) {
	var result *core.Document

	err := r.backend.WithRetryTx(ctx, func(tx *badger.Txn) error {
		doc, err := readDocument(tx, id)
		if err != nil {
			return err
		}
		if doc == nil || doc.Deleted() {
			return storage.ErrNotFound
		}

		if err := fn(doc); err != nil {
			return err
		}

		doc.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}

		result = doc
		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SoftDeleteDocument marks a document deleted without removing the record.
func (r *DocumentRepository) SoftDeleteDocument(ctx context.Context, id core.ID) error {
	_, err := r.MutateDocument(ctx, id, func(doc *core.Document) error {
		doc.DeletedAt = time.Now().UTC()
		return nil
	})
	return err
}

// readDocument reads a document inside a transaction.
// Returns (nil, nil) when the key does not exist.
func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
