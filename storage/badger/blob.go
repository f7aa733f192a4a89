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


package badger

import (
	"context"
	"errors"

	"github.com/citewell/citewell/storage"
	"github.com/dgraph-io/badger/v4"
)

// BlobStore keeps raw document bytes in the same Badger database as the
// records that reference them. Keys are the storage keys recorded on
// core.Document.
type BlobStore struct {
	backend *Backend
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a new BlobStore.
func NewBlobStore(backend *Backend) *BlobStore {
	return &BlobStore{backend: backend}
}

// Upload stores content under the given storage key, overwriting any
// previous content.
func (b *BlobStore) Upload(ctx context.Context, storageKey string, content []byte) error {
	if storageKey == "" {
		return storage.ErrInvalidQuery
	}

	return b.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobKey(storageKey), content); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Download returns the content stored under the given storage key.
func (b *BlobStore) Download(ctx context.Context, storageKey string) ([]byte, error) {
	if storageKey == "" {
		return nil, storage.ErrInvalidQuery
	}

	var content []byte
	err := b.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(storageKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		content, err = item.ValueCopy(nil)
		return err
	}, false)
	if err != nil {
		return nil, err
	}

	return content, nil
}

// Delete removes the content stored under the given storage key. Deleting a
// missing key is not an error.
func (b *BlobStore) Delete(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return storage.ErrInvalidQuery
	}

	return b.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeBlobKey(storageKey)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
