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
	"sync"
	"time"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/dgraph-io/badger/v4"
)

// JobQueue implements storage.JobQueue on BadgerDB.
//
// Jobs are written under monotonically increasing sequence keys and scanned
// in FIFO order. A job stays in the database until acked, so delivery is
// at-least-once across restarts; an in-memory in-flight set prevents the
// same process from dequeuing a job twice while it is being worked.
type JobQueue struct {
	backend *Backend
	seq     *badger.Sequence

	mu       sync.Mutex
	inflight map[string]struct{}
}

var _ storage.JobQueue = (*JobQueue)(nil)

// NewJobQueue creates a new JobQueue.
func NewJobQueue(backend *Backend) (*JobQueue, error) {
	seq, err := backend.GetSequence(jobIDSeq)
	if err != nil {
		return nil, err
	}

	return &JobQueue{
		backend:  backend,
		seq:      seq,
		inflight: make(map[string]struct{}),
	}, nil
}

// Close releases the sequence.
func (q *JobQueue) Close() error {
	return q.seq.Release()
}

// Enqueue appends a job to the queue.
func (q *JobQueue) Enqueue(ctx context.Context, job core.Job) error {
	if job.DocumentId == 0 || job.WorkspaceId == 0 {
		return storage.ErrInvalidQuery
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	seq, err := q.seq.Next()
	if err != nil {
		return err
	}

	return q.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeJobKey(seq), storage.MarshalJob(&job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Dequeue returns up to max jobs that are not currently in flight, oldest
// first. Each returned job carries an Ack that deletes it; unacked jobs are
// redelivered after Release or a restart.
func (q *JobQueue) Dequeue(ctx context.Context, max int) ([]storage.QueuedJob, error) {
	if max <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var out []storage.QueuedJob

	err := q.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(jobPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid() && len(out) < max; iter.Next() {
			key := iter.Item().KeyCopy(nil)
			if !q.claim(key) {
				continue
			}

			var job *core.Job
			err := iter.Item().Value(func(val []byte) error {
				var err error
				job, err = storage.UnmarshalJob(val)
				return err
			})
			if err != nil {
				q.release(key)
				return err
			}

			out = append(out, storage.QueuedJob{
				Job:     *job,
				Ack:     q.ackFunc(key),
				Release: func() { q.release(key) },
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Release returns all unacked in-flight jobs to the dequeueable set. Used
// when a worker shuts down without finishing its batch.
func (q *JobQueue) Release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight = make(map[string]struct{})
}

func (q *JobQueue) claim(key []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, taken := q.inflight[string(key)]; taken {
		return false
	}
	q.inflight[string(key)] = struct{}{}
	return true
}

func (q *JobQueue) release(key []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, string(key))
}

func (q *JobQueue) ackFunc(key []byte) func() error {
	return func() error {
		defer q.release(key)
		return q.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Delete(key); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
	}
}
