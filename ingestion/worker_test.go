package ingestion

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingQueue is an empty queue that records Release calls.
type trackingQueue struct {
	released atomic.Int64
}

func (*trackingQueue) Enqueue(context.Context, core.Job) error { return nil }

func (*trackingQueue) Dequeue(context.Context, int) ([]storage.QueuedJob, error) { return nil, nil }

func (q *trackingQueue) Release() { q.released.Add(1) }

func (*trackingQueue) Close() error { return nil }

func TestWorker_CloseReleasesInflightJobs(t *testing.T) {
	env := newTestEnv(t)
	queue := &trackingQueue{}

	worker, err := NewWorker(queue, env.pipeline)
	require.NoError(t, err)

	worker.Close()
	assert.Equal(t, int64(1), queue.released.Load())
}
