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
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/panjf2000/ants/v2"
)

const defaultPollInterval = 500 * time.Millisecond

// Worker drains the job queue onto a bounded pool running Pipeline.Process.
// At-least-once delivery is safe here: a redelivered job finds the document
// already PROCESSING or READY and no-ops.
type Worker struct {
	queue    storage.JobQueue
	pipeline *Pipeline
	pool     *ants.Pool
	interval time.Duration
	logger   *slog.Logger

	wg   sync.WaitGroup
	stop chan struct{}
	once sync.Once
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) WorkerOption {
	return func(w *Worker) error {
		if size < 1 {
			size = 1
		}
		if w.pool != nil {
			w.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		w.pool = pool
		return nil
	}
}

// WithPollInterval sets how often the queue is polled when drained.
func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *Worker) error {
		if interval > 0 {
			w.interval = interval
		}
		return nil
	}
}

// WithWorkerLogger sets a custom logger. Default is slog.Default().
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) error {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger.With("component", "worker")
		return nil
	}
}

// NewWorker creates a Worker.
func NewWorker(queue storage.JobQueue, pipeline *Pipeline, opts ...WorkerOption) (*Worker, error) {
	if queue == nil {
		return nil, ErrJobQueueRequired
	}
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		queue:    queue,
		pipeline: pipeline,
		pool:     pool,
		interval: defaultPollInterval,
		logger:   slog.Default().With("component", "worker"),
		stop:     make(chan struct{}),
	}

	for _, opt := range opts {
		if optErr := opt(w); optErr != nil {
			w.pool.Release()
			return nil, optErr
		}
	}

	return w, nil
}

// Start launches the polling loop. It returns immediately; processing
// continues until ctx is cancelled or Close is called.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			w.drain(ctx)
			select {
			case <-ctx.Done():
				return
			case <-w.stop:
				return
			case <-ticker.C:
			}
		}
	}()
}

// Drain processes everything currently queued and waits for completion.
// Intended for tests and one-shot CLI runs. Jobs whose attempts keep hitting
// infrastructure errors are left queued for a polling worker rather than
// retried in a tight loop.
func (w *Worker) Drain(ctx context.Context) {
	for w.drain(ctx) > 0 {
	}
}

// drain submits one batch and waits for it. Returns how many jobs were
// acked.
func (w *Worker) drain(ctx context.Context) int {
	jobs, err := w.queue.Dequeue(ctx, w.pool.Cap())
	if err != nil {
		w.logger.Error("dequeue failed", "err", err)
		return 0
	}

	var acked atomic.Int64
	var batch sync.WaitGroup
	for _, queued := range jobs {
		batch.Add(1)
		job := queued
		err := w.pool.Submit(func() {
			defer batch.Done()
			if err := w.pipeline.Process(ctx, job.Job.DocumentId); err != nil {
				if errors.Is(err, core.ErrNotFound) {
					// Document is gone; the job can never succeed
					if ackErr := job.Ack(); ackErr != nil {
						w.logger.Error("ack failed", "document", job.Job.DocumentId, "err", ackErr)
					}
					return
				}
				// Released for redelivery on a later poll
				w.logger.Error("processing job failed", "document", job.Job.DocumentId, "err", err)
				job.Release()
				return
			}
			if err := job.Ack(); err != nil {
				w.logger.Error("ack failed", "document", job.Job.DocumentId, "err", err)
				return
			}
			acked.Add(1)
		})
		if err != nil {
			batch.Done()
			w.logger.Error("submit failed", "document", job.Job.DocumentId, "err", err)
			job.Release()
		}
	}
	batch.Wait()

	return int(acked.Load())
}

// Close stops the polling loop, releases the pool, and returns any unacked
// jobs to the queue so another worker can pick them up.
func (w *Worker) Close() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
	w.pool.Release()
	w.queue.Release()
}
