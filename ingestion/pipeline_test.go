package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcess_HappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	text := "The quick brown fox jumps over the lazy dog near the river bank."
	doc, err := env.lifecycle.Upload(ctx, 1, "fox.txt", "text/plain", []byte(text))
	require.NoError(t, err)

	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	report, err := env.lifecycle.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusReady, report.Status)
	assert.True(t, report.IsReady)
	assert.Greater(t, report.ChunksCreated, 1)

	count, err := env.vectors.CountDocumentChunks(ctx, 1, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, report.ChunksCreated, count)

	assert.Equal(t, int64(1), env.recorder.CountOf(metrics.DocumentsProcessed))
	assert.Equal(t, int64(count), env.recorder.CountOf(metrics.ChunksWritten))
}

func TestProcess_EmptyTextSkipsEmbedding(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.lifecycle.Upload(ctx, 1, "empty.txt", "text/plain", []byte("   \n  "))
	require.NoError(t, err)

	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	report, err := env.lifecycle.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusReady, report.Status)
	assert.Zero(t, report.ChunksCreated)

	// No embedding request was made for the empty batch
	assert.Zero(t, env.embedder.CallCount())
}

func TestProcess_ExtractFailureForcesFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.lifecycle.Upload(ctx, 1, "image.png", "image/png", []byte{0x89, 0x50})
	require.NoError(t, err)

	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	report, err := env.lifecycle.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, report.Status)
	assert.Contains(t, report.ErrorMessage, "extract")
	assert.Equal(t, int64(1), env.recorder.CountOf(metrics.DocumentsFailed))
}

func TestProcess_EmbedFailureForcesFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider exploded")
	}

	doc, err := env.lifecycle.Upload(ctx, 1, "notes.txt", "text/plain", []byte("some document content"))
	require.NoError(t, err)

	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	report, err := env.lifecycle.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, report.Status)
	assert.Contains(t, report.ErrorMessage, "embed")
}

func TestProcess_DuplicateDeliveryNoOps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc, err := env.lifecycle.Upload(ctx, 1, "notes.txt", "text/plain", []byte("some document content"))
	require.NoError(t, err)

	require.NoError(t, env.pipeline.Process(ctx, doc.Id))
	firstCalls := env.embedder.CallCount()

	// Redelivery of the same job finds the document READY
	require.NoError(t, env.pipeline.Process(ctx, doc.Id))
	assert.Equal(t, firstCalls, env.embedder.CallCount())
	assert.Equal(t, int64(1), env.recorder.CountOf(metrics.DocumentsProcessed))
}

func TestProcess_ReprocessReplacesChunks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	longText := "This is a fairly long document body that will produce several chunks on the first pass."
	doc, err := env.lifecycle.Upload(ctx, 1, "notes.txt", "text/plain", []byte(longText))
	require.NoError(t, err)
	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	firstCount, err := env.vectors.CountDocumentChunks(ctx, 1, doc.Id)
	require.NoError(t, err)
	require.Greater(t, firstCount, 1)

	// Shrink the stored content, then reprocess
	require.NoError(t, env.blobs.Upload(ctx, doc.StorageKey, []byte("tiny")))
	_, err = env.lifecycle.Reprocess(ctx, doc.Id)
	require.NoError(t, err)
	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	secondCount, err := env.vectors.CountDocumentChunks(ctx, 1, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, secondCount)
}

func TestProcess_PanicInDependencyForcesFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.embedder.EmbedBatchFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		panic("embedder bug")
	}

	doc, err := env.lifecycle.Upload(ctx, 1, "notes.txt", "text/plain", []byte("content"))
	require.NoError(t, err)

	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	report, err := env.lifecycle.Status(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, report.Status)
	assert.Contains(t, report.ErrorMessage, "panicked")
}

func TestWorker_DrainProcessesQueued(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	worker, err := NewWorker(env.queue, env.pipeline, WithPoolSize(2))
	require.NoError(t, err)
	defer worker.Close()

	var ids []core.ID
	for _, title := range []string{"a.txt", "b.txt", "c.txt"} {
		doc, err := env.lifecycle.Upload(ctx, 1, title, "text/plain", []byte("content of "+title))
		require.NoError(t, err)
		ids = append(ids, doc.Id)
	}

	worker.Drain(ctx)

	for _, id := range ids {
		report, err := env.lifecycle.Status(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, core.StatusReady, report.Status)
	}

	// Everything acked
	jobs, err := env.queue.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestWorker_DeletedDocumentJobIsDropped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	worker, err := NewWorker(env.queue, env.pipeline)
	require.NoError(t, err)
	defer worker.Close()

	doc, err := env.lifecycle.Upload(ctx, 1, "gone.txt", "text/plain", []byte("content"))
	require.NoError(t, err)
	require.NoError(t, env.docs.SoftDeleteDocument(ctx, doc.Id))

	worker.Drain(ctx)

	// The job can never succeed, so it is acked rather than redelivered
	jobs, err := env.queue.Dequeue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestProcess_StableChunkIDsAcrossReprocess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	text := "The quick brown fox jumps over the lazy dog, again and again and again."
	doc, err := env.lifecycle.Upload(ctx, 1, "notes.txt", "text/plain", []byte(text))
	require.NoError(t, err)
	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	first := chunkIDSet(t, env, doc.Id)
	require.NotEmpty(t, first)

	// Unchanged content reprocessed must produce the same chunk identities
	_, err = env.lifecycle.Reprocess(ctx, doc.Id)
	require.NoError(t, err)
	require.NoError(t, env.pipeline.Process(ctx, doc.Id))

	assert.Equal(t, first, chunkIDSet(t, env, doc.Id))
}

func chunkIDSet(t *testing.T, env *testEnv, documentID core.ID) map[core.ID]struct{} {
	t.Helper()

	results, err := env.vectors.Search(context.Background(), 1, []float32{1, 0, 0, 0}, 50)
	require.NoError(t, err)

	ids := make(map[core.ID]struct{})
	for _, r := range results {
		if r.Chunk.DocumentId == documentID {
			ids[r.Chunk.Id] = struct{}{}
		}
	}
	return ids
}
