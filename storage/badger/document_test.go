package badger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/citewell/citewell/core"
	"github.com/citewell/citewell/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocument(workspaceID core.ID, title string) *core.Document {
	return &core.Document{
		WorkspaceId: workspaceID,
		Title:       title,
		Status:      core.StatusPending,
		StorageKey:  "blob/" + title,
		MimeType:    "text/plain",
	}
}

func TestAddDocument_AssignsIDAndTimestamps(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	doc, err := docRepo.AddDocument(context.Background(), newTestDocument(1, "notes.txt"))
	require.NoError(t, err)

	assert.NotZero(t, doc.Id)
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)

	got, err := docRepo.GetDocument(context.Background(), doc.Id)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", got.Title)
	assert.Equal(t, core.StatusPending, got.Status)
}

func TestAddDocument_Invalid(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	_, err = docRepo.AddDocument(context.Background(), &core.Document{Title: "no workspace"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestGetDocument_NotFound(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	_, err = docRepo.GetDocument(context.Background(), 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListDocuments_WorkspaceScoped(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	ctx := context.Background()
	_, err = docRepo.AddDocument(ctx, newTestDocument(1, "a.txt"))
	require.NoError(t, err)
	_, err = docRepo.AddDocument(ctx, newTestDocument(1, "b.txt"))
	require.NoError(t, err)
	_, err = docRepo.AddDocument(ctx, newTestDocument(2, "other.txt"))
	require.NoError(t, err)

	docs, err := docRepo.ListDocuments(ctx, 1)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, core.ID(1), doc.WorkspaceId)
	}
}

func TestMutateDocument_UpdatesStatus(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	ctx := context.Background()
	doc, err := docRepo.AddDocument(ctx, newTestDocument(1, "notes.txt"))
	require.NoError(t, err)

	updated, err := docRepo.MutateDocument(ctx, doc.Id, func(d *core.Document) error {
		d.Status = core.StatusProcessing
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, updated.Status)

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, got.Status)
}

func TestMutateDocument_FnErrorLeavesDocumentUnchanged(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	ctx := context.Background()
	doc, err := docRepo.AddDocument(ctx, newTestDocument(1, "notes.txt"))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = docRepo.MutateDocument(ctx, doc.Id, func(d *core.Document) error {
		d.Status = core.StatusFailed
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, got.Status)
}

// Concurrent mutations against the same document must all observe committed
// state; exactly one transition from PENDING to PROCESSING may claim the
// document.
func TestMutateDocument_ConcurrentSingleWinner(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	ctx := context.Background()
	doc, err := docRepo.AddDocument(ctx, newTestDocument(1, "contested.txt"))
	require.NoError(t, err)

	const workers = 8
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed := false
			_, err := docRepo.MutateDocument(ctx, doc.Id, func(d *core.Document) error {
				claimed = false
				if d.Status == core.StatusPending {
					d.Status = core.StatusProcessing
					claimed = true
				}
				return nil
			})
			if err == nil && claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.StatusProcessing, got.Status)
}

func TestSoftDeleteDocument(t *testing.T) {
	docRepo, _, backend, err := NewMemoryStores()
	require.NoError(t, err)
	defer backend.Close()
	defer docRepo.Close()

	ctx := context.Background()
	doc, err := docRepo.AddDocument(ctx, newTestDocument(1, "doomed.txt"))
	require.NoError(t, err)

	require.NoError(t, docRepo.SoftDeleteDocument(ctx, doc.Id))

	_, err = docRepo.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	docs, err := docRepo.ListDocuments(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, docs)

	// Deleting twice reports not found
	err = docRepo.SoftDeleteDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
