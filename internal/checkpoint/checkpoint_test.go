package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"catalog/crawler/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	saved []*domain.Snapshot
	err   error
}

func (s *memoryStore) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, snapshot)
	return nil
}

func (s *memoryStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	if len(s.saved) == 0 {
		return nil, domain.ErrNoSnapshot
	}
	return s.saved[len(s.saved)-1], nil
}

func records(n int) []domain.ProductRecord {
	out := make([]domain.ProductRecord, n)
	for i := range out {
		out[i] = domain.NewProductRecord("Producto", "", "Perros")
	}
	return out
}

func TestWriterSavesOnIntervalCrossing(t *testing.T) {
	store := &memoryStore{}
	writer := NewWriter(store, "run-1", 100, false)
	ctx := context.Background()

	for _, n := range []int{40, 99, 130, 180, 199, 260, 301} {
		writer.MaybeCheckpoint(ctx, records(n))
	}
	writer.CategoryCompleted(ctx, records(320))

	require.Len(t, store.saved, 3)
	assert.Len(t, store.saved[0].Records, 130)
	assert.Len(t, store.saved[1].Records, 260)
	assert.Len(t, store.saved[2].Records, 301)
	assert.Equal(t, "run-1", store.saved[0].RunID)
	assert.Equal(t, 3, writer.Saves())
}

func TestWriterPerCategory(t *testing.T) {
	store := &memoryStore{}
	writer := NewWriter(store, "run-1", 0, true)
	ctx := context.Background()

	writer.MaybeCheckpoint(ctx, records(500))
	writer.CategoryCompleted(ctx, records(3))
	writer.CategoryCompleted(ctx, records(3)) // nothing new
	writer.CategoryCompleted(ctx, records(5))

	require.Len(t, store.saved, 2)
	assert.Len(t, store.saved[1].Records, 5)
}

func TestWriterSwallowsStoreErrors(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	writer := NewWriter(store, "run-1", 10, true)

	assert.NotPanics(t, func() {
		writer.MaybeCheckpoint(context.Background(), records(10))
		writer.CategoryCompleted(context.Background(), records(10))
	})
	assert.Equal(t, 0, writer.Saves())

	// a later success still happens once the store recovers
	store.err = nil
	writer.MaybeCheckpoint(context.Background(), records(11))
	assert.Equal(t, 1, writer.Saves())
}

func TestWriterSnapshotIsDetachedFromInput(t *testing.T) {
	store := &memoryStore{}
	writer := NewWriter(store, "run-1", 1, false)

	input := records(1)
	writer.MaybeCheckpoint(context.Background(), input)
	input[0].CategoryPath = "Gatos"

	require.Len(t, store.saved, 1)
	assert.Equal(t, "Perros", store.saved[0].Records[0].CategoryPath)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "checkpoint.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.ErrorIs(t, err, domain.ErrNoSnapshot)

	first := &domain.Snapshot{RunID: "run-1", Records: records(2)}
	require.NoError(t, store.Save(ctx, first))

	second := &domain.Snapshot{RunID: "run-1", Records: append(records(2), domain.NewProductRecord("", "https://shop.example/a.jpg", "Gatos"))}
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	require.Len(t, loaded.Records, 3)
	assert.Nil(t, loaded.Records[2].Name)
	assert.Equal(t, "https://shop.example/a.jpg", loaded.Records[2].ImageURLOrEmpty())

	// no temp files are left next to the snapshot
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"nombre_producto": null`)
	assert.Contains(t, string(raw), `"categoria": "Gatos"`)
}

func TestFileStoreRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNoSnapshot)
}
