package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
	"github.com/poiesic/docman/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, opts ...Option) *Repository {
	t.Helper()
	repo, backend, err := NewMemoryRepository(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now core.Clock) storage.DocumentRepository {
		return newTestRepository(t, WithClock(now))
	})
}

func TestRepository_CustomIDGenerator(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now core.Clock) storage.DocumentRepository {
		return newTestRepository(t, WithClock(now), WithIDGenerator(core.NewSequenceGenerator(1000)))
	})
}

func TestRepository_SequenceIDs(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, &core.Document{Title: "one"})
	require.NoError(t, err)
	second, err := repo.Save(ctx, &core.Document{Title: "two"})
	require.NoError(t, err)

	assert.NotEqual(t, "0", first.ID, "sequence value 0 is skipped")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRepository_Options(t *testing.T) {
	backend, err := OpenBackend(nil)
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewRepository(backend, WithIDGenerator(nil))
	assert.ErrorIs(t, err, storage.ErrIDGeneratorRequired)

	_, err = NewRepository(backend, WithClock(nil))
	assert.ErrorIs(t, err, storage.ErrClockRequired)

	_, err = NewRepository(backend, WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, storage.ErrInvalidMaxAttempts)
}

func TestRepository_UpsertMovesIndexes(t *testing.T) {
	clock := storagetest.NewClock(storagetest.Base)
	repo := newTestRepository(t, WithClock(clock.Now))
	ctx := context.Background()

	old := storagetest.Base.Add(-48 * time.Hour)
	_, err := repo.Save(ctx, &core.Document{ID: "d", Author: core.Author{ID: "a"}, Created: old})
	require.NoError(t, err)
	_, err = repo.Save(ctx, &core.Document{ID: "d", Author: core.Author{ID: "b"}})
	require.NoError(t, err)

	byOldAuthor, err := repo.Search(ctx, search.Request{AuthorIDs: []string{"a"}})
	require.NoError(t, err)
	assert.Empty(t, byOldAuthor)

	byOldDate, err := repo.Search(ctx, search.Request{CreatedTo: old})
	require.NoError(t, err)
	assert.Empty(t, byOldDate)

	byNewAuthor, err := repo.Search(ctx, search.Request{AuthorIDs: []string{"b"}})
	require.NoError(t, err)
	require.Len(t, byNewAuthor, 1)
	assert.True(t, byNewAuthor[0].Created.Equal(storagetest.Base))

	err = repo.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeDocumentDateKey(old, "d"))
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
		_, err = tx.Get(makeDocumentAuthorKey("a", "d"))
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
		return nil
	}, false)
	require.NoError(t, err)
}

func TestRepository_DateIndexBeforeEpoch(t *testing.T) {
	clock := storagetest.NewClock(storagetest.Base)
	repo := newTestRepository(t, WithClock(clock.Now))
	ctx := context.Background()

	moon := time.Date(1969, 7, 20, 20, 17, 0, 0, time.UTC)
	_, err := repo.Save(ctx, &core.Document{ID: "moon", Created: moon})
	require.NoError(t, err)
	_, err = repo.Save(ctx, &core.Document{ID: "recent"})
	require.NoError(t, err)

	results, err := repo.Search(ctx, search.Request{CreatedTo: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "moon", results[0].ID)

	results, err = repo.Search(ctx, search.Request{CreatedFrom: moon.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "recent", results[0].ID)
}

func TestRepository_AuthorAndDateCombined(t *testing.T) {
	clock := storagetest.NewClock(storagetest.Base)
	repo := newTestRepository(t, WithClock(clock.Now))
	ctx := context.Background()

	for i := range 10 {
		_, err := repo.Save(ctx, &core.Document{
			Title:   fmt.Sprintf("doc %d", i),
			Author:  core.Author{ID: fmt.Sprintf("author-%d", i%2)},
			Created: storagetest.Base.Add(-time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	results, err := repo.Search(ctx, search.Request{
		AuthorIDs:   []string{"author-0"},
		CreatedFrom: storagetest.Base.Add(-4 * time.Hour),
	})
	require.NoError(t, err)

	titles := make([]string, 0, len(results))
	for _, doc := range results {
		titles = append(titles, doc.Title)
	}
	assert.ElementsMatch(t, []string{"doc 0", "doc 2", "doc 4"}, titles)
}

func TestRepository_ClosedBackend(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())
	require.NoError(t, backend.Close(), "closing twice is a no-op")

	_, err = repo.FindByID(context.Background(), "1")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestOpenBackend(t *testing.T) {
	backend, err := OpenBackend(nil)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())
	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
}
