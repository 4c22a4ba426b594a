package memory

import (
	"context"
	"testing"

	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
	"github.com/poiesic/docman/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository(t *testing.T) {
	storagetest.Run(t, func(t *testing.T, now core.Clock) storage.DocumentRepository {
		repo, err := NewRepository(WithClock(now))
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestNewRepository_Options(t *testing.T) {
	t.Run("nil id generator", func(t *testing.T) {
		repo, err := NewRepository(WithIDGenerator(nil))
		assert.ErrorIs(t, err, storage.ErrIDGeneratorRequired)
		assert.Nil(t, repo)
	})

	t.Run("nil clock", func(t *testing.T) {
		repo, err := NewRepository(WithClock(nil))
		assert.ErrorIs(t, err, storage.ErrClockRequired)
		assert.Nil(t, repo)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		repo, err := NewRepository(WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, repo.logger)
	})
}

func TestRepository_SeededIDs(t *testing.T) {
	repo, err := NewRepository(WithIDGenerator(core.NewSequenceGenerator(41)))
	require.NoError(t, err)
	defer repo.Close()

	saved, err := repo.Save(context.Background(), &core.Document{Title: "answer"})
	require.NoError(t, err)
	assert.Equal(t, "42", saved.ID)
}

func TestRepository_UUIDs(t *testing.T) {
	repo, err := NewRepository(WithIDGenerator(core.UUIDGenerator{}))
	require.NoError(t, err)
	defer repo.Close()

	saved, err := repo.Save(context.Background(), &core.Document{Title: "random"})
	require.NoError(t, err)
	assert.Len(t, saved.ID, 36)
}

func TestRepository_UpsertKeepsOneEntry(t *testing.T) {
	repo, err := NewRepository()
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	all, err := repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = repo.Save(ctx, &core.Document{ID: "a"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, &core.Document{ID: "a", Title: "again"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, &core.Document{ID: "b"})
	require.NoError(t, err)

	all, err = repo.Search(ctx, search.Request{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
