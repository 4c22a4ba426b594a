package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
	"github.com/poiesic/docman/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepository fails the first failures saves of every title with errTransient.
type flakyRepository struct {
	storage.DocumentRepository
	mu       sync.Mutex
	failures int
	attempts map[string]int
}

var errTransient = errors.New("transient failure")

func newFlakyRepository(t *testing.T, failures int) *flakyRepository {
	repo, err := memory.NewRepository()
	require.NoError(t, err)
	return &flakyRepository{DocumentRepository: repo, failures: failures, attempts: make(map[string]int)}
}

func (f *flakyRepository) Save(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if doc != nil {
		f.mu.Lock()
		f.attempts[doc.Title]++
		n := f.attempts[doc.Title]
		f.mu.Unlock()
		if n <= f.failures {
			return nil, errTransient
		}
	}
	return f.DocumentRepository.Save(ctx, doc)
}

func makeDocuments(n int) []*core.Document {
	docs := make([]*core.Document, n)
	for i := range docs {
		docs[i] = &core.Document{
			Title:   fmt.Sprintf("Document %d", i),
			Content: "bulk",
			Author:  core.Author{ID: "loader"},
		}
	}
	return docs
}

func TestNewPipeline(t *testing.T) {
	t.Run("repository required", func(t *testing.T) {
		p, err := NewPipeline(nil)
		assert.ErrorIs(t, err, ErrRepositoryRequired)
		assert.Nil(t, p)
	})

	t.Run("invalid retry", func(t *testing.T) {
		repo, err := memory.NewRepository()
		require.NoError(t, err)
		_, err = NewPipeline(repo, WithRetry(0, time.Millisecond))
		assert.ErrorIs(t, err, storage.ErrInvalidMaxAttempts)
	})

	t.Run("invalid report interval", func(t *testing.T) {
		repo, err := memory.NewRepository()
		require.NoError(t, err)
		_, err = NewPipeline(repo, WithProgress(&bytes.Buffer{}, 0))
		assert.ErrorIs(t, err, ErrInvalidReportInterval)
	})

	t.Run("pool size below one is clamped", func(t *testing.T) {
		repo, err := memory.NewRepository()
		require.NoError(t, err)
		p, err := NewPipeline(repo, WithPoolSize(0))
		require.NoError(t, err)
		defer p.Release()
		assert.Equal(t, 1, p.pool.Cap())
	})
}

func TestPipeline_Ingest(t *testing.T) {
	repo, err := memory.NewRepository()
	require.NoError(t, err)
	p, err := NewPipeline(repo, WithPoolSize(4))
	require.NoError(t, err)
	defer p.Release()
	ctx := context.Background()

	docs := makeDocuments(100)
	saved, err := p.Ingest(ctx, docs...)
	require.NoError(t, err)
	require.Len(t, saved, 100)

	seen := make(map[string]bool)
	for i, doc := range saved {
		assert.Equal(t, docs[i].Title, doc.Title, "results keep input order")
		assert.NotEmpty(t, doc.ID)
		assert.False(t, seen[doc.ID], "duplicate id %q", doc.ID)
		seen[doc.ID] = true
	}

	all, err := repo.Search(ctx, search.Request{AuthorIDs: []string{"loader"}})
	require.NoError(t, err)
	assert.Len(t, all, 100)
}

func TestPipeline_IngestEmpty(t *testing.T) {
	repo, err := memory.NewRepository()
	require.NoError(t, err)
	p, err := NewPipeline(repo)
	require.NoError(t, err)
	defer p.Release()

	saved, err := p.Ingest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestPipeline_IngestPartialFailure(t *testing.T) {
	repo, err := memory.NewRepository()
	require.NoError(t, err)
	p, err := NewPipeline(repo, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer p.Release()

	docs := makeDocuments(3)
	docs[1] = nil

	saved, err := p.Ingest(context.Background(), docs...)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
	require.Len(t, saved, 2)
	assert.Equal(t, "Document 0", saved[0].Title)
	assert.Equal(t, "Document 2", saved[1].Title)
}

func TestPipeline_IngestRetries(t *testing.T) {
	repo := newFlakyRepository(t, 2)
	p, err := NewPipeline(repo, WithRetry(3, time.Millisecond))
	require.NoError(t, err)
	defer p.Release()

	saved, err := p.Ingest(context.Background(), makeDocuments(5)...)
	require.NoError(t, err)
	assert.Len(t, saved, 5)
	for title, n := range repo.attempts {
		assert.Equal(t, 3, n, "attempts for %q", title)
	}
}

func TestPipeline_IngestRetriesExhausted(t *testing.T) {
	repo := newFlakyRepository(t, 5)
	p, err := NewPipeline(repo, WithRetry(2, time.Millisecond))
	require.NoError(t, err)
	defer p.Release()

	saved, err := p.Ingest(context.Background(), makeDocuments(2)...)
	assert.ErrorIs(t, err, errTransient)
	assert.Empty(t, saved)
}

func TestPipeline_IngestAfterRelease(t *testing.T) {
	repo, err := memory.NewRepository()
	require.NoError(t, err)
	p, err := NewPipeline(repo)
	require.NoError(t, err)
	p.Release()

	saved, err := p.Ingest(context.Background(), makeDocuments(1)...)
	assert.ErrorIs(t, err, ants.ErrPoolClosed)
	assert.Empty(t, saved)
}

func TestPipeline_Progress(t *testing.T) {
	repo, err := memory.NewRepository()
	require.NoError(t, err)
	var out bytes.Buffer
	p, err := NewPipeline(repo, WithPoolSize(1), WithProgress(&out, 5))
	require.NoError(t, err)
	defer p.Release()

	_, err = p.Ingest(context.Background(), makeDocuments(10)...)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Ingested: 5/10 (50.0%), 0 failed")
	assert.Contains(t, out.String(), "Ingested: 10/10 (100.0%), 0 failed")
}
