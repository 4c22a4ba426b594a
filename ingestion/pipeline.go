package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/storage"
)

// Pipeline saves batches of documents concurrently.
type Pipeline struct {
	repository     storage.DocumentRepository
	pool           *ants.Pool
	progress       io.Writer
	reportInterval int
	maxAttempts    int
	retryDelay     time.Duration
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent saves.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithProgress reports progress to w every reportInterval documents.
// Default is no progress output.
func WithProgress(w io.Writer, reportInterval int) Option {
	return func(p *Pipeline) error {
		if reportInterval <= 0 {
			return ErrInvalidReportInterval
		}
		p.progress = w
		p.reportInterval = reportInterval
		return nil
	}
}

// WithRetry retries each failed save up to maxAttempts times in total,
// doubling baseDelay between attempts.
// Default is a single attempt.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return storage.ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(repository storage.DocumentRepository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository:  repository,
		pool:        pool,
		maxAttempts: 1,
		logger:      slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Ingest saves docs on the worker pool and waits for all of them.
// The saved documents are returned in input order; documents that could
// not be saved are left out and their errors are joined.
func (p *Pipeline) Ingest(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	if len(docs) == 0 {
		return []*core.Document{}, nil
	}

	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, len(docs), p.reportInterval)
		tracker.Start()
	}

	saved := make([]*core.Document, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			saved[i], errs[i] = p.save(ctx, doc)
			if errs[i] != nil {
				p.logger.Error("error saving document", "index", i, "err", errs[i])
			}
			if tracker != nil {
				tracker.Record(errs[i] == nil)
			}
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("document %d: %w", i, err)
			if tracker != nil {
				tracker.Record(false)
			}
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}

	results := make([]*core.Document, 0, len(docs))
	for _, doc := range saved {
		if doc != nil {
			results = append(results, doc)
		}
	}
	p.logger.Debug("ingestion complete", "submitted", len(docs), "saved", len(results))

	return results, errors.Join(errs...)
}

// save stores one document, retrying transient failures.
func (p *Pipeline) save(ctx context.Context, doc *core.Document) (*core.Document, error) {
	var saved *core.Document
	err := storage.RetryWithBackoff(ctx, func() error {
		var err error
		saved, err = p.repository.Save(ctx, doc)
		return err
	}, isRetryable, p.maxAttempts, p.retryDelay)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// isRetryable rejects errors that another attempt cannot fix.
func isRetryable(err error) bool {
	return !errors.Is(err, core.ErrInvalidDocument) &&
		!errors.Is(err, storage.ErrStorageClosed) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
