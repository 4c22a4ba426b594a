package badger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = 5 * time.Millisecond
)

// Repository implements storage.DocumentRepository for BadgerDB.
type Repository struct {
	backend     *Backend
	idSeq       *badger.Sequence // nil when a custom generator is configured
	ids         core.IDGenerator
	now         core.Clock
	maxAttempts int
	retryDelay  time.Duration
	closed      atomic.Bool
	logger      *slog.Logger
}

var _ storage.DocumentRepository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository) error

// WithIDGenerator sets the generator used for documents saved without an ID.
// Default is a BadgerDB sequence.
func WithIDGenerator(ids core.IDGenerator) Option {
	return func(r *Repository) error {
		if ids == nil {
			return storage.ErrIDGeneratorRequired
		}
		r.ids = ids
		return nil
	}
}

// WithClock sets the clock used to resolve creation times.
// Default is core.SystemClock.
func WithClock(now core.Clock) Option {
	return func(r *Repository) error {
		if now == nil {
			return storage.ErrClockRequired
		}
		r.now = now
		return nil
	}
}

// WithRetry sets how write transactions are retried on conflict.
// Default is 5 attempts starting at 5ms.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(r *Repository) error {
		if maxAttempts <= 0 {
			return storage.ErrInvalidMaxAttempts
		}
		r.maxAttempts = maxAttempts
		r.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRepository creates a new Repository on backend.
func NewRepository(backend *Backend, opts ...Option) (*Repository, error) {
	r := &Repository{
		backend:     backend,
		now:         core.SystemClock,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.ids == nil {
		idSeq, err := backend.GetSequence(documentIDSeq)
		if err != nil {
			return nil, err
		}
		r.idSeq = idSeq
		r.ids = &SequenceGenerator{seq: idSeq}
	}

	return r, nil
}

// Close releases the ID sequence. The backend stays open.
func (r *Repository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.idSeq != nil && !r.backend.IsClosed() {
		return r.idSeq.Release()
	}
	return nil
}

func (r *Repository) isClosed() bool {
	return r.closed.Load() || r.backend.IsClosed()
}

// Save upserts a copy of doc and keeps the indexes in step with it.
func (r *Repository) Save(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if r.isClosed() {
		return nil, storage.ErrStorageClosed
	}

	stored := doc.Clone()
	if !stored.HasID() {
		id, err := r.ids.NextID()
		if err != nil {
			return nil, err
		}
		stored.ID = id
		r.logger.Debug("assigned document id", "id", id)
	}
	stored.Created = core.ResolveCreated(stored.Created, r.now())

	err := storage.RetryWithBackoff(ctx, func() error {
		return r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeDocumentKey(stored.ID)

			// Read old version to drop its index entries
			old, err := readDocument(tx, key)
			if err != nil {
				return err
			}
			if old != nil {
				r.logger.Debug("replacing document", "id", stored.ID)
				if err := deleteIndexes(tx, old); err != nil {
					return err
				}
			}

			if err := tx.Set(key, storage.MarshalDocument(stored)); err != nil {
				return err
			}
			if err := setIndexes(tx, stored); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
	}, isConflict, r.maxAttempts, r.retryDelay)
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// FindByID retrieves a document by ID, or nil if it does not exist.
func (r *Repository) FindByID(ctx context.Context, id string) (*core.Document, error) {
	if r.isClosed() {
		return nil, storage.ErrStorageClosed
	}

	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		return err
	}, false)
	return result, err
}

// Search returns all documents matching req.
// Author and creation-time criteria are answered from the indexes; every
// candidate is still checked against the full request.
func (r *Repository) Search(ctx context.Context, req search.Request) ([]*core.Document, error) {
	if r.isClosed() {
		return nil, storage.ErrStorageClosed
	}

	results := make([]*core.Document, 0)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var (
			ids []string
			err error
		)
		switch {
		case req.IsEmpty():
			return scanDocuments(tx, func(doc *core.Document) {
				results = append(results, doc)
			})
		case len(req.AuthorIDs) > 0:
			ids, err = idsByAuthor(tx, req.AuthorIDs)
		case req.HasTimeRange():
			ids, err = idsByDateRange(tx, req.CreatedFrom, req.CreatedTo)
		default:
			return scanDocuments(tx, func(doc *core.Document) {
				if search.Matches(doc, req) {
					results = append(results, doc)
				}
			})
		}
		if err != nil {
			return err
		}

		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
			if err != nil {
				return err
			}
			if doc != nil && search.Matches(doc, req) {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("search complete", "hits", len(results))
	return results, nil
}

// Helper functions

func isConflict(err error) bool {
	return errors.Is(err, badger.ErrConflict)
}

// readDocument reads a document from the transaction.
// Returns nil, nil if the key does not exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// scanDocuments calls fn for every stored document.
func scanDocuments(tx *badger.Txn, fn func(doc *core.Document)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentPrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		err := iter.Item().Value(func(val []byte) error {
			doc, err := storage.UnmarshalDocument(val)
			if err != nil {
				return err
			}
			fn(doc)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// idsByAuthor collects document IDs from the author index.
// Hash collisions may add extra IDs; callers re-check the author.
func idsByAuthor(tx *badger.Txn, authorIDs []string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, authorID := range authorIDs {
		prefix := makePartialDocumentAuthorKey(authorID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)

		for iter.Seek(prefix); iter.Valid(); iter.Next() {
			val, err := iter.Item().ValueCopy(nil)
			if err != nil {
				iter.Close()
				return nil, err
			}
			if id := string(val); !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		iter.Close()
	}
	return ids, nil
}

// idsByDateRange collects document IDs from the creation-time index.
// Both bounds are inclusive; a zero bound is open.
func idsByDateRange(tx *badger.Txn, from, to time.Time) ([]string, error) {
	prefix := []byte(documentDatePrefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	start := prefix
	if !from.IsZero() {
		start = makePartialDocumentDateKey(from)
	}

	var upper []byte
	if !to.IsZero() {
		upper = encodeTime(to)
	}

	var ids []string
	for iter.Seek(start); iter.Valid(); iter.Next() {
		item := iter.Item()
		if upper != nil && bytes.Compare(dateFromDateKey(item.Key()), upper) > 0 {
			break
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		ids = append(ids, string(val))
	}
	return ids, nil
}

// setIndexes adds the index entries for doc.
func setIndexes(tx *badger.Txn, doc *core.Document) error {
	value := []byte(doc.ID)
	if err := tx.Set(makeDocumentDateKey(doc.Created, doc.ID), value); err != nil {
		return err
	}
	return tx.Set(makeDocumentAuthorKey(doc.Author.ID, doc.ID), value)
}

// deleteIndexes removes the index entries for doc.
func deleteIndexes(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Delete(makeDocumentDateKey(doc.Created, doc.ID)); err != nil {
		return err
	}
	return tx.Delete(makeDocumentAuthorKey(doc.Author.ID, doc.ID))
}
