package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
)

// Repository implements storage.DocumentRepository with a map.
type Repository struct {
	mu     sync.RWMutex
	docs   map[string]core.Document
	closed bool
	ids    core.IDGenerator
	now    core.Clock
	logger *slog.Logger
}

var _ storage.DocumentRepository = (*Repository)(nil)

// Option configures a Repository.
type Option func(*Repository) error

// WithIDGenerator sets the generator used for documents saved without an ID.
// Default is a core.SequenceGenerator starting at 1.
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

// NewRepository creates an empty Repository.
func NewRepository(opts ...Option) (*Repository, error) {
	r := &Repository{
		docs:   make(map[string]core.Document),
		ids:    core.NewSequenceGenerator(0),
		now:    core.SystemClock,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Save upserts a copy of doc.
func (r *Repository) Save(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	stored := doc.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	if !stored.HasID() {
		id, err := r.ids.NextID()
		if err != nil {
			return nil, err
		}
		stored.ID = id
		r.logger.Debug("assigned document id", "id", id)
	}
	stored.Created = core.ResolveCreated(stored.Created, r.now())

	if _, exists := r.docs[stored.ID]; exists {
		r.logger.Debug("replacing document", "id", stored.ID)
	}
	r.docs[stored.ID] = *stored
	return stored, nil
}

// FindByID returns a copy of the document stored under id, or nil.
func (r *Repository) FindByID(ctx context.Context, id string) (*core.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	doc, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

// Search returns copies of all documents matching req.
func (r *Repository) Search(ctx context.Context, req search.Request) ([]*core.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, storage.ErrStorageClosed
	}
	docs := make([]*core.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, &doc)
	}
	return search.Filter(docs, req), nil
}

// Close drops all documents. Further calls fail with storage.ErrStorageClosed.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.docs = nil
	return nil
}
