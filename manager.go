// Copyright 2025 Poiesic Systems
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

package docman

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docman/core"
	"github.com/poiesic/docman/ingestion"
	"github.com/poiesic/docman/search"
	"github.com/poiesic/docman/storage"
	"github.com/poiesic/docman/storage/badger"
	"github.com/poiesic/docman/storage/memory"
)

// Backend selects the repository implementation behind a Manager.
type Backend string

const (
	// BackendMemory keeps documents in a map. This is the default.
	BackendMemory Backend = "memory"
	// BackendBadger keeps documents in an in-memory BadgerDB instance.
	BackendBadger Backend = "badger"
)

// Manager stores documents and answers lookups and searches over them.
type Manager struct {
	repo    storage.DocumentRepository
	backend *badger.Backend // set only for BackendBadger
	logger  *slog.Logger
}

var _ storage.DocumentRepository = (*Manager)(nil)

// ManagerOption configures a Manager.
type ManagerOption func(*managerOptions) error

type managerOptions struct {
	backend Backend
	ids     core.IDGenerator
	clock   core.Clock
	logger  *slog.Logger
}

// WithBackend selects the repository implementation.
func WithBackend(backend Backend) ManagerOption {
	return func(o *managerOptions) error {
		switch backend {
		case BackendMemory, BackendBadger:
			o.backend = backend
			return nil
		default:
			return fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
		}
	}
}

// WithIDGenerator sets the generator used for documents saved without an ID.
func WithIDGenerator(ids core.IDGenerator) ManagerOption {
	return func(o *managerOptions) error {
		o.ids = ids
		return nil
	}
}

// WithClock sets the clock used to resolve creation times.
func WithClock(clock core.Clock) ManagerOption {
	return func(o *managerOptions) error {
		o.clock = clock
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(o *managerOptions) error {
		o.logger = logger
		return nil
	}
}

// NewManager creates a Manager with an empty repository.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	options := &managerOptions{
		backend: BackendMemory,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	m := &Manager{logger: options.logger}
	switch options.backend {
	case BackendBadger:
		repoOpts := []badger.Option{badger.WithLogger(options.logger)}
		if options.ids != nil {
			repoOpts = append(repoOpts, badger.WithIDGenerator(options.ids))
		}
		if options.clock != nil {
			repoOpts = append(repoOpts, badger.WithClock(options.clock))
		}

		backend, err := badger.OpenBackend(options.logger)
		if err != nil {
			return nil, err
		}
		repo, err := badger.NewRepository(backend, repoOpts...)
		if err != nil {
			backend.Close()
			return nil, err
		}
		m.repo = repo
		m.backend = backend
	default:
		repoOpts := []memory.Option{memory.WithLogger(options.logger)}
		if options.ids != nil {
			repoOpts = append(repoOpts, memory.WithIDGenerator(options.ids))
		}
		if options.clock != nil {
			repoOpts = append(repoOpts, memory.WithClock(options.clock))
		}

		repo, err := memory.NewRepository(repoOpts...)
		if err != nil {
			return nil, err
		}
		m.repo = repo
	}

	m.logger.Debug("document manager ready", "backend", options.backend)
	return m, nil
}

// Save upserts doc, assigning an ID and creation time when missing,
// and returns the stored document.
func (m *Manager) Save(ctx context.Context, doc *core.Document) (*core.Document, error) {
	return m.repo.Save(ctx, doc)
}

// FindByID returns the document with exactly this ID, or nil if there is none.
func (m *Manager) FindByID(ctx context.Context, id string) (*core.Document, error) {
	return m.repo.FindByID(ctx, id)
}

// Search returns every document matching all active criteria of req.
func (m *Manager) Search(ctx context.Context, req search.Request) ([]*core.Document, error) {
	return m.repo.Search(ctx, req)
}

// Repository exposes the underlying repository.
func (m *Manager) Repository() storage.DocumentRepository {
	return m.repo
}

// NewIngestionPipeline creates a bulk loading pipeline over this manager's repository.
func (m *Manager) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(m.logger)}, opts...)
	return ingestion.NewPipeline(m.repo, opts...)
}

// Close releases the repository and, for BackendBadger, the database.
func (m *Manager) Close() error {
	if err := m.repo.Close(); err != nil {
		m.logger.Error("error closing document repository", "err", err)
		return err
	}
	if m.backend != nil {
		if err := m.backend.Close(); err != nil {
			m.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}
