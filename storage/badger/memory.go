package badger

// NewMemoryRepository opens a private in-memory backend and a Repository on it.
// Caller must close the repository before the backend.
func NewMemoryRepository(opts ...Option) (*Repository, *Backend, error) {
	backend, err := OpenBackend(nil)
	if err != nil {
		return nil, nil, err
	}

	repo, err := NewRepository(backend, opts...)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}

	return repo, backend, nil
}
