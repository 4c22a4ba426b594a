package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a document repository is not provided.
	ErrRepositoryRequired = errors.New("document repository required")

	// ErrInvalidReportInterval is returned when a progress report interval is not positive.
	ErrInvalidReportInterval = errors.New("report interval must be greater than 0")
)
