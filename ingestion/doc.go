// Package ingestion provides bulk loading of documents into a repository.
//
// The Pipeline type saves many documents concurrently on a worker pool.
// Each save may be retried with exponential backoff, and progress can be
// reported to a writer while the batch runs.
//
// A failed save does not stop the batch: every document is attempted, the
// successful saves are returned and the failures are joined into one error.
package ingestion
