package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker counts finished saves in a batch and reports them to a writer.
type ProgressTracker struct {
	mu             sync.Mutex
	writer         io.Writer
	total          int
	done           int
	failed         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// total: number of documents in the batch
// reportInterval: report progress every N documents
func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.done = 0
	p.failed = 0
	p.lastReported = 0
}

// Record counts one finished save. ok is false when the save failed.
func (p *ProgressTracker) Record(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started || p.done == p.total {
		return
	}

	p.done++
	if !ok {
		p.failed++
	}

	if p.done-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.done
	}
}

// Finish prints the final line. Call once every save has been recorded.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
	p.started = false
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	rate := float64(p.done) / elapsed.Seconds()

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.done) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rIngested: %d/%d (%.1f%%), %d failed - %.1f documents/s",
		p.done, p.total, percentage, p.failed, rate)
}
