package ingestion

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_NotStarted(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 10, 1)

	p.Record(true)
	p.Finish()

	assert.Equal(t, 0, p.done)
	assert.Equal(t, 0, p.failed)
	assert.Empty(t, out.String())
}

func TestProgressTracker_Reports(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 4, 2)
	p.Start()

	p.Record(true)
	assert.Empty(t, out.String(), "no report before the interval")
	p.Record(false)
	assert.Contains(t, out.String(), "Ingested: 2/4 (50.0%), 1 failed")

	p.Record(true)
	p.Record(true)
	p.Finish()

	assert.Equal(t, 4, p.done)
	assert.Equal(t, 1, p.failed)
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestProgressTracker_CapsAtTotal(t *testing.T) {
	var out bytes.Buffer
	p := NewProgressTracker(&out, 2, 10)
	p.Start()

	for range 5 {
		p.Record(true)
	}

	assert.Equal(t, 2, p.done)
}
