package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Author identifies who wrote a document.
// Authors are plain values; the store does not enforce uniqueness.
type Author struct {
	ID   string
	Name string
}

// Document is the unit of stored content.
//
// An empty ID or a zero Created means the value is absent and will be
// assigned by the store on save.
type Document struct {
	ID      string
	Title   string
	Content string
	Author  Author
	Created time.Time
}

// HasID reports whether the document carries an identifier.
func (d *Document) HasID() bool {
	return d.ID != ""
}

// Clone returns a copy of the document that shares no state with d.
func (d *Document) Clone() *Document {
	c := *d
	return &c
}

// Clock returns the current wall-clock time.
type Clock func() time.Time

// SystemClock is the default Clock.
func SystemClock() time.Time {
	return time.Now()
}

// NormalizeTime returns ts in UTC with the monotonic clock reading stripped.
// The instant is unchanged.
func NormalizeTime(ts time.Time) time.Time {
	return ts.Round(0).UTC()
}

// HashKey returns a 64-bit BLAKE2b digest of s.
// Identical input always produces the same key.
func HashKey(s string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(s))
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
