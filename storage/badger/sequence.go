package badger

import (
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docman/core"
)

// SequenceGenerator adapts a BadgerDB sequence to core.IDGenerator.
type SequenceGenerator struct {
	seq *badger.Sequence
}

var _ core.IDGenerator = (*SequenceGenerator)(nil)

// NextID returns the next sequence value as a decimal string.
func (g *SequenceGenerator) NextID() (string, error) {
	next, err := g.seq.Next()
	if err != nil {
		return "", err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if next == 0 {
		next, err = g.seq.Next()
		if err != nil {
			return "", err
		}
	}
	return strconv.FormatUint(next, 10), nil
}
