package core

import (
	"fmt"
	"math"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces document identifiers.
// Every identifier returned by one generator must be unique for its lifetime.
// Implementations must be safe for concurrent use.
type IDGenerator interface {
	NextID() (string, error)
}

// SequenceGenerator produces decimal identifiers from a monotonically
// increasing counter. The first identifier is seed+1.
type SequenceGenerator struct {
	last atomic.Uint64
}

var _ IDGenerator = (*SequenceGenerator)(nil)

// NewSequenceGenerator creates a SequenceGenerator starting after seed.
func NewSequenceGenerator(seed uint64) *SequenceGenerator {
	g := &SequenceGenerator{}
	g.last.Store(seed)
	return g
}

// NextID returns the next identifier in the sequence.
func (g *SequenceGenerator) NextID() (string, error) {
	for {
		cur := g.last.Load()
		if cur == math.MaxUint64 {
			return "", fmt.Errorf("%w: sequence reached %d", ErrIDExhausted, cur)
		}
		if g.last.CompareAndSwap(cur, cur+1) {
			return strconv.FormatUint(cur+1, 10), nil
		}
	}
}

// UUIDGenerator produces random (version 4) UUID strings.
type UUIDGenerator struct{}

var _ IDGenerator = UUIDGenerator{}

// NextID returns a new random UUID.
func (UUIDGenerator) NextID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
