package random

import (
	"math/rand/v2"
	"sync"
)

// Random picks spawn cells for cars added without a position.
// Tests swap in a queue-driven mock.
type Random interface {
	// Intn returns a random int in [0, n). It returns 0 when n <= 0.
	Intn(n int) int
}

// Source implements Random on math/rand/v2
type Source struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// New creates a Source seeded from the runtime's random state
func New() *Source {
	return &Source{rnd: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded creates a Source that always yields the same sequence for a seed
func NewSeeded(seed uint64) *Source {
	return &Source{rnd: rand.New(rand.NewPCG(seed, seed))}
}

// Intn returns a random int in [0, n). Safe for concurrent use by game goroutines.
func (r *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.IntN(n)
}
