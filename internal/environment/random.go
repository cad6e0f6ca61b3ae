package environment

import (
	"math/rand/v2"
	"sync"
)

// Rand is the random source behind the synthetic current and weather.
// Implementations must return values in [0, 1).
type Rand interface {
	Float64() float64
}

// LockedRand is a PCG source safe for concurrent use
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewLockedRand(seed1, seed2 uint64) *LockedRand {
	return &LockedRand{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// NewRandomSource returns a LockedRand seeded from the runtime generator
func NewRandomSource() *LockedRand {
	return NewLockedRand(rand.Uint64(), rand.Uint64())
}

func (l *LockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
