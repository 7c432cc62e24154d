// Package random holds the sampling helpers used to build play sessions.
package random

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is a goroutine-safe PCG source.
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// New returns a time-seeded source.
func New() *Rand {
	now := uint64(time.Now().UnixNano())
	return NewSeeded(now, now>>1^0x9e3779b97f4a7c15)
}

// NewSeeded returns a deterministic source.
func NewSeeded(seed1, seed2 uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed1, seed2))}
}

func (r *Rand) shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.r.Shuffle(n, swap)
}

// Shuffle returns a uniformly permuted copy of items. items is left untouched.
func Shuffle[T any](r *Rand, items []T) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)
	r.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Sample returns min(n, len(items)) distinct elements in random order.
func Sample[T any](r *Rand, items []T, n int) []T {
	if n <= 0 {
		return []T{}
	}
	shuffled := Shuffle(r, items)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
