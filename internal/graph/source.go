package graph

import (
	"sync"

	"golang.org/x/exp/rand"
)

// lockedSource serialises access to a PCG source so that gonum
// distributions can sample from concurrent layer builds.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func newLockedSource(seed uint64) *lockedSource {
	return &lockedSource{src: rand.NewSource(seed)}
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	v := s.src.Uint64()
	s.mu.Unlock()
	return v
}

func (s *lockedSource) Seed(seed uint64) {
	s.mu.Lock()
	s.src.Seed(seed)
	s.mu.Unlock()
}
