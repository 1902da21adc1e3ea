package services

import (
	"sync"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// DestinationLocks is a set of advisory mutexes keyed by destination slug.
// Consolidation, theme merges and exports for the same destination
// serialise on it; different destinations proceed independently.
type DestinationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDestinationLocks creates an empty lock set.
func NewDestinationLocks() *DestinationLocks {
	return &DestinationLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for destination and returns its release function.
// Callers should defer the returned function.
func (l *DestinationLocks) Lock(destination string) func() {
	slug := domain.Slug(destination)

	l.mu.Lock()
	m, ok := l.locks[slug]
	if !ok {
		m = &sync.Mutex{}
		l.locks[slug] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
