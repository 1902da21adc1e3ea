package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Ensure SessionRegistry implements the interface.
var _ driven.SessionRegistry = (*SessionRegistry)(nil)

// SessionRegistry is an in-memory implementation of driven.SessionRegistry.
type SessionRegistry struct {
	mu           sync.RWMutex
	sessions     map[string]map[string]domain.Session
	fingerprints map[string]string
}

// NewSessionRegistry creates a new in-memory session registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions:     make(map[string]map[string]domain.Session),
		fingerprints: make(map[string]string),
	}
}

// Record indexes the artifacts of each session, refreshing known quality scores.
func (r *SessionRegistry) Record(_ context.Context, sessions ...domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range sessions {
		r.record(s)
	}
	return nil
}

// Replace swaps every indexed session of slug and stores fingerprint.
func (r *SessionRegistry) Replace(_ context.Context, slug, fingerprint string, sessions []domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slug = domain.Slug(slug)
	delete(r.sessions, slug)
	for _, s := range sessions {
		s.Destination = slug
		r.record(s)
	}
	r.fingerprints[slug] = fingerprint
	return nil
}

// Fingerprint returns the fingerprint stored by the last Replace of slug.
func (r *SessionRegistry) Fingerprint(_ context.Context, slug string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fingerprints[domain.Slug(slug)], nil
}

// record must be called with the write lock held.
func (r *SessionRegistry) record(s domain.Session) {
	slug := domain.Slug(s.Destination)
	bySession, ok := r.sessions[slug]
	if !ok {
		bySession = make(map[string]domain.Session)
		r.sessions[slug] = bySession
	}

	existing, ok := bySession[s.ID]
	if !ok {
		existing = domain.Session{
			ID:            s.ID,
			Path:          s.Path,
			Destination:   slug,
			CreatedAt:     s.CreatedAt,
			QualityScores: make(map[domain.DataType]float64),
		}
	}
	for _, t := range s.DataTypes {
		if !existing.Has(t) {
			existing.DataTypes = append(existing.DataTypes, t)
		}
		if t != domain.DataTypeImages {
			existing.QualityScores[t] = s.Quality(t)
		}
	}
	bySession[s.ID] = existing
}

// List returns the indexed sessions for a destination slug, newest first.
func (r *SessionRegistry) List(_ context.Context, slug string) ([]domain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bySession := r.sessions[domain.Slug(slug)]
	result := make([]domain.Session, 0, len(bySession))
	for _, s := range bySession {
		s.DataTypes = append([]domain.DataType(nil), s.DataTypes...)
		scores := make(map[domain.DataType]float64, len(s.QualityScores))
		for t, q := range s.QualityScores {
			scores[t] = q
		}
		s.QualityScores = scores
		result = append(result, s)
	}
	domain.SortSessionsNewestFirst(result)
	return result, nil
}

// Destinations returns every indexed destination slug.
func (r *SessionRegistry) Destinations(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]string, 0, len(r.sessions))
	for slug := range r.sessions {
		result = append(result, slug)
	}
	sort.Strings(result)
	return result, nil
}
