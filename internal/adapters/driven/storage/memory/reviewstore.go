package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Ensure ReviewStore implements the interface.
var _ driven.ReviewStore = (*ReviewStore)(nil)

// ReviewStore is an in-memory implementation of driven.ReviewStore.
// Reviews are stored as JSON so callers never share mutable state with the store.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews map[string][]byte
}

// NewReviewStore creates a new in-memory review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		reviews: make(map[string][]byte),
	}
}

// Save stores or updates a review.
func (s *ReviewStore) Save(_ context.Context, review *domain.Review) error {
	data, err := json.Marshal(review)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[review.ID] = data
	return nil
}

// Get retrieves a review by ID.
func (s *ReviewStore) Get(_ context.Context, id string) (*domain.Review, error) {
	s.mu.RLock()
	data, ok := s.reviews[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	var review domain.Review
	if err := json.Unmarshal(data, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// List returns every review ordered by submission time.
func (s *ReviewStore) List(_ context.Context) ([]domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Review, 0, len(s.reviews))
	for _, data := range s.reviews {
		var review domain.Review
		if err := json.Unmarshal(data, &review); err != nil {
			return nil, err
		}
		result = append(result, review)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SubmittedAt.Before(result[j].SubmittedAt)
	})
	return result, nil
}
