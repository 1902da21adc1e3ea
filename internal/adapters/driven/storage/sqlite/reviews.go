package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// reviewStore implements driven.ReviewStore.
type reviewStore struct {
	store *Store
}

var _ driven.ReviewStore = (*reviewStore)(nil)

// Save stores or updates a review.
func (s *reviewStore) Save(ctx context.Context, review *domain.Review) error {
	data, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("marshalling review: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO reviews (id, destination, status, priority, submitted_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			priority = excluded.priority,
			data = excluded.data
	`, review.ID, review.Destination, string(review.Status), string(review.Priority),
		review.SubmittedAt.UTC().UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("saving review: %w", err)
	}
	return nil
}

// Get retrieves a review by ID.
func (s *reviewStore) Get(ctx context.Context, id string) (*domain.Review, error) {
	var data string
	row := s.store.db.QueryRowContext(ctx, "SELECT data FROM reviews WHERE id = ?", id)
	if err := row.Scan(&data); err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning review: %w", err)
	}

	var review domain.Review
	if err := json.Unmarshal([]byte(data), &review); err != nil {
		return nil, fmt.Errorf("unmarshaling review: %w", err)
	}
	return &review, nil
}

// List returns every review ordered by submission time.
func (s *reviewStore) List(ctx context.Context) ([]domain.Review, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT data FROM reviews ORDER BY submitted_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		var review domain.Review
		if err := json.Unmarshal([]byte(data), &review); err != nil {
			return nil, fmt.Errorf("unmarshaling review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reviews: %w", err)
	}
	return reviews, nil
}
