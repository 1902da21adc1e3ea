package driven

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// SessionRegistry indexes which sessions hold which artifacts for each
// destination. It replaces a directory walk per consolidation with a single
// lookup for as long as the outputs fingerprint it was synced at still holds.
type SessionRegistry interface {
	// Record indexes the artifacts of each session. Recording an artifact
	// that is already indexed refreshes its quality score.
	Record(ctx context.Context, sessions ...domain.Session) error

	// Replace swaps every indexed session of slug for sessions and stores
	// the SessionSource fingerprint they were discovered at.
	Replace(ctx context.Context, slug, fingerprint string, sessions []domain.Session) error

	// Fingerprint returns the fingerprint stored by the last Replace of
	// slug, or "" if the destination was never synced.
	Fingerprint(ctx context.Context, slug string) (string, error)

	// List returns the indexed sessions for a destination slug, newest first.
	// Returns an empty slice (not an error) for unknown destinations.
	List(ctx context.Context, slug string) ([]domain.Session, error)

	// Destinations returns every indexed destination slug.
	Destinations(ctx context.Context) ([]string, error)
}
