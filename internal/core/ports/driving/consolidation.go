package driving

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// Consolidator reconciles a destination's data across processing sessions.
type Consolidator interface {
	// ConsolidateDestination builds the canonical record for a destination.
	// Returns domain.ErrNoSessionData if no session holds data for it.
	ConsolidateDestination(ctx context.Context, destination string) (*domain.ConsolidatedData, error)

	// ConsolidationStatistics summarises the sessions available for a destination.
	ConsolidationStatistics(ctx context.Context, destination string) (*domain.ConsolidationStats, error)
}

// Indexer maintains the session registry.
type Indexer interface {
	// IndexDestination records every session holding data for a destination.
	IndexDestination(ctx context.Context, destination string) (int, error)

	// IndexAll records every session for every destination on disk.
	IndexAll(ctx context.Context) (int, error)
}
