package driving

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// DataCache memoises consolidated records and export payloads.
type DataCache interface {
	// CacheConsolidatedData stores data and returns its data version.
	CacheConsolidatedData(ctx context.Context, destination string, data *domain.ConsolidatedData) (string, error)

	// GetConsolidatedData returns the cached record, or nil on a miss or expiry.
	GetConsolidatedData(ctx context.Context, destination string) *domain.ConsolidatedData

	// InvalidateDestination drops the cached record for a destination.
	InvalidateDestination(ctx context.Context, destination string) error

	// Versions lists stored version prefixes for a destination, newest first.
	Versions(ctx context.Context, destination string) ([]string, error)

	// GetDataDiff diffs two stored versions, or returns nil if either is missing.
	GetDataDiff(ctx context.Context, destination, oldVersion, newVersion string) *domain.DataDiff

	// CacheExportData stores an export payload.
	CacheExportData(ctx context.Context, destination string, format domain.ExportFormat, payload map[string]any) error

	// GetCachedExportData returns a cached export payload, or nil on a miss or expiry.
	GetCachedExportData(ctx context.Context, destination string, format domain.ExportFormat) map[string]any

	// Statistics summarises every cache store.
	Statistics(ctx context.Context) (*domain.CacheStatistics, error)

	// ClearAll removes every cached file.
	ClearAll(ctx context.Context) error
}
