package driving

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// Exporter writes consolidated records as durable, validated bundles.
type Exporter interface {
	// ExportDestination validates and writes data. An empty format uses the
	// configured default. Validation failures return domain.ErrExportValidation
	// before anything is written.
	ExportDestination(ctx context.Context, destination string, data *domain.ConsolidatedData, format domain.ExportFormat) (*domain.ExportResult, error)

	// CreateArchive zips an export directory next to it and returns the archive path.
	CreateArchive(ctx context.Context, exportPath string) (string, error)

	// Statistics summarises the exports directory.
	Statistics(ctx context.Context) (*domain.ExportStatistics, error)

	// CleanupOldExports removes exports older than daysOld and returns the count.
	CleanupOldExports(ctx context.Context, daysOld int) (int, error)
}

// BulkExporter exports every destination that has session data.
type BulkExporter interface {
	// Destinations returns the readable name of every destination with
	// session data, sorted.
	Destinations(ctx context.Context) ([]string, error)

	// ExportAll consolidates and exports every destination. A destination
	// that fails is recorded in the result and does not stop the others.
	// Returns an error only if the destinations cannot be listed.
	ExportAll(ctx context.Context, format domain.ExportFormat) (*domain.BulkExportResult, error)
}
