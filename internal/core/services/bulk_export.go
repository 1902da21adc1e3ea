package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure BulkExportService implements the interface.
var _ driving.BulkExporter = (*BulkExportService)(nil)

// BulkExportService exports every destination found under the outputs directory.
type BulkExportService struct {
	source       driven.SessionSource
	consolidator driving.Consolidator
	cache        driving.DataCache
	exporter     driving.Exporter
}

// NewBulkExportService creates a new bulk export service.
// The cache is optional (can be nil); without it every destination is re-consolidated.
func NewBulkExportService(
	source driven.SessionSource,
	consolidator driving.Consolidator,
	cache driving.DataCache,
	exporter driving.Exporter,
) *BulkExportService {
	return &BulkExportService{
		source:       source,
		consolidator: consolidator,
		cache:        cache,
		exporter:     exporter,
	}
}

// Destinations returns the readable name of every destination with session data.
func (s *BulkExportService) Destinations(ctx context.Context) ([]string, error) {
	slugs, err := s.source.Destinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list destinations: %w", err)
	}

	names := make([]string, 0, len(slugs))
	for _, slug := range slugs {
		names = append(names, domain.DisplayName(slug))
	}
	sort.Strings(names)
	return names, nil
}

// ExportAll exports every destination, isolating failures per destination.
func (s *BulkExportService) ExportAll(ctx context.Context, format domain.ExportFormat) (*domain.BulkExportResult, error) {
	destinations, err := s.Destinations(ctx)
	if err != nil {
		return nil, err
	}
	defer logger.Timed("Bulk export of %d destinations", len(destinations))()
	logger.Section("Bulk Export")

	result := &domain.BulkExportResult{
		Format:  format,
		Total:   len(destinations),
		Results: make(map[string]domain.BulkExportOutcome, len(destinations)),
	}
	for _, destination := range destinations {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		exported, err := s.exportOne(ctx, destination, format)
		if err != nil {
			logger.Error("Failed to export %s: %v", destination, err)
			result.Results[destination] = domain.BulkExportOutcome{Error: err.Error()}
			result.Failed++
			continue
		}
		if result.Format == "" {
			result.Format = exported.Format
		}
		result.Results[destination] = domain.BulkExportOutcome{Path: exported.Path}
		result.Succeeded++
	}

	logger.Info("Bulk export completed: %d/%d successful", result.Succeeded, result.Total)
	return result, nil
}

func (s *BulkExportService) exportOne(
	ctx context.Context, destination string, format domain.ExportFormat,
) (*domain.ExportResult, error) {
	data, err := s.load(ctx, destination)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportDestination(ctx, destination, data, format)
}

// load returns the cached record of destination, consolidating and caching
// it on a miss.
func (s *BulkExportService) load(ctx context.Context, destination string) (*domain.ConsolidatedData, error) {
	if s.cache != nil {
		if data := s.cache.GetConsolidatedData(ctx, destination); data != nil {
			return data, nil
		}
	}

	data, err := s.consolidator.ConsolidateDestination(ctx, destination)
	if err != nil {
		if errors.Is(err, domain.ErrNoSessionData) {
			return nil, fmt.Errorf("no data found for %s: %w", destination, err)
		}
		return nil, err
	}

	if s.cache != nil {
		if _, err := s.cache.CacheConsolidatedData(ctx, destination, data); err != nil {
			logger.Warn("Failed to cache %s: %v", destination, err)
		}
	}
	return data, nil
}
