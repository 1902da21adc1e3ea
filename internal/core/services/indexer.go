package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.Indexer = (*IndexService)(nil)

// IndexService scans session directories into the session registry.
type IndexService struct {
	source   driven.SessionSource
	registry driven.SessionRegistry
}

// NewIndexService creates a new index service.
func NewIndexService(source driven.SessionSource, registry driven.SessionRegistry) *IndexService {
	return &IndexService{
		source:   source,
		registry: registry,
	}
}

// IndexDestination re-syncs the registry entries of a destination with the
// sessions on disk and returns how many were found.
func (s *IndexService) IndexDestination(ctx context.Context, destination string) (int, error) {
	if s.registry == nil {
		return 0, errors.New("session registry not configured")
	}

	slug := domain.Slug(destination)
	fingerprint, err := s.source.Fingerprint(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("fingerprint sessions for %s: %w", slug, err)
	}
	sessions, err := s.source.Discover(ctx, slug)
	if err != nil {
		return 0, fmt.Errorf("discover sessions for %s: %w", slug, err)
	}
	if err := s.registry.Replace(ctx, slug, fingerprint, sessions); err != nil {
		return 0, fmt.Errorf("index sessions for %s: %w", slug, err)
	}

	logger.Debug("Indexed %d sessions for %s", len(sessions), slug)
	return len(sessions), nil
}

// IndexAll indexes every destination found under the outputs directory and
// returns the number of session records seen.
func (s *IndexService) IndexAll(ctx context.Context) (int, error) {
	destinations, err := s.source.Destinations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list destinations: %w", err)
	}

	total := 0
	for _, slug := range destinations {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.IndexDestination(ctx, slug)
		if err != nil {
			return total, err
		}
		total += n
	}

	logger.Info("Indexed %d session records across %d destinations", total, len(destinations))
	return total, nil
}
