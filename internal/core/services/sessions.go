package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// sessionFinder resolves the sessions holding data for a destination.
// With a registry it answers from the index while the source fingerprint
// still matches the one the index was synced at, and rescans otherwise.
type sessionFinder struct {
	source      driven.SessionSource
	registry    driven.SessionRegistry
	useRegistry bool
}

// find returns the sessions for slug, newest first, re-syncing the registry
// whenever a scan was needed.
func (f sessionFinder) find(ctx context.Context, slug string) ([]domain.Session, error) {
	return f.lookup(ctx, slug, true)
}

// peek is find without writing to the registry.
func (f sessionFinder) peek(ctx context.Context, slug string) ([]domain.Session, error) {
	return f.lookup(ctx, slug, false)
}

func (f sessionFinder) lookup(ctx context.Context, slug string, record bool) ([]domain.Session, error) {
	var fingerprint string
	if f.useRegistry && f.registry != nil {
		fp, err := f.source.Fingerprint(ctx, slug)
		if err != nil {
			logger.Warn("Fingerprinting sessions for %s failed, scanning: %v", slug, err)
		} else {
			fingerprint = fp
			if sessions, ok := f.indexed(ctx, slug, fp); ok {
				return sessions, nil
			}
		}
	}

	sessions, err := f.source.Discover(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("discover sessions for %s: %w", slug, err)
	}
	domain.SortSessionsNewestFirst(sessions)
	logger.Debug("Scan found %d sessions for %s", len(sessions), slug)

	if record && fingerprint != "" {
		if err := f.registry.Replace(ctx, slug, fingerprint, sessions); err != nil {
			logger.Warn("Failed to index sessions for %s: %v", slug, err)
		}
	}
	return sessions, nil
}

// indexed returns the registry's sessions for slug when they were synced at
// fingerprint.
func (f sessionFinder) indexed(ctx context.Context, slug, fingerprint string) ([]domain.Session, bool) {
	stored, err := f.registry.Fingerprint(ctx, slug)
	if err != nil {
		logger.Warn("Registry lookup for %s failed, scanning sessions: %v", slug, err)
		return nil, false
	}
	if stored != fingerprint {
		logger.Debug("Registry for %s is out of date, rescanning", slug)
		return nil, false
	}

	sessions, err := f.registry.List(ctx, slug)
	if err != nil {
		logger.Warn("Registry lookup for %s failed, scanning sessions: %v", slug, err)
		return nil, false
	}
	domain.SortSessionsNewestFirst(sessions)
	logger.Debug("Registry returned %d sessions for %s", len(sessions), slug)
	return sessions, true
}
