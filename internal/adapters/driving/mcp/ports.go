package mcp

import (
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// Ports aggregates the services the MCP server exposes.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Consolidator merges session data per destination.
	Consolidator driving.Consolidator

	// Lifecycle reports on stored themes.
	Lifecycle driving.ThemeLifecycle

	// Cache serves consolidated records without re-reading sessions.
	Cache driving.DataCache

	// Exporter writes export bundles.
	Exporter driving.Exporter

	// Reviews runs the QA review workflow.
	Reviews driving.ReviewFlow

	// Scorer scores themes submitted without an explicit quality score.
	Scorer driven.QualityScorer
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Consolidator == nil {
		return ErrMissingConsolidator
	}
	// Everything else is optional; tools report ErrNotConfigured.
	return nil
}
