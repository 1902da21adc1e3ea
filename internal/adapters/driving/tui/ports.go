// Package tui provides an interactive terminal review console for affinity.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Consolidator merges the sessions of a destination.
	Consolidator driving.Consolidator

	// Cache serves consolidated records without re-reading sessions. Optional.
	Cache driving.DataCache

	// Reviews drives the quality review workflow.
	Reviews driving.ReviewFlow

	// Settings manages application settings.
	Settings driving.SettingsService

	// ReviewerID is the identity feedback is recorded under. Without it the
	// review detail view is read-only.
	ReviewerID string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Consolidator == nil {
		return ErrMissingConsolidator
	}
	if p.Reviews == nil {
		return ErrMissingReviewFlow
	}
	if p.Settings == nil {
		return ErrMissingSettingsService
	}
	return nil
}
