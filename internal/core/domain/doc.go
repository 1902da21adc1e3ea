// Package domain defines the core business entities for the affinity
// consolidation pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Session: One immutable processing run's output for a destination
//   - Affinity / ThemeRecord: Thematic recommendations and their envelope
//   - NuanceBundle: Categorised nuance phrases
//   - ConsolidatedData: The canonical cross-session view of a destination
//   - CacheEntry / DataChanges: Versioned cache records and their diffs
//   - Review: A human-review workflow instance
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
