package driving

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// ThemeLifecycle decides whether a destination's themes need regeneration
// and merges freshly generated themes into existing records.
type ThemeLifecycle interface {
	// ShouldUpdateThemes reports whether full theme processing is required.
	// It never fails: missing or unreadable data means "update".
	ShouldUpdateThemes(ctx context.Context, destination string) bool

	// LatestThemes returns the most recent theme record for a destination.
	// Returns domain.ErrNotFound if none exists.
	LatestThemes(ctx context.Context, destination string) (*domain.ThemeRecord, error)

	// MergeThemeData merges newThemes into existing using the configured strategy.
	// A nil existing record is treated as empty.
	MergeThemeData(ctx context.Context, destination string, newThemes []domain.Affinity, existing *domain.ThemeRecord) (*domain.ThemeRecord, error)

	// SaveThemes persists a record into a session directory.
	SaveThemes(ctx context.Context, sessionID string, record *domain.ThemeRecord) (domain.Session, error)

	// ThemeStatistics reports on the latest themes of a destination.
	ThemeStatistics(ctx context.Context, destination string) domain.ThemeStatistics
}
