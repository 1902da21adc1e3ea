package driven

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// SessionSource reads and writes processing-session artifacts.
// The filesystem layout under outputs/ is the wire format between runs.
type SessionSource interface {
	// Discover scans every session for artifacts belonging to the destination
	// slug. Unreadable quality scores default to 0; discovery never fails
	// because of a single bad artifact.
	Discover(ctx context.Context, slug string) ([]domain.Session, error)

	// Destinations returns every destination slug with at least one artifact.
	Destinations(ctx context.Context) ([]string, error)

	// Fingerprint summarizes the on-disk layout that Discover would read for
	// slug. It changes whenever a session or artifact for slug is added,
	// replaced or removed, and is far cheaper than Discover.
	Fingerprint(ctx context.Context, slug string) (string, error)

	// LoadThemes loads the theme artifact of a session.
	// Returns domain.ErrNotFound if the session holds none.
	LoadThemes(ctx context.Context, session domain.Session) (*domain.ThemeRecord, error)

	// LoadNuances loads the nuance artifact of a session.
	// Returns domain.ErrNotFound if the session holds none.
	LoadNuances(ctx context.Context, session domain.Session) (*domain.NuanceBundle, error)

	// LoadEvidence loads every evidence list of a session.
	// A session without evidence returns an empty list and no error.
	LoadEvidence(ctx context.Context, session domain.Session) ([]domain.Evidence, error)

	// LoadImages returns the season → path mapping of a session.
	LoadImages(ctx context.Context, session domain.Session) (map[string]string, error)

	// SaveThemes writes a theme record into the named session, creating the
	// session directory if needed, and returns the session as re-inspected.
	SaveThemes(ctx context.Context, sessionID string, record *domain.ThemeRecord) (domain.Session, error)
}
