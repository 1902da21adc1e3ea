package driven

import "github.com/custodia-labs/affinity-cli/internal/core/domain"

// ThemeSimilarity scores how likely two themes describe the same thing.
// Higher is more similar; merge logic only compares scores against its own
// acceptance threshold, so implementations may be swapped freely.
type ThemeSimilarity interface {
	Score(a, b domain.Affinity) float64
}
