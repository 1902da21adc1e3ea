package driven

import "github.com/custodia-labs/affinity-cli/internal/core/domain"

// QualityScorer scores an affinity set. It is a pure function: the same
// input always yields the same score in [0,1] and the same metrics.
type QualityScorer interface {
	Score(affinities []domain.Affinity) (float64, map[string]float64)
}
