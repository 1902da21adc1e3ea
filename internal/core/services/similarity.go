package services

import (
	"strings"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Ensure HeuristicSimilarity implements the interface.
var _ driven.ThemeSimilarity = HeuristicSimilarity{}

// Match scores awarded by HeuristicSimilarity.
const (
	scoreExactName     = 0.8
	scoreSubstringName = 0.6
	scoreWordOverlap   = 0.4
	scoreSameCategory  = 0.2

	// wordOverlapMatch is the Jaccard score above which two names count as overlapping.
	wordOverlapMatch = 0.7

	// similarityAccept is the combined score a match must exceed.
	similarityAccept = 0.5
)

// HeuristicSimilarity scores themes by name and category.
// An exact name scores 0.8, containment 0.6 and strong word overlap 0.4,
// plus 0.2 when the categories agree.
type HeuristicSimilarity struct{}

// Score returns the combined similarity of a and b.
func (HeuristicSimilarity) Score(a, b domain.Affinity) float64 {
	na, nb := a.Key(), b.Key()

	var score float64
	switch {
	case na == "" || nb == "":
	case na == nb:
		score = scoreExactName
	case strings.Contains(na, nb) || strings.Contains(nb, na):
		score = scoreSubstringName
	case WordOverlap(na, nb) > wordOverlapMatch:
		score = scoreWordOverlap
	}

	if strings.EqualFold(strings.TrimSpace(a.Category), strings.TrimSpace(b.Category)) {
		score += scoreSameCategory
	}
	return score
}

// WordOverlap returns the Jaccard similarity of the lowercase word sets of a and b.
// Either side being empty yields 0.
func WordOverlap(a, b string) float64 {
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	union := len(wa) + len(wb) - shared
	return float64(shared) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
