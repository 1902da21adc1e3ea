// Package scoring implements the affinity quality scorer.
package scoring

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.QualityScorer = (*Scorer)(nil)

// Metric names reported by Score.
const (
	MetricFactualAccuracy  = "factual_accuracy"
	MetricThematicCoverage = "thematic_coverage"
	MetricActionability    = "actionability"
)

var metricWeights = map[string]float64{
	MetricFactualAccuracy:  0.35,
	MetricThematicCoverage: 0.30,
	MetricActionability:    0.35,
}

// expectedCategories is the category spread a complete set covers.
var expectedCategories = []string{"culture", "adventure", "nature", "luxury", "family", "wellness"}

// travelerTypes is the number of traveler types a complete set covers
// (solo, couple, family, group).
const travelerTypes = 4

var actionWords = []struct {
	words  []string
	weight float64
}{
	{[]string{"visit", "book", "try", "experience", "explore", "discover", "enjoy"}, 0.3},
	{[]string{"see", "view", "learn", "understand", "appreciate"}, 0.2},
	{[]string{"consider", "think about", "contemplate"}, 0.1},
}

var placeWords = []string{"museum", "restaurant", "park", "beach", "trail"}

// Scorer scores affinity sets from confidence, coverage and actionable language.
type Scorer struct{}

// NewScorer creates a new scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the weighted overall score rounded to three decimals and
// the individual metrics. An empty set scores 0.
func (s *Scorer) Score(affinities []domain.Affinity) (float64, map[string]float64) {
	metrics := map[string]float64{
		MetricFactualAccuracy:  0,
		MetricThematicCoverage: 0,
		MetricActionability:    0,
	}
	if len(affinities) == 0 {
		return 0, metrics
	}

	metrics[MetricFactualAccuracy] = domain.MeanConfidence(affinities)
	metrics[MetricThematicCoverage] = coverage(affinities)
	metrics[MetricActionability] = actionability(affinities)

	var overall float64
	for name, value := range metrics {
		overall += value * metricWeights[name]
	}
	return math.Round(overall*1000) / 1000, metrics
}

func coverage(affinities []domain.Affinity) float64 {
	categories := make(map[string]bool)
	themes := make(map[string]bool)
	travelers := make(map[string]bool)
	for i := range affinities {
		a := &affinities[i]
		categories[strings.ToLower(a.Category)] = true
		themes[a.Key()] = true
		for _, t := range extraStrings(a.Extra, "traveler_types") {
			travelers[t] = true
		}
	}

	var covered int
	for _, c := range expectedCategories {
		if categories[c] {
			covered++
		}
	}
	categoryCoverage := float64(covered) / float64(len(expectedCategories))
	themeDiversity := float64(len(themes)) / float64(len(affinities))
	travelerCoverage := math.Min(1, float64(len(travelers))/travelerTypes)

	return math.Min(1, categoryCoverage*0.4+themeDiversity*0.4+travelerCoverage*0.2)
}

func actionability(affinities []domain.Affinity) float64 {
	var total float64
	for i := range affinities {
		a := &affinities[i]
		text := strings.ToLower(strings.Join([]string{
			a.Theme,
			extraString(a.Extra, "rationale"),
			strings.Join(extraStrings(a.Extra, "unique_selling_points"), " "),
		}, " "))

		var score float64
		for _, level := range actionWords {
			for _, w := range level.words {
				if strings.Contains(text, w) {
					score += level.weight
				}
			}
		}
		for _, w := range placeWords {
			if strings.Contains(text, w) {
				score += 0.2
				break
			}
		}
		if _, ok := a.Extra["price_point"]; ok {
			score += 0.1
		}
		if extraPeakSeason(a.Extra) {
			score += 0.1
		}
		total += math.Min(1, score)
	}
	return total / float64(len(affinities))
}

func extraString(extra domain.Extra, key string) string {
	var s string
	if raw, ok := extra[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func extraStrings(extra domain.Extra, key string) []string {
	var list []string
	if raw, ok := extra[key]; ok {
		_ = json.Unmarshal(raw, &list)
	}
	return list
}

func extraPeakSeason(extra domain.Extra) bool {
	var seasonality struct {
		Peak json.RawMessage `json:"peak"`
	}
	raw, ok := extra["seasonality"]
	if !ok || json.Unmarshal(raw, &seasonality) != nil {
		return false
	}
	peak := strings.TrimSpace(string(seasonality.Peak))
	return peak != "" && peak != "null" && peak != `""` && peak != "[]"
}
