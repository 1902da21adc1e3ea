package domain

// MergeStrategy selects how new themes are combined with an existing record.
type MergeStrategy string

// Available merge strategies.
const (
	// MergeReplace discards the existing record.
	MergeReplace MergeStrategy = "replace"

	// MergeAdditive keeps every existing theme and appends novel ones.
	MergeAdditive MergeStrategy = "additive"

	// MergeQualityBased keeps the better of matched themes and appends novel ones.
	MergeQualityBased MergeStrategy = "quality_based"
)

// IsValid returns true if the strategy is recognised.
func (m MergeStrategy) IsValid() bool {
	switch m {
	case MergeReplace, MergeAdditive, MergeQualityBased:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m MergeStrategy) String() string {
	return string(m)
}

// ThemeStatistics is a read-only report on a destination's latest themes.
// A destination without data yields a zero report, not an error.
type ThemeStatistics struct {
	HasExistingData    bool     `json:"has_existing_data"`
	ThemeCount         int      `json:"theme_count"`
	QualityScore       float64  `json:"quality_score"`
	LastUpdated        string   `json:"last_updated,omitempty"`
	Categories         []string `json:"categories"`
	ProcessingStrategy string   `json:"processing_strategy,omitempty"`
}
