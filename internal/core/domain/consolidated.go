package domain

import (
	"sort"
	"time"
)

// ConsolidationStrategy selects how data from several sessions is reconciled.
type ConsolidationStrategy string

// Available consolidation strategies.
const (
	// ConsolidationLatestWins takes the newest session's value per data type.
	ConsolidationLatestWins ConsolidationStrategy = "latest_wins"

	// ConsolidationQualityBased takes the highest-scored session per data type.
	ConsolidationQualityBased ConsolidationStrategy = "quality_based"

	// ConsolidationAdditive unions unique entries across all sessions.
	ConsolidationAdditive ConsolidationStrategy = "additive"
)

// IsValid returns true if the strategy is recognised.
func (s ConsolidationStrategy) IsValid() bool {
	switch s {
	case ConsolidationLatestWins, ConsolidationQualityBased, ConsolidationAdditive:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ConsolidationStrategy) String() string {
	return string(s)
}

// ConsolidationMetadata records how a ConsolidatedData value was built.
type ConsolidationMetadata struct {
	// Strategy is the consolidation strategy that produced the record.
	Strategy ConsolidationStrategy `json:"consolidation_strategy"`

	// ConsolidatedAt is when the record was built.
	ConsolidatedAt time.Time `json:"consolidation_timestamp"`

	// QualityScores holds the quality of the chosen data per type.
	QualityScores map[DataType]float64 `json:"quality_scores"`

	// DataSources lists the session IDs each data type was taken from.
	DataSources map[DataType][]string `json:"data_sources"`
}

// ConsolidatedData is the canonical cross-session view of one destination.
// It is built fresh on every consolidation and never mutated in place.
type ConsolidatedData struct {
	Destination    string                `json:"destination"`
	Themes         *ThemeRecord          `json:"themes"`
	Nuances        *NuanceBundle         `json:"nuances"`
	Images         map[string]string     `json:"images"`
	Evidence       []Evidence            `json:"evidence"`
	Metadata       ConsolidationMetadata `json:"metadata"`
	SourceSessions []string              `json:"source_sessions"`
}

// HasThemes reports whether any themes survived consolidation.
func (c *ConsolidatedData) HasThemes() bool {
	return c != nil && !c.Themes.IsEmpty()
}

// HasNuances reports whether any nuance phrases survived consolidation.
func (c *ConsolidatedData) HasNuances() bool {
	return c != nil && !c.Nuances.IsEmpty()
}

// AddSource records that session contributed data of type t.
// SourceSessions stays the sorted, deduplicated union of all contributors.
func (c *ConsolidatedData) AddSource(t DataType, sessionID string) {
	if sessionID == "" {
		return
	}
	if c.Metadata.DataSources == nil {
		c.Metadata.DataSources = make(map[DataType][]string)
	}
	if !containsString(c.Metadata.DataSources[t], sessionID) {
		c.Metadata.DataSources[t] = append(c.Metadata.DataSources[t], sessionID)
	}
	if !containsString(c.SourceSessions, sessionID) {
		c.SourceSessions = append(c.SourceSessions, sessionID)
		sort.Strings(c.SourceSessions)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ConsolidationStats is a read-only summary of the sessions available for
// a destination.
type ConsolidationStats struct {
	Destination   string                    `json:"destination"`
	TotalSessions int                       `json:"total_sessions"`
	Availability  map[DataType]int          `json:"data_type_availability"`
	Oldest        *time.Time                `json:"oldest,omitempty"`
	Newest        *time.Time                `json:"newest,omitempty"`
	QualityRanges map[DataType]QualityRange `json:"quality_ranges"`
}

// QualityRange summarises quality scores for one data type.
type QualityRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}
