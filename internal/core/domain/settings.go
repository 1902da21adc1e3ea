package domain

import "time"

// PathSettings locates the stores the pipeline reads and writes.
type PathSettings struct {
	// Outputs is the root holding session_* directories.
	Outputs string

	// Cache is the root of the consolidated, versions and exports caches.
	Cache string

	// Exports is the root export bundles are written under.
	Exports string
}

// ThemeSettings configures the theme lifecycle.
type ThemeSettings struct {
	// EnableIncrementalUpdates allows existing themes to be preserved.
	EnableIncrementalUpdates bool

	// IncrementalUpdateThresholdDays is the age after which themes are regenerated.
	IncrementalUpdateThresholdDays int

	// MinQualityForPreservation is the quality below which themes are regenerated.
	MinQualityForPreservation float64

	// MergeStrategy selects how new themes merge with existing ones.
	MergeStrategy MergeStrategy

	// QualityImprovementThreshold is the confidence margin a new theme needs
	// to displace an existing one.
	QualityImprovementThreshold float64

	// SimilarityThreshold is the word-overlap score above which two theme
	// names are considered the same theme in additive merges.
	SimilarityThreshold float64
}

// SessionSettings configures cross-session consolidation.
type SessionSettings struct {
	// ConsolidationStrategy selects how sessions are reconciled.
	ConsolidationStrategy ConsolidationStrategy

	// MaxSessionsToConsider bounds discovery I/O.
	MaxSessionsToConsider int

	// MinQualityForPreservation is the quality below which a warning is logged.
	MinQualityForPreservation float64

	// ConsolidatedCacheTTL is how long consolidated records stay cached.
	ConsolidatedCacheTTL time.Duration

	// UseRegistry discovers sessions through the session registry.
	UseRegistry bool
}

// CacheSettings configures the enhanced cache.
type CacheSettings struct {
	// DataVersioning keeps immutable dated copies of cached records.
	DataVersioning bool

	// MaxVersionsPerDestination bounds the versions store per destination.
	MaxVersionsPerDestination int
}

// ExportSettings configures the export system.
type ExportSettings struct {
	DefaultFormat               ExportFormat
	MinQualityForExport         float64
	RequireBothThemesAndNuances bool
	CopyImages                  bool
	CreateImageManifest         bool
	IncludeSchemaMetadata       bool
	ValidateIntegrity           bool
	OrganizeByDestination       bool
	SchemaVersion               string
	Version                     string
}

// QASettings configures the review workflow.
type QASettings struct {
	// AutoApproveThreshold is the quality at or above which no review is created.
	AutoApproveThreshold float64

	// RequireReviewThreshold is the quality below which two reviewers are required.
	RequireReviewThreshold float64

	// Reviewers is the pool reviewers are assigned from, in order.
	Reviewers []string
}

// Settings holds all pipeline configuration.
type Settings struct {
	Paths    PathSettings
	Themes   ThemeSettings
	Sessions SessionSettings
	Cache    CacheSettings
	Export   ExportSettings
	QA       QASettings
}

// ExportCacheTTL is the fixed lifetime of cached export payloads. Export
// payloads are derived artifacts, so they expire well before the
// consolidated-data TTL.
const ExportCacheTTL = time.Hour

// DefaultReviewers returns the reviewer pool used when none is configured.
func DefaultReviewers() []string {
	return []string{
		"reviewer_subject_expert_001",
		"reviewer_editorial_002",
		"reviewer_local_expert_003",
		"reviewer_qa_004",
	}
}

// DefaultSettings returns sensible defaults for every setting.
func DefaultSettings() Settings {
	return Settings{
		Paths: PathSettings{
			Outputs: "outputs",
			Cache:   "cache",
			Exports: "exports",
		},
		Themes: ThemeSettings{
			EnableIncrementalUpdates:       false,
			IncrementalUpdateThresholdDays: 7,
			MinQualityForPreservation:      0.7,
			MergeStrategy:                  MergeQualityBased,
			QualityImprovementThreshold:    0.05,
			SimilarityThreshold:            0.85,
		},
		Sessions: SessionSettings{
			ConsolidationStrategy:     ConsolidationQualityBased,
			MaxSessionsToConsider:     10,
			MinQualityForPreservation: 0.6,
			ConsolidatedCacheTTL:      24 * time.Hour,
			UseRegistry:               true,
		},
		Cache: CacheSettings{
			DataVersioning:            true,
			MaxVersionsPerDestination: 5,
		},
		Export: ExportSettings{
			DefaultFormat:               ExportStructured,
			MinQualityForExport:         0.6,
			RequireBothThemesAndNuances: false,
			CopyImages:                  true,
			CreateImageManifest:         true,
			IncludeSchemaMetadata:       true,
			ValidateIntegrity:           true,
			OrganizeByDestination:       true,
			SchemaVersion:               "2024.1",
			Version:                     "1.0.0",
		},
		QA: QASettings{
			AutoApproveThreshold:   0.85,
			RequireReviewThreshold: 0.6,
			Reviewers:              DefaultReviewers(),
		},
	}
}
