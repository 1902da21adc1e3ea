package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "outputs", s.Paths.Outputs)
	assert.Equal(t, "cache", s.Paths.Cache)
	assert.Equal(t, "exports", s.Paths.Exports)

	assert.False(t, s.Themes.EnableIncrementalUpdates)
	assert.Equal(t, 7, s.Themes.IncrementalUpdateThresholdDays)
	assert.Equal(t, MergeQualityBased, s.Themes.MergeStrategy)
	assert.InDelta(t, 0.05, s.Themes.QualityImprovementThreshold, 1e-9)

	assert.Equal(t, ConsolidationQualityBased, s.Sessions.ConsolidationStrategy)
	assert.Equal(t, 10, s.Sessions.MaxSessionsToConsider)
	assert.Equal(t, 24*time.Hour, s.Sessions.ConsolidatedCacheTTL)

	assert.True(t, s.Cache.DataVersioning)
	assert.Equal(t, 5, s.Cache.MaxVersionsPerDestination)

	assert.Equal(t, ExportStructured, s.Export.DefaultFormat)
	assert.InDelta(t, 0.6, s.Export.MinQualityForExport, 1e-9)
	assert.True(t, s.Export.CopyImages)
	assert.True(t, s.Export.ValidateIntegrity)

	assert.InDelta(t, 0.85, s.QA.AutoApproveThreshold, 1e-9)
	assert.InDelta(t, 0.6, s.QA.RequireReviewThreshold, 1e-9)
	assert.Equal(t, DefaultReviewers(), s.QA.Reviewers)
}

func TestDefaultSettings_EnumsAreValid(t *testing.T) {
	s := DefaultSettings()

	assert.True(t, s.Themes.MergeStrategy.IsValid())
	assert.True(t, s.Sessions.ConsolidationStrategy.IsValid())
	assert.True(t, s.Export.DefaultFormat.IsValid())
	assert.Less(t, s.QA.RequireReviewThreshold, s.QA.AutoApproveThreshold)
}

func TestDefaultSettings_ReviewersAreIndependent(t *testing.T) {
	a := DefaultSettings()
	a.QA.Reviewers[0] = "someone_else"

	b := DefaultSettings()
	assert.Equal(t, "reviewer_subject_expert_001", b.QA.Reviewers[0])
	assert.Len(t, b.QA.Reviewers, 4)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, MergeReplace.IsValid())
	assert.True(t, MergeAdditive.IsValid())
	assert.False(t, MergeStrategy("latest_wins").IsValid())

	assert.True(t, ConsolidationLatestWins.IsValid())
	assert.True(t, ConsolidationAdditive.IsValid())
	assert.False(t, ConsolidationStrategy("replace").IsValid())

	assert.True(t, ExportJSON.IsValid())
	assert.False(t, ExportFormat("csv").IsValid())

	assert.True(t, DataTypeImages.IsValid())
	assert.False(t, DataType("evidence").IsValid())
}

func TestExportCacheTTL_ShorterThanConsolidatedTTL(t *testing.T) {
	assert.Less(t, ExportCacheTTL, DefaultSettings().Sessions.ConsolidatedCacheTTL)
}
