package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/scoring"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/outputs"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

const bangkok = "Bangkok, Thailand"

// writeSession writes a theme artifact into outputs/<id>/json and stamps the
// session directory with created.
func writeSession(t *testing.T, root, id string, created time.Time, quality float64, themes ...domain.Affinity) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "json"), 0o755))

	record := themeRecord(bangkok, 0, created, themes...)
	record.ProcessingMetadata.QualityScore = quality
	raw, err := json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "json", "bangkok__thailand_enhanced.json"), raw, 0o644))

	evidence := `[{"url":"https://example.com/markets","title":"Night markets"},{"url":"https://example.com/markets"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "json", "bangkok__thailand_evidence.json"), []byte(evidence), 0o644))

	require.NoError(t, os.Chtimes(dir, created, created))
}

func TestScenario_SessionsToReview(t *testing.T) {
	tmp := t.TempDir()
	settings := testSettings(tmp)
	settings.Themes.EnableIncrementalUpdates = true
	clock := newTestClock()
	ctx := context.Background()

	sessionA := "session_20240601_100000"
	sessionB := "session_20240605_100000"
	writeSession(t, settings.Paths.Outputs, sessionA, baseTime.Add(-9*24*time.Hour), 0.6,
		affinity("Food Tours", "food", 0.6))
	writeSession(t, settings.Paths.Outputs, sessionB, baseTime.Add(-5*24*time.Hour), 0.8,
		affinity("Food Tours", "food", 0.8),
		affinity("Night Markets", "shopping", 0.75))

	source := outputs.NewSource(settings.Paths.Outputs)
	registry := memory.NewSessionRegistry()
	locks := NewDestinationLocks()
	opts := []Option{WithClock(clock.Now), WithLocks(locks)}

	lifecycle := NewThemeLifecycleService(source, registry, nil, settings, opts...)
	consolidator := NewConsolidationService(source, registry, settings, opts...)
	cache := NewCacheService(settings, opts...)
	exporter := NewExportService(settings, fakeSchemas{}, cache, opts...)
	reviews := NewReviewService(memory.NewReviewStore(), settings, opts...)

	// Session B is recent and good enough to keep.
	assert.False(t, lifecycle.ShouldUpdateThemes(ctx, bangkok))

	data, err := consolidator.ConsolidateDestination(ctx, bangkok)
	require.NoError(t, err)
	require.Len(t, data.Themes.Affinities, 2)
	assert.Equal(t, "Food Tours", data.Themes.Affinities[0].Theme)
	assert.InDelta(t, 0.8, data.Themes.Affinities[0].Confidence, 1e-9)
	assert.Equal(t, "Night Markets", data.Themes.Affinities[1].Theme)
	assert.InDelta(t, 0.75, data.Themes.Affinities[1].Confidence, 1e-9)
	assert.Contains(t, data.SourceSessions, sessionB)
	require.Len(t, data.Evidence, 1)
	assert.Equal(t, "https://example.com/markets", data.Evidence[0].URL)

	version, err := cache.CacheConsolidatedData(ctx, bangkok, data)
	require.NoError(t, err)
	cached := cache.GetConsolidatedData(ctx, bangkok)
	require.NotNil(t, cached)
	cachedVersion, err := DataVersion(cached)
	require.NoError(t, err)
	assert.Equal(t, version, cachedVersion)

	result, err := exporter.ExportDestination(ctx, bangkok, data, domain.ExportJSON)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(result.Path, "data", "bangkok__thailand_complete.json"))
	require.NoError(t, err)
	var doc struct {
		Destination string                     `json:"destination"`
		Data        map[string]json.RawMessage `json:"consolidated_data"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, bangkok, doc.Destination)

	original, err := json.Marshal(data)
	require.NoError(t, err)
	var originalKeys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(original, &originalKeys))
	for key, value := range originalKeys {
		assert.JSONEq(t, string(value), string(doc.Data[key]), key)
	}

	score, metrics := scoring.NewScorer().Score(data.Themes.Affinities)
	assert.Contains(t, metrics, "factual_accuracy")

	submitted, err := reviews.SubmitForReview(ctx, data.Themes, score, bangkok, domain.PriorityNormal)
	require.NoError(t, err)
	if score >= settings.QA.AutoApproveThreshold {
		assert.Equal(t, domain.ResultAutoApproved, submitted.Status)
		return
	}
	require.Equal(t, domain.ResultSubmittedForReview, submitted.Status)
	for _, reviewer := range submitted.AssignedReviewers {
		_, err := reviews.SubmitReviewerFeedback(ctx, submitted.ReviewID, reviewer,
			domain.ReviewerFeedback{Decision: domain.ReviewApproved})
		require.NoError(t, err)
	}
	review, err := reviews.GetReview(ctx, submitted.ReviewID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewApproved, review.Status)
}

func TestScenario_SavedThemesFeedNextConsolidation(t *testing.T) {
	tmp := t.TempDir()
	settings := testSettings(tmp)
	clock := newTestClock()
	ctx := context.Background()

	writeSession(t, settings.Paths.Outputs, "session_20240601_100000", baseTime.Add(-24*time.Hour), 0.6,
		affinity("Food Tours", "food", 0.6))

	source := outputs.NewSource(settings.Paths.Outputs)
	registry := memory.NewSessionRegistry()
	lifecycle := NewThemeLifecycleService(source, registry, nil, settings, WithClock(clock.Now))
	consolidator := NewConsolidationService(source, registry, settings, WithClock(clock.Now))

	existing, err := lifecycle.LatestThemes(ctx, bangkok)
	require.NoError(t, err)
	merged, err := lifecycle.MergeThemeData(ctx, bangkok,
		[]domain.Affinity{affinity("Temples", "culture", 0.64)}, existing)
	require.NoError(t, err)
	assert.InDelta(t, 0.62, merged.Quality(), 1e-9)

	_, err = lifecycle.SaveThemes(ctx, "session_20240610_120000", merged)
	require.NoError(t, err)

	data, err := consolidator.ConsolidateDestination(ctx, bangkok)
	require.NoError(t, err)
	assert.Equal(t, []string{"session_20240610_120000"}, data.Metadata.DataSources[domain.DataTypeThemes])
	assert.Len(t, data.Themes.Affinities, 2)
}
