package mcp

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// mockConsolidator implements driving.Consolidator for testing.
type mockConsolidator struct {
	data  *domain.ConsolidatedData
	stats *domain.ConsolidationStats
	err   error
	calls int
}

func (m *mockConsolidator) ConsolidateDestination(_ context.Context, _ string) (*domain.ConsolidatedData, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

func (m *mockConsolidator) ConsolidationStatistics(_ context.Context, destination string) (*domain.ConsolidationStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.stats != nil {
		return m.stats, nil
	}
	return &domain.ConsolidationStats{Destination: destination}, nil
}

// mockLifecycle implements driving.ThemeLifecycle for testing.
type mockLifecycle struct {
	driving.ThemeLifecycle
	stats domain.ThemeStatistics
}

func (m *mockLifecycle) ThemeStatistics(_ context.Context, _ string) domain.ThemeStatistics {
	return m.stats
}

// mockCache implements driving.DataCache for testing.
type mockCache struct {
	driving.DataCache
	entries map[string]*domain.ConsolidatedData
	stats   *domain.CacheStatistics
	stored  int
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string]*domain.ConsolidatedData)}
}

func (m *mockCache) GetConsolidatedData(_ context.Context, destination string) *domain.ConsolidatedData {
	return m.entries[domain.Slug(destination)]
}

func (m *mockCache) CacheConsolidatedData(_ context.Context, destination string, data *domain.ConsolidatedData) (string, error) {
	m.stored++
	m.entries[domain.Slug(destination)] = data
	return "v1", nil
}

func (m *mockCache) Statistics(_ context.Context) (*domain.CacheStatistics, error) {
	if m.stats == nil {
		return &domain.CacheStatistics{}, nil
	}
	return m.stats, nil
}

// mockExporter implements driving.Exporter for testing.
type mockExporter struct {
	driving.Exporter
	format domain.ExportFormat
	err    error
}

func (m *mockExporter) ExportDestination(
	_ context.Context, destination string, _ *domain.ConsolidatedData, format domain.ExportFormat,
) (*domain.ExportResult, error) {
	m.format = format
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ExportResult{
		Destination:  destination,
		Format:       domain.ExportStructured,
		Path:         "/exports/kyoto__japan/export_20240610_120000",
		FilesCreated: []string{"data/themes.json", "EXPORT_MANIFEST.json"},
	}, nil
}

// mockReviews implements driving.ReviewFlow for testing.
type mockReviews struct {
	score    float64
	priority domain.ReviewPriority
	feedback domain.ReviewerFeedback
	reviews  map[string]*domain.Review
	queue    []domain.ReviewSummary
	err      error
}

func (m *mockReviews) SubmitForReview(
	_ context.Context, _ *domain.ThemeRecord, qualityScore float64, destination string, priority domain.ReviewPriority,
) (*domain.SubmissionResult, error) {
	m.score = qualityScore
	m.priority = priority
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SubmissionResult{
		Status:       domain.ResultSubmittedForReview,
		ReviewID:     "review-1",
		Destination:  destination,
		QualityScore: qualityScore,
	}, nil
}

func (m *mockReviews) SubmitReviewerFeedback(
	_ context.Context, reviewID, _ string, feedback domain.ReviewerFeedback,
) (*domain.FeedbackResult, error) {
	m.feedback = feedback
	if m.err != nil {
		return nil, m.err
	}
	return &domain.FeedbackResult{Status: domain.ResultReviewCompleted, ReviewID: reviewID}, nil
}

func (m *mockReviews) GetReview(_ context.Context, reviewID string) (*domain.Review, error) {
	if review, ok := m.reviews[reviewID]; ok {
		return review, nil
	}
	return nil, domain.ErrReviewNotFound
}

func (m *mockReviews) ReviewQueue(_ context.Context, _ string, _ domain.ReviewStatus) ([]domain.ReviewSummary, error) {
	return m.queue, m.err
}

// mockScorer implements driven.QualityScorer for testing.
type mockScorer struct {
	score float64
}

func (m *mockScorer) Score(_ []domain.Affinity) (float64, map[string]float64) {
	return m.score, map[string]float64{"factual_accuracy": m.score}
}

func kyotoData() *domain.ConsolidatedData {
	return &domain.ConsolidatedData{
		Destination: "Kyoto, Japan",
		Themes: domain.NewThemeRecord("Kyoto, Japan", []domain.Affinity{
			{Theme: "Temples", Category: "culture", Confidence: 0.9},
			{Theme: "Tea Houses", Category: "food", Confidence: 0.7},
		}, "full", "2024-06-01T12:00:00Z"),
		Nuances: &domain.NuanceBundle{
			DestinationNuances: []domain.Nuance{{Phrase: "quiet mornings"}},
		},
		Images:   map[string]string{"spring": "/outputs/s1/images/kyoto__japan/spring.jpg"},
		Evidence: []domain.Evidence{{URL: "https://example.com/kyoto"}},
		Metadata: domain.ConsolidationMetadata{
			Strategy:      domain.ConsolidationQualityBased,
			QualityScores: map[domain.DataType]float64{domain.DataTypeThemes: 0.8},
		},
		SourceSessions: []string{"session_20240601_120000"},
	}
}
