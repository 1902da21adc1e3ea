package consolidate

import (
	"context"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// MockConsolidator implements driving.Consolidator for testing.
type MockConsolidator struct {
	ConsolidateFunc func(ctx context.Context, destination string) (*domain.ConsolidatedData, error)
	calls           int
}

func (m *MockConsolidator) ConsolidateDestination(ctx context.Context, destination string) (*domain.ConsolidatedData, error) {
	m.calls++
	if m.ConsolidateFunc != nil {
		return m.ConsolidateFunc(ctx, destination)
	}
	return testData(destination), nil
}

func (m *MockConsolidator) ConsolidationStatistics(context.Context, string) (*domain.ConsolidationStats, error) {
	return &domain.ConsolidationStats{}, nil
}

// MockCache implements driving.DataCache for testing.
type MockCache struct {
	entries  map[string]*domain.ConsolidatedData
	cacheErr error
}

func (m *MockCache) CacheConsolidatedData(_ context.Context, destination string, data *domain.ConsolidatedData) (string, error) {
	if m.cacheErr != nil {
		return "", m.cacheErr
	}
	if m.entries == nil {
		m.entries = make(map[string]*domain.ConsolidatedData)
	}
	m.entries[destination] = data
	return "20240610_120000_000001", nil
}

func (m *MockCache) GetConsolidatedData(_ context.Context, destination string) *domain.ConsolidatedData {
	return m.entries[destination]
}

func (m *MockCache) InvalidateDestination(context.Context, string) error { return nil }

func (m *MockCache) Versions(context.Context, string) ([]string, error) { return nil, nil }

func (m *MockCache) GetDataDiff(context.Context, string, string, string) *domain.DataDiff { return nil }

func (m *MockCache) CacheExportData(context.Context, string, domain.ExportFormat, map[string]any) error {
	return nil
}

func (m *MockCache) GetCachedExportData(context.Context, string, domain.ExportFormat) map[string]any {
	return nil
}

func (m *MockCache) Statistics(context.Context) (*domain.CacheStatistics, error) {
	return &domain.CacheStatistics{}, nil
}

func (m *MockCache) ClearAll(context.Context) error { return nil }

// MockReviewFlow implements driving.ReviewFlow for testing.
type MockReviewFlow struct {
	SubmitFunc func(ctx context.Context, affinities *domain.ThemeRecord, score float64,
		destination string, priority domain.ReviewPriority) (*domain.SubmissionResult, error)
}

func (m *MockReviewFlow) SubmitForReview(
	ctx context.Context,
	affinities *domain.ThemeRecord,
	score float64,
	destination string,
	priority domain.ReviewPriority,
) (*domain.SubmissionResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, affinities, score, destination, priority)
	}
	return &domain.SubmissionResult{
		Status:            domain.ResultSubmittedForReview,
		ReviewID:          "review-1",
		Destination:       destination,
		QualityScore:      score,
		AssignedReviewers: []string{"reviewer_subject_expert_001"},
	}, nil
}

func (m *MockReviewFlow) SubmitReviewerFeedback(
	context.Context, string, string, domain.ReviewerFeedback,
) (*domain.FeedbackResult, error) {
	return &domain.FeedbackResult{}, nil
}

func (m *MockReviewFlow) GetReview(context.Context, string) (*domain.Review, error) {
	return nil, domain.ErrReviewNotFound
}

func (m *MockReviewFlow) ReviewQueue(context.Context, string, domain.ReviewStatus) ([]domain.ReviewSummary, error) {
	return nil, nil
}

func testData(destination string) *domain.ConsolidatedData {
	return &domain.ConsolidatedData{
		Destination: destination,
		Themes: &domain.ThemeRecord{
			Destination: destination,
			Affinities: []domain.Affinity{
				{Theme: "Temple Gardens", Category: "culture", Confidence: 0.9},
				{Theme: "Street Food", Category: "food", Confidence: 0.7},
			},
			QualityScore: 0.8,
		},
		Images:         map[string]string{"hero": "images/hero.jpg"},
		Metadata:       domain.ConsolidationMetadata{Strategy: domain.ConsolidationQualityBased},
		SourceSessions: []string{"session_20240601_100000", "session_20240605_090000"},
	}
}
