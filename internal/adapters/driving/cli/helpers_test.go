package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/core/services"
)

// fakeConsolidator implements driving.Consolidator for testing.
type fakeConsolidator struct {
	data  *domain.ConsolidatedData
	stats *domain.ConsolidationStats
	err   error
	calls int
}

func (f *fakeConsolidator) ConsolidateDestination(_ context.Context, _ string) (*domain.ConsolidatedData, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeConsolidator) ConsolidationStatistics(_ context.Context, destination string) (*domain.ConsolidationStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &domain.ConsolidationStats{Destination: destination}, nil
}

// fakeLifecycle implements driving.ThemeLifecycle for testing.
type fakeLifecycle struct {
	latest      *domain.ThemeRecord
	shouldRerun bool
	stats       domain.ThemeStatistics
	saved       *domain.ThemeRecord
	savedTo     string
}

func (f *fakeLifecycle) ShouldUpdateThemes(_ context.Context, _ string) bool {
	return f.shouldRerun
}

func (f *fakeLifecycle) LatestThemes(_ context.Context, _ string) (*domain.ThemeRecord, error) {
	if f.latest == nil {
		return nil, domain.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeLifecycle) MergeThemeData(
	_ context.Context, destination string, newThemes []domain.Affinity, existing *domain.ThemeRecord,
) (*domain.ThemeRecord, error) {
	var merged []domain.Affinity
	if existing != nil {
		merged = append(merged, existing.Affinities...)
	}
	merged = append(merged, newThemes...)
	return domain.NewThemeRecord(destination, merged, "incremental", "2024-06-10T12:00:00Z"), nil
}

func (f *fakeLifecycle) SaveThemes(_ context.Context, sessionID string, record *domain.ThemeRecord) (domain.Session, error) {
	f.saved = record
	f.savedTo = sessionID
	return domain.Session{ID: sessionID}, nil
}

func (f *fakeLifecycle) ThemeStatistics(_ context.Context, _ string) domain.ThemeStatistics {
	return f.stats
}

// fakeCache implements driving.DataCache for testing.
type fakeCache struct {
	entries     map[string]*domain.ConsolidatedData
	versions    []string
	diff        *domain.DataDiff
	invalidated []string
	cleared     bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.ConsolidatedData)}
}

func (f *fakeCache) CacheConsolidatedData(_ context.Context, destination string, data *domain.ConsolidatedData) (string, error) {
	f.entries[domain.Slug(destination)] = data
	return "20240610_120000_000001", nil
}

func (f *fakeCache) GetConsolidatedData(_ context.Context, destination string) *domain.ConsolidatedData {
	return f.entries[domain.Slug(destination)]
}

func (f *fakeCache) InvalidateDestination(_ context.Context, destination string) error {
	f.invalidated = append(f.invalidated, destination)
	delete(f.entries, domain.Slug(destination))
	return nil
}

func (f *fakeCache) Versions(_ context.Context, _ string) ([]string, error) {
	return f.versions, nil
}

func (f *fakeCache) GetDataDiff(_ context.Context, _, _, _ string) *domain.DataDiff {
	return f.diff
}

func (f *fakeCache) CacheExportData(_ context.Context, _ string, _ domain.ExportFormat, _ map[string]any) error {
	return nil
}

func (f *fakeCache) GetCachedExportData(_ context.Context, _ string, _ domain.ExportFormat) map[string]any {
	return nil
}

func (f *fakeCache) Statistics(_ context.Context) (*domain.CacheStatistics, error) {
	return &domain.CacheStatistics{
		CachedDestinations: len(f.entries),
		TTLHours:           24,
		VersioningEnabled:  true,
		MaxVersions:        5,
	}, nil
}

func (f *fakeCache) ClearAll(_ context.Context) error {
	f.cleared = true
	f.entries = make(map[string]*domain.ConsolidatedData)
	return nil
}

// fakeExporter implements driving.Exporter for testing.
type fakeExporter struct {
	format   domain.ExportFormat
	archived string
	days     int
	err      error
}

func (f *fakeExporter) ExportDestination(
	_ context.Context, destination string, _ *domain.ConsolidatedData, format domain.ExportFormat,
) (*domain.ExportResult, error) {
	f.format = format
	if f.err != nil {
		return nil, f.err
	}
	if format == "" {
		format = domain.ExportStructured
	}
	return &domain.ExportResult{
		Destination:  destination,
		Format:       format,
		Path:         "/exports/kyoto__japan/export_20240610_120000",
		FilesCreated: []string{"data/themes.json", "EXPORT_MANIFEST.json"},
		CopiedImages: []string{"spring.jpg"},
	}, nil
}

func (f *fakeExporter) CreateArchive(_ context.Context, exportPath string) (string, error) {
	f.archived = exportPath
	return exportPath + ".zip", nil
}

func (f *fakeExporter) Statistics(_ context.Context) (*domain.ExportStatistics, error) {
	return &domain.ExportStatistics{
		TotalExports: 1,
		Directory:    "/exports",
		Destinations: []string{"kyoto__japan"},
		TotalSizeMB:  0.25,
	}, nil
}

func (f *fakeExporter) CleanupOldExports(_ context.Context, daysOld int) (int, error) {
	f.days = daysOld
	return 2, nil
}

// fakeBulkExporter implements driving.BulkExporter for testing.
type fakeBulkExporter struct {
	destinations []string
	result       *domain.BulkExportResult
	format       domain.ExportFormat
	calls        int
}

func (f *fakeBulkExporter) Destinations(_ context.Context) ([]string, error) {
	return f.destinations, nil
}

func (f *fakeBulkExporter) ExportAll(_ context.Context, format domain.ExportFormat) (*domain.BulkExportResult, error) {
	f.calls++
	f.format = format
	if f.result != nil {
		return f.result, nil
	}
	return &domain.BulkExportResult{Format: format, Results: map[string]domain.BulkExportOutcome{}}, nil
}

// fakeIndexer implements driving.Indexer for testing.
type fakeIndexer struct {
	destinations []string
	all          int
}

func (f *fakeIndexer) IndexDestination(_ context.Context, destination string) (int, error) {
	f.destinations = append(f.destinations, destination)
	return 3, nil
}

func (f *fakeIndexer) IndexAll(_ context.Context) (int, error) {
	f.all++
	return 7, nil
}

// fakeScorer implements driven.QualityScorer for testing.
type fakeScorer struct {
	score float64
}

func (f *fakeScorer) Score(_ []domain.Affinity) (float64, map[string]float64) {
	return f.score, map[string]float64{"factual_accuracy": f.score, "relevance": 0.8}
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
			Strategy: domain.ConsolidationQualityBased,
		},
		SourceSessions: []string{"session_20240601_120000", "session_20240605_090000"},
	}
}

// testServices holds the fakes installed by setupTestServices.
type testServices struct {
	consolidator *fakeConsolidator
	lifecycle    *fakeLifecycle
	cache        *fakeCache
	exporter     *fakeExporter
	bulk         *fakeBulkExporter
	indexer      *fakeIndexer
	scorer       *fakeScorer
	settings     *services.SettingsService
	reviews      driving.ReviewFlow
}

// setupTestServices installs fakes plus real settings and review services
// over in-memory stores, returning a cleanup func that restores the globals.
func setupTestServices() (*testServices, func()) {
	saved := Services{
		Settings:       settingsService,
		Lifecycle:      lifecycleService,
		Consolidation:  consolidationService,
		Cache:          cacheService,
		Export:         exportService,
		BulkExport:     bulkExportService,
		Review:         reviewService,
		Index:          indexService,
		Scorer:         qualityScorer,
		MetricsHandler: metricsHandler,
		OutputsDir:     outputsDir,
	}

	settings := services.NewSettingsService(memory.NewConfigStore())
	defaults := settings.GetDefaults()
	ts := &testServices{
		consolidator: &fakeConsolidator{data: kyotoData()},
		lifecycle:    &fakeLifecycle{},
		cache:        newFakeCache(),
		exporter:     &fakeExporter{},
		bulk:         &fakeBulkExporter{},
		indexer:      &fakeIndexer{},
		scorer:       &fakeScorer{score: 0.7},
		settings:     settings,
		reviews:      services.NewReviewService(memory.NewReviewStore(), defaults),
	}

	SetServices(Services{
		Settings:      ts.settings,
		Lifecycle:     ts.lifecycle,
		Consolidation: ts.consolidator,
		Cache:         ts.cache,
		Export:        ts.exporter,
		BulkExport:    ts.bulk,
		Review:        ts.reviews,
		Index:         ts.indexer,
		Scorer:        ts.scorer,
	})

	return ts, func() { SetServices(saved) }
}

// execute runs the root command with args, returning combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag in the tree to its default so that
// commands run in sequence do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
