package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// baseTime anchors every test clock.
var baseTime = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

// testClock is a settable clock for WithClock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: baseTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeArtifacts is everything one fake session holds for a destination.
type fakeArtifacts struct {
	id       string
	created  time.Time
	themes   *domain.ThemeRecord
	nuances  *domain.NuanceBundle
	images   map[string]string
	evidence []domain.Evidence
}

// fakeSource is an in-memory SessionSource.
type fakeSource struct {
	mu            sync.Mutex
	sessions      map[string]map[string]fakeArtifacts
	revisions     map[string]int
	discoverCalls int
	saves         int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		sessions:  make(map[string]map[string]fakeArtifacts),
		revisions: make(map[string]int),
	}
}

// add registers artifacts for destination.
func (f *fakeSource) add(destination string, a fakeArtifacts) {
	f.mu.Lock()
	defer f.mu.Unlock()
	slug := domain.Slug(destination)
	if f.sessions[slug] == nil {
		f.sessions[slug] = make(map[string]fakeArtifacts)
	}
	f.sessions[slug][a.id] = a
	f.revisions[slug]++
}

func (f *fakeSource) session(slug string, a fakeArtifacts) domain.Session {
	s := domain.Session{
		ID:            a.id,
		Path:          "/sessions/" + a.id,
		Destination:   slug,
		CreatedAt:     a.created,
		QualityScores: map[domain.DataType]float64{},
	}
	if a.themes != nil {
		s.DataTypes = append(s.DataTypes, domain.DataTypeThemes)
		s.QualityScores[domain.DataTypeThemes] = a.themes.Quality()
	}
	if a.nuances != nil {
		s.DataTypes = append(s.DataTypes, domain.DataTypeNuances)
		s.QualityScores[domain.DataTypeNuances] = a.nuances.Quality()
	}
	if len(a.images) > 0 {
		s.DataTypes = append(s.DataTypes, domain.DataTypeImages)
	}
	return s
}

func (f *fakeSource) get(session domain.Session) (fakeArtifacts, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.sessions[domain.Slug(session.Destination)][session.ID]
	return a, ok
}

func (f *fakeSource) Discover(_ context.Context, slug string) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.discoverCalls++
	out := []domain.Session{}
	for _, a := range f.sessions[domain.Slug(slug)] {
		s := f.session(domain.Slug(slug), a)
		if len(s.DataTypes) > 0 {
			out = append(out, s)
		}
	}
	domain.SortSessionsNewestFirst(out)
	return out, nil
}

func (f *fakeSource) Destinations(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []string{}
	for slug := range f.sessions {
		out = append(out, slug)
	}
	return out, nil
}

// Fingerprint changes every time artifacts are added or saved for slug.
func (f *fakeSource) Fingerprint(_ context.Context, slug string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("rev-%d", f.revisions[domain.Slug(slug)]), nil
}

func (f *fakeSource) LoadThemes(_ context.Context, session domain.Session) (*domain.ThemeRecord, error) {
	a, ok := f.get(session)
	if !ok || a.themes == nil {
		return nil, domain.ErrNotFound
	}
	return a.themes.Clone(), nil
}

func (f *fakeSource) LoadNuances(_ context.Context, session domain.Session) (*domain.NuanceBundle, error) {
	a, ok := f.get(session)
	if !ok || a.nuances == nil {
		return nil, domain.ErrNotFound
	}
	return a.nuances.Clone(), nil
}

func (f *fakeSource) LoadEvidence(_ context.Context, session domain.Session) ([]domain.Evidence, error) {
	a, _ := f.get(session)
	return append([]domain.Evidence{}, a.evidence...), nil
}

func (f *fakeSource) LoadImages(_ context.Context, session domain.Session) (map[string]string, error) {
	a, _ := f.get(session)
	out := make(map[string]string, len(a.images))
	for k, v := range a.images {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSource) SaveThemes(_ context.Context, sessionID string, record *domain.ThemeRecord) (domain.Session, error) {
	f.mu.Lock()
	slug := domain.Slug(record.Destination)
	if f.sessions[slug] == nil {
		f.sessions[slug] = make(map[string]fakeArtifacts)
	}
	a, ok := f.sessions[slug][sessionID]
	if !ok {
		f.saves++
		a = fakeArtifacts{id: sessionID, created: baseTime.Add(time.Duration(f.saves) * time.Minute)}
	}
	a.themes = record.Clone()
	f.sessions[slug][sessionID] = a
	f.revisions[slug]++
	f.mu.Unlock()

	return f.session(slug, a), nil
}

// recordingMetrics captures every metric call.
type recordingMetrics struct {
	mu                 sync.Mutex
	consolidations     int
	failures           int
	lastSessions       int
	lookups            map[string][]bool
	exports            []string
	routes             []string
	lastStrategy       domain.ConsolidationStrategy
	lastConsolidateDur time.Duration
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{lookups: make(map[string][]bool)}
}

func (m *recordingMetrics) ConsolidationCompleted(strategy domain.ConsolidationStrategy, sessions int, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consolidations++
	m.lastSessions = sessions
	m.lastStrategy = strategy
	m.lastConsolidateDur = elapsed
}

func (m *recordingMetrics) ConsolidationFailed(strategy domain.ConsolidationStrategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
	m.lastStrategy = strategy
}

func (m *recordingMetrics) CacheLookup(store string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups[store] = append(m.lookups[store], hit)
}

func (m *recordingMetrics) ExportCompleted(format domain.ExportFormat, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, string(format)+":"+outcome)
}

func (m *recordingMetrics) ReviewRouted(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, action)
}

// fakeSchemas returns a fixed schema set.
type fakeSchemas struct{}

func (fakeSchemas) Schemas() (map[string][]byte, error) {
	return map[string][]byte{
		"theme_schema.json":  []byte(`{"type":"object"}`),
		"nuance_schema.json": []byte(`{"type":"object"}`),
	}, nil
}

func affinity(theme, category string, confidence float64) domain.Affinity {
	return domain.Affinity{Theme: theme, Category: category, Confidence: confidence}
}

// themeRecord builds a record processed at processedAt with the given quality.
func themeRecord(destination string, quality float64, processedAt time.Time, themes ...domain.Affinity) *domain.ThemeRecord {
	r := domain.NewThemeRecord(destination, themes, "full", domain.FormatTimestamp(processedAt))
	r.QualityScore = quality
	return r
}

func nuanceBundle(destination string, quality float64, phrases ...string) *domain.NuanceBundle {
	b := &domain.NuanceBundle{Destination: destination, QualityScore: quality}
	for _, p := range phrases {
		b.DestinationNuances = append(b.DestinationNuances, domain.Nuance{Phrase: p, QualityScore: quality})
	}
	return b
}

func testSettings(root string) domain.Settings {
	s := domain.DefaultSettings()
	s.Paths.Outputs = filepath.Join(root, "outputs")
	s.Paths.Cache = filepath.Join(root, "cache")
	s.Paths.Exports = filepath.Join(root, "exports")
	return s
}
