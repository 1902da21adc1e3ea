package outputs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

// writeFile creates path with content, making parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// setMtime pins the modification time of a session directory.
func setMtime(t *testing.T, path string, ts time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, ts, ts))
}

func TestSource_Discover_MissingRoot(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing"))

	sessions, err := src.Discover(context.Background(), "Kyoto, Japan")

	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSource_Discover_DetectsArtifacts(t *testing.T) {
	root := t.TempDir()
	older := filepath.Join(root, "session_20240101_000000")
	newer := filepath.Join(root, "session_20240201_000000")

	writeFile(t, filepath.Join(older, "json", "kyoto__japan_enhanced.json"),
		`{"destination":"Kyoto, Japan","affinities":[],"quality_score":0.8}`)
	writeFile(t, filepath.Join(newer, "json", "kyoto__japan_nuances.json"),
		`{"destination_nuances":[],"processing_metadata":{"quality_score":0.65}}`)
	writeFile(t, filepath.Join(newer, "images", "kyoto_japan", "spring.png"), "png")
	writeFile(t, filepath.Join(newer, "json", "rome__italy_enhanced.json"), `{}`)
	writeFile(t, filepath.Join(root, "not_a_session", "json", "kyoto__japan_enhanced.json"), `{}`)

	setMtime(t, older, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	setMtime(t, newer, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	sessions, err := NewSource(root).Discover(context.Background(), "Kyoto, Japan")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, "session_20240201_000000", sessions[0].ID)
	assert.Equal(t, []domain.DataType{domain.DataTypeNuances, domain.DataTypeImages}, sessions[0].DataTypes)
	assert.InDelta(t, 0.65, sessions[0].Quality(domain.DataTypeNuances), 1e-9)

	assert.Equal(t, "session_20240101_000000", sessions[1].ID)
	assert.Equal(t, []domain.DataType{domain.DataTypeThemes}, sessions[1].DataTypes)
	assert.InDelta(t, 0.8, sessions[1].Quality(domain.DataTypeThemes), 1e-9)
	assert.Equal(t, "kyoto__japan", sessions[1].Destination)
}

func TestSource_Discover_CorruptQualityScoresZero(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_enhanced.json"), `{not json`)

	sessions, err := NewSource(root).Discover(context.Background(), "kyoto__japan")

	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Zero(t, sessions[0].Quality(domain.DataTypeThemes))
}

func TestSource_Discover_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_enhanced.json"), `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSource(root).Discover(ctx, "kyoto__japan")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSource_Destinations(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_enhanced.json"), `{}`)
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_nuances_evidence.json"), `[]`)
	writeFile(t, filepath.Join(root, "session_2", "json", "rome__italy_nuances.json"), `{}`)
	writeFile(t, filepath.Join(root, "session_2", "json", "lisbon__portugal_evidence.json"), `[]`)

	destinations, err := NewSource(root).Destinations(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"kyoto__japan", "rome__italy"}, destinations)
}

func TestSource_Fingerprint(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	src := NewSource(root)
	themes := filepath.Join(root, "session_a", "json", "kyoto__japan_enhanced.json")
	writeFile(t, themes, `{"quality_score":0.6}`)

	first, err := src.Fingerprint(ctx, "Kyoto, Japan")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	again, err := src.Fingerprint(ctx, "Kyoto, Japan")
	require.NoError(t, err)
	assert.Equal(t, first, again, "unchanged layout")

	writeFile(t, filepath.Join(root, "session_b", "json", "kyoto__japan_enhanced.json"), `{"quality_score":0.8}`)
	added, err := src.Fingerprint(ctx, "Kyoto, Japan")
	require.NoError(t, err)
	assert.NotEqual(t, first, added, "new session")

	writeFile(t, themes, `{"quality_score":0.95}`)
	setMtime(t, themes, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	rewritten, err := src.Fingerprint(ctx, "Kyoto, Japan")
	require.NoError(t, err)
	assert.NotEqual(t, added, rewritten, "artifact rewritten in place")
}

func TestSource_Fingerprint_MissingRoot(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "missing"))

	fp, err := src.Fingerprint(context.Background(), "Kyoto, Japan")

	require.NoError(t, err)
	assert.NotEmpty(t, fp)
}

func TestSource_LoadThemes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_enhanced.json"),
		`{"destination":"Kyoto, Japan","affinities":[{"theme":"Temples","category":"culture","confidence":0.9,"depth_score":3}]}`)
	src := NewSource(root)
	ctx := context.Background()

	sessions, err := src.Discover(ctx, "Kyoto, Japan")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	record, err := src.LoadThemes(ctx, sessions[0])
	require.NoError(t, err)
	require.Len(t, record.Affinities, 1)
	assert.Equal(t, "Temples", record.Affinities[0].Theme)
	assert.JSONEq(t, `3`, string(record.Affinities[0].Extra["depth_score"]))

	_, err = src.LoadNuances(ctx, sessions[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSource_LoadEvidence_BothShapes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_evidence.json"),
		`[{"url":"https://a.example"},{"url":"https://b.example"}]`)
	writeFile(t, filepath.Join(root, "session_1", "json", "kyoto__japan_nuances_evidence.json"),
		`{"evidence":[{"url":"https://c.example","title":"C"}]}`)
	session := domain.Session{ID: "session_1", Path: filepath.Join(root, "session_1"), Destination: "kyoto__japan"}

	evidence, err := NewSource(root).LoadEvidence(context.Background(), session)

	require.NoError(t, err)
	require.Len(t, evidence, 3)
	assert.Equal(t, "https://a.example", evidence[0].URL)
	assert.Equal(t, "https://c.example", evidence[2].URL)
	assert.JSONEq(t, `"C"`, string(evidence[2].Extra["title"]))
}

func TestSource_LoadEvidence_None(t *testing.T) {
	root := t.TempDir()
	session := domain.Session{ID: "session_1", Path: filepath.Join(root, "session_1"), Destination: "kyoto__japan"}

	evidence, err := NewSource(root).LoadEvidence(context.Background(), session)

	require.NoError(t, err)
	assert.NotNil(t, evidence)
	assert.Empty(t, evidence)
}

func TestSource_LoadImages(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "session_1", "images", "kyoto__japan")
	writeFile(t, filepath.Join(dir, "spring.jpg"), "a")
	writeFile(t, filepath.Join(dir, "winter.png"), "b")
	writeFile(t, filepath.Join(dir, "seasonal_collage.jpeg"), "c")
	writeFile(t, filepath.Join(dir, "notes.txt"), "d")
	session := domain.Session{ID: "session_1", Path: filepath.Join(root, "session_1"), Destination: "kyoto__japan"}

	images, err := NewSource(root).LoadImages(context.Background(), session)

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"spring":  filepath.Join(dir, "spring.jpg"),
		"winter":  filepath.Join(dir, "winter.png"),
		"collage": filepath.Join(dir, "seasonal_collage.jpeg"),
	}, images)
}

func TestSource_SaveThemes(t *testing.T) {
	root := t.TempDir()
	src := NewSource(root)
	record := domain.NewThemeRecord("Kyoto, Japan",
		[]domain.Affinity{{Theme: "Temples", Category: "culture", Confidence: 0.9}},
		"replace", "2024-06-01T12:00:00Z")

	session, err := src.SaveThemes(context.Background(), "session_20240601_120000", record)

	require.NoError(t, err)
	assert.Equal(t, "session_20240601_120000", session.ID)
	assert.True(t, session.Has(domain.DataTypeThemes))
	assert.InDelta(t, 0.9, session.Quality(domain.DataTypeThemes), 1e-9)
	assert.FileExists(t, filepath.Join(root, "session_20240601_120000", "json", "kyoto__japan_enhanced.json"))
}

func TestSource_SaveThemes_RejectsPathLikeIDs(t *testing.T) {
	src := NewSource(t.TempDir())
	record := domain.NewThemeRecord("Kyoto, Japan", nil, "replace", "")

	for _, id := range []string{"", "..", "a/b"} {
		_, err := src.SaveThemes(context.Background(), id, record)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, id)
	}
}

func TestArtifactSlug(t *testing.T) {
	tests := []struct {
		name string
		slug string
		ok   bool
	}{
		{"kyoto__japan_enhanced.json", "kyoto__japan", true},
		{"kyoto__japan_nuances.json", "kyoto__japan", true},
		{"kyoto__japan_evidence.json", "", false},
		{"kyoto__japan_nuances_evidence.json", "", false},
		{"notes.txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slug, ok := ArtifactSlug(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.slug, slug)
		})
	}
}

func TestIsSessionDir(t *testing.T) {
	assert.True(t, IsSessionDir("session_20240601_120000"))
	assert.False(t, IsSessionDir("exports"))
}
