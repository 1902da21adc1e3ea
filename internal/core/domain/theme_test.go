package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kyoto, Japan", "kyoto__japan"},
		{"  New York, USA ", "new_york__usa"},
		{"Rio de Janeiro/Brazil", "rio_de_janeiro_brazil"},
		{"paris", "paris"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"kyoto__japan", "Kyoto, Japan"},
		{"new_york__usa", "New York, Usa"},
		{"paris", "Paris"},
		{"são_paulo__brazil", "São Paulo, Brazil"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.in))
			assert.Equal(t, tt.in, Slug(DisplayName(tt.in)))
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	zoned, ok := ParseTimestamp("2024-06-01T12:00:00Z")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), zoned.UTC())

	naive, ok := ParseTimestamp("2024-06-01T12:00:00.123456")
	require.True(t, ok)
	assert.Equal(t, time.Local, naive.Location())
	assert.Equal(t, 123456000, naive.Nanosecond())

	_, ok = ParseTimestamp("")
	assert.False(t, ok)
	_, ok = ParseTimestamp("yesterday")
	assert.False(t, ok)
}

func TestAffinity_PreservesUnknownAttributes(t *testing.T) {
	raw := `{"theme":"Temples","category":"culture","confidence":0.9,"depth_analysis":{"level":"deep"},"authenticity":"local"}`

	var a Affinity
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	assert.Equal(t, "Temples", a.Theme)
	assert.Len(t, a.Extra, 2)

	out, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestAffinity_DeclaredMembersWinOverExtra(t *testing.T) {
	a := Affinity{Theme: "Temples", Confidence: 0.5, Extra: Extra{"theme": json.RawMessage(`"Shadow"`)}}

	out, err := json.Marshal(a)
	require.NoError(t, err)

	assert.JSONEq(t, `{"theme":"Temples","confidence":0.5}`, string(out))
}

func TestAffinity_KeyAndClone(t *testing.T) {
	a := Affinity{Theme: "  Temples ", SubThemes: []string{"zen"}, Extra: Extra{"x": json.RawMessage(`1`)}}
	clone := a.Clone()
	clone.SubThemes[0] = "shinto"
	clone.Extra["x"][0] = '2'

	assert.Equal(t, "temples", a.Key())
	assert.Equal(t, "zen", a.SubThemes[0])
	assert.Equal(t, json.RawMessage(`1`), a.Extra["x"])
}

func TestThemeRecord_EncodesEmptyAffinitiesAsArray(t *testing.T) {
	out, err := json.Marshal(ThemeRecord{Destination: "Kyoto, Japan"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, []any{}, decoded["affinities"])
}

func TestNewThemeRecord(t *testing.T) {
	themes := []Affinity{
		{Theme: "Temples", Category: "culture", Confidence: 0.9},
		{Theme: "Ramen", Category: "food", Confidence: 0.7},
		{Theme: "Gardens", Confidence: 0.8},
	}

	r := NewThemeRecord("Kyoto, Japan", themes, "fresh_generation", "2024-06-01T12:00:00")
	themes[0].Theme = "mutated"

	assert.Equal(t, "kyoto__japan", r.DestinationID)
	assert.Equal(t, "Temples", r.Affinities[0].Theme)
	assert.Equal(t, 3, r.ProcessingMetadata.ThemeCount)
	assert.InDelta(t, 0.8, r.Quality(), 1e-9)
	assert.Equal(t, []string{"culture", "food", "unknown"}, r.Categories())
}

func TestThemeRecord_NilSafe(t *testing.T) {
	var r *ThemeRecord

	assert.True(t, r.IsEmpty())
	assert.Zero(t, r.Quality())
	assert.Nil(t, r.Categories())
	assert.Nil(t, r.Clone())
}

func TestThemeRecord_QualityPrefersTopLevel(t *testing.T) {
	r := &ThemeRecord{QualityScore: 0.6, ProcessingMetadata: ProcessingMetadata{QualityScore: 0.9}}
	assert.InDelta(t, 0.6, r.Quality(), 1e-9)

	r.QualityScore = 0
	assert.InDelta(t, 0.9, r.Quality(), 1e-9)
}

func TestNuanceBundle_EncodesEveryCategory(t *testing.T) {
	b := NuanceBundle{HotelExpectations: []Nuance{{Phrase: "onsen"}}}

	out, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, []any{}, decoded["destination_nuances"])
	assert.Equal(t, []any{}, decoded["vacation_rental_expectations"])
	assert.Len(t, decoded["hotel_expectations"], 1)
}

func TestNuanceBundle_CountAndClone(t *testing.T) {
	var nilBundle *NuanceBundle
	assert.Zero(t, nilBundle.Count())
	assert.True(t, nilBundle.IsEmpty())

	b := &NuanceBundle{
		DestinationNuances: []Nuance{{Phrase: "quiet mornings"}, {Phrase: "moss gardens"}},
		HotelExpectations:  []Nuance{{Phrase: "onsen"}},
	}
	clone := b.Clone()
	clone.DestinationNuances[0].Phrase = "mutated"

	assert.Equal(t, 3, b.Count())
	assert.False(t, b.IsEmpty())
	assert.Equal(t, "quiet mornings", b.DestinationNuances[0].Phrase)
	assert.Nil(t, clone.VacationRentalExpectations)
}

func TestDedupeEvidence(t *testing.T) {
	items := []Evidence{
		{URL: "https://a.example"},
		{URL: " "},
		{URL: "https://b.example"},
		{URL: "https://a.example", Extra: Extra{"title": json.RawMessage(`"dup"`)}},
	}

	out := DedupeEvidence(items)

	require.Len(t, out, 2)
	assert.Equal(t, "https://a.example", out[0].URL)
	assert.Nil(t, out[0].Extra)
	assert.Equal(t, "https://b.example", out[1].URL)
}

func TestConsolidatedData_AddSource(t *testing.T) {
	c := &ConsolidatedData{Destination: "Kyoto, Japan"}

	c.AddSource(DataTypeThemes, "session_20240602_000000")
	c.AddSource(DataTypeNuances, "session_20240601_000000")
	c.AddSource(DataTypeThemes, "session_20240602_000000")
	c.AddSource(DataTypeImages, "")

	assert.Equal(t, []string{"session_20240601_000000", "session_20240602_000000"}, c.SourceSessions)
	assert.Equal(t, []string{"session_20240602_000000"}, c.Metadata.DataSources[DataTypeThemes])
	assert.NotContains(t, c.Metadata.DataSources, DataTypeImages)
	assert.False(t, c.HasThemes())
}

func TestSortSessionsNewestFirst(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sessions := []Session{
		{ID: "session_a", CreatedAt: base},
		{ID: "session_c", CreatedAt: base.Add(time.Hour)},
		{ID: "session_b", CreatedAt: base},
	}

	SortSessionsNewestFirst(sessions)

	assert.Equal(t, "session_c", sessions[0].ID)
	assert.Equal(t, "session_b", sessions[1].ID)
	assert.Equal(t, "session_a", sessions[2].ID)
}

func TestSession_HasAndQuality(t *testing.T) {
	s := Session{
		DataTypes:     []DataType{DataTypeThemes, DataTypeImages},
		QualityScores: map[DataType]float64{DataTypeThemes: 0.8},
	}

	assert.True(t, s.Has(DataTypeImages))
	assert.False(t, s.Has(DataTypeNuances))
	assert.InDelta(t, 0.8, s.Quality(DataTypeThemes), 1e-9)
	assert.Zero(t, s.Quality(DataTypeImages))
	assert.Zero(t, Session{}.Quality(DataTypeThemes))
}

func TestCacheEntry_Expired(t *testing.T) {
	cachedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	entry := CacheEntry{Metadata: CacheMetadata{CachedAt: cachedAt, TTLHours: 24}}

	assert.False(t, entry.Expired(cachedAt.Add(24*time.Hour)))
	assert.True(t, entry.Expired(cachedAt.Add(24*time.Hour+time.Second)))
}

func TestDataChanges_IsEmpty(t *testing.T) {
	assert.True(t, DataChanges{}.IsEmpty())
	assert.False(t, DataChanges{Images: ImageChanges{Added: map[string]string{"spring": "a.jpg"}}}.IsEmpty())
	assert.False(t, DataChanges{Nuances: map[NuanceCategory]NuanceChanges{
		NuanceHotel: {Removed: []Nuance{{Phrase: "onsen"}}},
	}}.IsEmpty())
}

func TestReview_AssignmentAndCompletion(t *testing.T) {
	r := &Review{
		RequiredReviewers: 2,
		AssignedReviewers: []string{"reviewer_a", "reviewer_b"},
		Reviews:           []ReviewEntry{{ReviewerID: "reviewer_a"}},
	}

	assert.True(t, r.IsAssigned("reviewer_b"))
	assert.False(t, r.IsAssigned("reviewer_c"))
	assert.True(t, r.HasReviewed("reviewer_a"))
	assert.False(t, r.HasReviewed("reviewer_b"))
	assert.False(t, r.IsComplete())

	r.Reviews = append(r.Reviews, ReviewEntry{ReviewerID: "reviewer_b"})
	assert.True(t, r.IsComplete())
}

func TestReview_IsCompleteCapsAtAssignedReviewers(t *testing.T) {
	r := &Review{
		RequiredReviewers: 2,
		AssignedReviewers: []string{"alice"},
		Reviews:           []ReviewEntry{{ReviewerID: "alice"}},
	}

	assert.True(t, r.IsComplete())
}

func TestReviewStatusAndPriority(t *testing.T) {
	assert.False(t, ReviewPending.IsTerminal())
	assert.False(t, ReviewInProgress.IsTerminal())
	assert.True(t, ReviewRequiresRevision.IsTerminal())
	assert.False(t, ReviewStatus("archived").IsValid())

	assert.Less(t, PriorityUrgent.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityNormal.Rank())
	assert.Less(t, PriorityNormal.Rank(), PriorityLow.Rank())
	assert.Equal(t, PriorityNormal.Rank(), ReviewPriority("whenever").Rank())
}
