package domain

import "strings"

// Affinity is one thematic travel recommendation.
// Only the name, category and confidence drive merge decisions; every other
// enrichment attribute is carried in Extra.
type Affinity struct {
	// Theme is the display name of the theme.
	Theme string `json:"theme"`

	// Category groups related themes (e.g. "culture", "food").
	Category string `json:"category,omitempty"`

	// Confidence is the generator's confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// SubThemes is the ordered list of narrower themes.
	SubThemes []string `json:"sub_themes,omitempty"`

	// Extra carries enrichment attributes this pipeline does not interpret.
	Extra Extra `json:"-"`
}

// MarshalJSON encodes the affinity including its opaque attributes.
func (a Affinity) MarshalJSON() ([]byte, error) {
	type plain Affinity
	return encodeWithExtra(plain(a), a.Extra)
}

// UnmarshalJSON decodes the affinity, keeping unknown attributes in Extra.
func (a *Affinity) UnmarshalJSON(data []byte) error {
	type plain Affinity
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*a = Affinity(p)
	return nil
}

// Key returns the case-insensitive identity used for "same theme" detection.
func (a Affinity) Key() string {
	return strings.ToLower(strings.TrimSpace(a.Theme))
}

// Clone returns a deep copy of the affinity.
func (a Affinity) Clone() Affinity {
	out := a
	out.SubThemes = append([]string(nil), a.SubThemes...)
	out.Extra = cloneExtra(a.Extra)
	return out
}

// ProcessingMetadata is the provenance block embedded in every artifact.
type ProcessingMetadata struct {
	ProcessingDate     string  `json:"processing_date,omitempty"`
	SourceSystem       string  `json:"source_system,omitempty"`
	ThemeCount         int     `json:"theme_count,omitempty"`
	ProcessingStrategy string  `json:"processing_strategy,omitempty"`
	QualityScore       float64 `json:"quality_score,omitempty"`
	LastMerge          string  `json:"last_merge,omitempty"`
	MergeStrategy      string  `json:"merge_strategy,omitempty"`
	MergedThemeCount   int     `json:"merged_theme_count,omitempty"`
	ThemesAdded        int     `json:"themes_added,omitempty"`
	Extra              Extra   `json:"-"`
}

// MarshalJSON encodes the metadata including unknown members.
func (m ProcessingMetadata) MarshalJSON() ([]byte, error) {
	type plain ProcessingMetadata
	return encodeWithExtra(plain(m), m.Extra)
}

// UnmarshalJSON decodes the metadata, keeping unknown members in Extra.
func (m *ProcessingMetadata) UnmarshalJSON(data []byte) error {
	type plain ProcessingMetadata
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*m = ProcessingMetadata(p)
	return nil
}

// ThemeRecord is the theme artifact for one destination
// (outputs/session_*/json/<slug>_enhanced.json).
type ThemeRecord struct {
	Destination        string             `json:"destination"`
	DestinationID      string             `json:"destination_id,omitempty"`
	DestinationName    string             `json:"destination_name,omitempty"`
	Affinities         []Affinity         `json:"affinities"`
	QualityScore       float64            `json:"quality_score,omitempty"`
	ProcessingMetadata ProcessingMetadata `json:"processing_metadata"`
	Extra              Extra              `json:"-"`
}

// MarshalJSON encodes the record including unknown members.
func (r ThemeRecord) MarshalJSON() ([]byte, error) {
	type plain ThemeRecord
	if r.Affinities == nil {
		r.Affinities = []Affinity{}
	}
	return encodeWithExtra(plain(r), r.Extra)
}

// UnmarshalJSON decodes the record, keeping unknown members in Extra.
func (r *ThemeRecord) UnmarshalJSON(data []byte) error {
	type plain ThemeRecord
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*r = ThemeRecord(p)
	return nil
}

// NewThemeRecord wraps themes in a fresh record stamped at processedAt.
func NewThemeRecord(destination string, themes []Affinity, strategy, processedAt string) *ThemeRecord {
	affinities := make([]Affinity, len(themes))
	for i := range themes {
		affinities[i] = themes[i].Clone()
	}
	return &ThemeRecord{
		Destination:     destination,
		DestinationID:   Slug(destination),
		DestinationName: destination,
		Affinities:      affinities,
		ProcessingMetadata: ProcessingMetadata{
			ProcessingDate:     processedAt,
			SourceSystem:       "theme_lifecycle_manager",
			ThemeCount:         len(affinities),
			ProcessingStrategy: strategy,
			QualityScore:       MeanConfidence(affinities),
		},
	}
}

// IsEmpty reports whether the record holds no affinities.
func (r *ThemeRecord) IsEmpty() bool {
	return r == nil || len(r.Affinities) == 0
}

// Quality returns the embedded quality score, preferring the top-level value.
func (r *ThemeRecord) Quality() float64 {
	if r == nil {
		return 0
	}
	if r.QualityScore != 0 {
		return r.QualityScore
	}
	return r.ProcessingMetadata.QualityScore
}

// Categories returns the distinct categories in first-seen order.
// Themes without a category are reported as "unknown".
func (r *ThemeRecord) Categories() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := range r.Affinities {
		c := r.Affinities[i].Category
		if c == "" {
			c = "unknown"
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of the record.
func (r *ThemeRecord) Clone() *ThemeRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Affinities = make([]Affinity, len(r.Affinities))
	for i := range r.Affinities {
		out.Affinities[i] = r.Affinities[i].Clone()
	}
	out.ProcessingMetadata.Extra = cloneExtra(r.ProcessingMetadata.Extra)
	out.Extra = cloneExtra(r.Extra)
	return &out
}

// MeanConfidence returns the mean confidence of themes, or 0 when empty.
func MeanConfidence(themes []Affinity) float64 {
	if len(themes) == 0 {
		return 0
	}
	var sum float64
	for i := range themes {
		sum += themes[i].Confidence
	}
	return sum / float64(len(themes))
}
