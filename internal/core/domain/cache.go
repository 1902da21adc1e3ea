package domain

import "time"

// CacheMetadata describes a cached consolidated record.
type CacheMetadata struct {
	CachedAt    time.Time `json:"cached_at"`
	DataVersion string    `json:"data_version"`
	TTLHours    float64   `json:"ttl_hours"`
}

// CacheEntry is the persisted form of a cached consolidated record.
type CacheEntry struct {
	Destination string           `json:"destination"`
	Data        ConsolidatedData `json:"data"`
	Metadata    CacheMetadata    `json:"cache_metadata"`
}

// Expired reports whether the entry is older than its TTL at now.
func (e CacheEntry) Expired(now time.Time) bool {
	ttl := time.Duration(e.Metadata.TTLHours * float64(time.Hour))
	return now.Sub(e.Metadata.CachedAt) > ttl
}

// VersionSnapshot is an immutable, dated copy of a cached record.
type VersionSnapshot struct {
	Destination string           `json:"destination"`
	Version     string           `json:"version"`
	Data        ConsolidatedData `json:"data"`
	CreatedAt   time.Time        `json:"created_at"`
	DataSize    int              `json:"data_size"`
}

// ExportCacheEntry is a cached export payload.
type ExportCacheEntry struct {
	Destination string         `json:"destination"`
	Format      ExportFormat   `json:"export_format"`
	Payload     map[string]any `json:"export_data"`
	CachedAt    time.Time      `json:"cached_at"`
}

// CacheStatistics summarises the cache stores.
type CacheStatistics struct {
	CachedDestinations int     `json:"cached_destinations"`
	VersionedEntries   int     `json:"versioned_entries"`
	ExportEntries      int     `json:"export_cache_entries"`
	TotalSizeMB        float64 `json:"total_cache_size_mb"`
	TTLHours           float64 `json:"cache_ttl_hours"`
	VersioningEnabled  bool    `json:"versioning_enabled"`
	MaxVersions        int     `json:"max_versions_per_destination"`
}

// DataDiff is the structural difference between two cached versions.
type DataDiff struct {
	Destination string      `json:"destination"`
	OldVersion  string      `json:"old_version"`
	NewVersion  string      `json:"new_version"`
	Changes     DataChanges `json:"changes"`
	ComputedAt  time.Time   `json:"diff_timestamp"`
}

// DataChanges holds independent change sets per data type.
type DataChanges struct {
	Themes   ThemeChanges                     `json:"themes"`
	Nuances  map[NuanceCategory]NuanceChanges `json:"nuances"`
	Images   ImageChanges                     `json:"images"`
	Evidence EvidenceChanges                  `json:"evidence"`
}

// ThemeChanges is the theme diff, keyed by theme name.
type ThemeChanges struct {
	Added    []Affinity   `json:"added"`
	Removed  []Affinity   `json:"removed"`
	Modified []ThemeDelta `json:"modified"`
}

// ThemeDelta is one theme present in both versions with different content.
type ThemeDelta struct {
	Theme string   `json:"theme_name"`
	Old   Affinity `json:"old"`
	New   Affinity `json:"new"`
}

// NuanceChanges is the diff of one nuance category, keyed by phrase.
type NuanceChanges struct {
	Added    []Nuance      `json:"added"`
	Removed  []Nuance      `json:"removed"`
	Modified []NuanceDelta `json:"modified"`
}

// NuanceDelta is one phrase present in both versions with different content.
type NuanceDelta struct {
	Phrase string `json:"phrase"`
	Old    Nuance `json:"old"`
	New    Nuance `json:"new"`
}

// ImageChanges is the image diff, keyed by season.
type ImageChanges struct {
	Added   map[string]string     `json:"added"`
	Removed map[string]string     `json:"removed"`
	Changed map[string]ImageDelta `json:"changed"`
}

// ImageDelta is a season whose image path changed.
type ImageDelta struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// EvidenceChanges is the evidence diff, keyed by URL.
type EvidenceChanges struct {
	Added    []Evidence      `json:"added"`
	Removed  []Evidence      `json:"removed"`
	Modified []EvidenceDelta `json:"modified"`
}

// EvidenceDelta is one URL present in both versions with different content.
type EvidenceDelta struct {
	URL string   `json:"url"`
	Old Evidence `json:"old"`
	New Evidence `json:"new"`
}

// IsEmpty reports whether no data type changed.
func (c DataChanges) IsEmpty() bool {
	if len(c.Themes.Added)+len(c.Themes.Removed)+len(c.Themes.Modified) > 0 {
		return false
	}
	for _, n := range c.Nuances {
		if len(n.Added)+len(n.Removed)+len(n.Modified) > 0 {
			return false
		}
	}
	if len(c.Images.Added)+len(c.Images.Removed)+len(c.Images.Changed) > 0 {
		return false
	}
	return len(c.Evidence.Added)+len(c.Evidence.Removed)+len(c.Evidence.Modified) == 0
}
