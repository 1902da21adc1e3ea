package domain

import "time"

// ExportFormat selects the on-disk layout of an export.
type ExportFormat string

// Available export formats.
const (
	// ExportStructured writes one file per data type.
	ExportStructured ExportFormat = "structured"

	// ExportJSON writes the whole consolidated record to a single file.
	ExportJSON ExportFormat = "json"
)

// IsValid returns true if the format is recognised.
func (f ExportFormat) IsValid() bool {
	return f == ExportStructured || f == ExportJSON
}

// String returns the string representation.
func (f ExportFormat) String() string {
	return string(f)
}

// ManifestFileName is the manifest every complete export carries.
const ManifestFileName = "EXPORT_MANIFEST.json"

// Export subdirectories, created for every export.
const (
	ExportDataDir     = "data"
	ExportImagesDir   = "images"
	ExportMetadataDir = "metadata"
	ExportSchemasDir  = "schemas"
)

// ExportMetadata tags every exported data file.
type ExportMetadata struct {
	ExportedAt    time.Time `json:"export_timestamp"`
	ExportVersion string    `json:"export_version"`
	SchemaVersion string    `json:"schema_version"`
	DataType      string    `json:"data_type"`
	Exporter      string    `json:"exporter_system"`
}

// ExportResult describes a completed export.
type ExportResult struct {
	Destination   string         `json:"destination"`
	Format        ExportFormat   `json:"export_format"`
	Path          string         `json:"export_path"`
	ExportedAt    time.Time      `json:"export_timestamp"`
	FilesCreated  []string       `json:"files_created"`
	DataSummary   map[string]any `json:"data_summary"`
	CopiedImages  []string       `json:"copied_images,omitempty"`
	MissingImages []string       `json:"missing_images,omitempty"`
}

// ExportManifest is written to EXPORT_MANIFEST.json.
type ExportManifest struct {
	Export      ManifestHeader  `json:"export_manifest"`
	DataSummary map[string]any  `json:"data_summary"`
	Files       ManifestFiles   `json:"files"`
	Quality     ManifestQuality `json:"quality_information"`
}

// ManifestHeader identifies the export.
type ManifestHeader struct {
	Destination   string       `json:"destination"`
	ExportVersion string       `json:"export_version"`
	SchemaVersion string       `json:"schema_version"`
	ExportedAt    time.Time    `json:"export_timestamp"`
	Format        ExportFormat `json:"export_format"`
	SizeBytes     int64        `json:"export_size_bytes"`
	SizeMB        float64      `json:"export_size_mb"`
}

// ManifestFiles lists exported files by category, relative to the export root.
type ManifestFiles struct {
	Data     []string `json:"data_files"`
	Images   []string `json:"image_files"`
	Metadata []string `json:"metadata_files"`
	Schemas  []string `json:"schema_files"`
}

// ManifestQuality carries the quality information the export passed with.
type ManifestQuality struct {
	QualityScores  map[DataType]float64  `json:"quality_scores"`
	DataSources    map[DataType][]string `json:"data_sources"`
	SourceSessions []string              `json:"source_sessions"`
	Strategy       ConsolidationStrategy `json:"consolidation_strategy"`
}

// ImageManifest records every referenced image and whether it was copied.
type ImageManifest struct {
	Destination  string                        `json:"destination"`
	Images       map[string]ImageManifestEntry `json:"images"`
	CopiedImages []string                      `json:"copied_images"`
	ExportedAt   time.Time                     `json:"export_timestamp"`
}

// ImageManifestEntry is one referenced image.
type ImageManifestEntry struct {
	OriginalPath string `json:"original_path"`
	ExportPath   string `json:"export_path"`
	Exists       bool   `json:"exists"`
}

// ExportStatistics summarises the exports directory.
type ExportStatistics struct {
	TotalExports int      `json:"total_exports"`
	Directory    string   `json:"export_directory"`
	Destinations []string `json:"destinations_exported"`
	TotalSizeMB  float64  `json:"total_export_size_mb"`
}

// BulkExportResult summarises an export of every known destination.
type BulkExportResult struct {
	Format    ExportFormat                 `json:"export_format"`
	Total     int                          `json:"total_destinations"`
	Succeeded int                          `json:"successful_exports"`
	Failed    int                          `json:"failed_exports"`
	Results   map[string]BulkExportOutcome `json:"export_results"`
}

// BulkExportOutcome is what happened to one destination of a bulk export.
type BulkExportOutcome struct {
	Path  string `json:"export_path,omitempty"`
	Error string `json:"error,omitempty"`
}

// OK reports whether the destination was exported.
func (o BulkExportOutcome) OK() bool {
	return o.Error == ""
}
