package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/fsutil"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure ExportService implements the interface.
var _ driving.Exporter = (*ExportService)(nil)

// exporterSystem tags every exported data file.
const exporterSystem = "affinity-cli"

// imageManifestName is written under images/ alongside copied images.
const imageManifestName = "image_manifest.json"

// Export outcomes reported to metrics.
const (
	outcomeSuccess          = "success"
	outcomeValidationFailed = "validation_failed"
	outcomeIntegrityFailed  = "integrity_failed"
	outcomeError            = "error"
)

// ExportService writes consolidated records to versioned export directories.
type ExportService struct {
	root     string
	settings domain.ExportSettings
	schemas  driven.SchemaGenerator
	cache    driving.DataCache
	opts     options
}

// NewExportService creates an exporter rooted at settings.Paths.Exports.
// The schema generator and cache are optional (can be nil).
func NewExportService(
	settings domain.Settings,
	schemas driven.SchemaGenerator,
	cache driving.DataCache,
	opts ...Option,
) *ExportService {
	return &ExportService{
		root:     settings.Paths.Exports,
		settings: settings.Export,
		schemas:  schemas,
		cache:    cache,
		opts:     newOptions(opts),
	}
}

// ExportDestination validates data and writes it as a new export.
func (s *ExportService) ExportDestination(
	ctx context.Context, destination string, data *domain.ConsolidatedData, format domain.ExportFormat,
) (*domain.ExportResult, error) {
	if format == "" {
		format = s.settings.DefaultFormat
	}
	if !format.IsValid() {
		s.opts.metrics.ExportCompleted(format, outcomeError)
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	unlock := s.opts.locks.Lock(destination)
	defer unlock()

	logger.Section("Export")
	logger.Info("Exporting %s in %s format", destination, format)
	defer logger.Timed("Export of %s", destination)()

	if err := s.validate(destination, data); err != nil {
		s.opts.metrics.ExportCompleted(format, outcomeValidationFailed)
		return nil, err
	}

	result, err := s.write(ctx, destination, data, format)
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, domain.ErrExportIntegrity) {
			outcome = outcomeIntegrityFailed
		}
		s.opts.metrics.ExportCompleted(format, outcome)
		return result, err
	}

	if s.cache != nil {
		if err := s.cache.CacheExportData(ctx, destination, format, exportPayload(result)); err != nil {
			logger.Warn("Failed to cache export payload for %s: %v", destination, err)
		}
	}

	s.opts.metrics.ExportCompleted(format, outcomeSuccess)
	logger.Info("Export complete for %s: %s", destination, result.Path)
	return result, nil
}

// validate applies the export quality gates. It touches nothing on disk.
func (s *ExportService) validate(destination string, data *domain.ConsolidatedData) error {
	if data == nil {
		return fmt.Errorf("%w: %s: no consolidated data", domain.ErrExportValidation, destination)
	}

	hasThemes, hasNuances := data.HasThemes(), data.HasNuances()
	if s.settings.RequireBothThemesAndNuances && !(hasThemes && hasNuances) {
		return fmt.Errorf("%w: %s: requires both themes and nuances", domain.ErrExportValidation, destination)
	}
	if !hasThemes && !hasNuances {
		return fmt.Errorf("%w: %s: no themes or nuances data", domain.ErrExportValidation, destination)
	}

	check := func(t domain.DataType, embedded float64) error {
		q, ok := data.Metadata.QualityScores[t]
		if !ok {
			q = embedded
		}
		if q < s.settings.MinQualityForExport {
			return fmt.Errorf("%w: %s: %s quality (%.3f) below threshold (%.2f)",
				domain.ErrExportValidation, destination, t, q, s.settings.MinQualityForExport)
		}
		return nil
	}
	if hasThemes {
		if err := check(domain.DataTypeThemes, data.Themes.Quality()); err != nil {
			return err
		}
	}
	if hasNuances {
		if err := check(domain.DataTypeNuances, data.Nuances.Quality()); err != nil {
			return err
		}
	}

	logger.Debug("Export validation passed for %s", destination)
	return nil
}

func (s *ExportService) write(
	ctx context.Context, destination string, data *domain.ConsolidatedData, format domain.ExportFormat,
) (*domain.ExportResult, error) {
	now := s.opts.now()
	path, err := s.allocate(destination, now)
	if err != nil {
		return nil, err
	}

	result := &domain.ExportResult{
		Destination: destination,
		Format:      format,
		Path:        path,
		ExportedAt:  now,
		DataSummary: map[string]any{},
	}

	switch format {
	case domain.ExportJSON:
		err = s.writeJSON(result, data)
	default:
		err = s.writeStructured(result, data)
	}
	if err != nil {
		return result, err
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if s.settings.CopyImages {
		if err := s.copyImages(result, data); err != nil {
			return result, err
		}
	}

	if s.settings.IncludeSchemaMetadata && s.schemas != nil {
		if err := s.writeSchemas(path); err != nil {
			return result, err
		}
	}

	if err := s.writeManifest(result, data); err != nil {
		return result, err
	}

	if s.settings.ValidateIntegrity {
		if err := CheckExportIntegrity(path); err != nil {
			return result, err
		}
	}
	return result, nil
}

// allocate creates a fresh export directory and its fixed subdirectories.
// A second export in the same second gets a numeric suffix.
func (s *ExportService) allocate(destination string, now time.Time) (string, error) {
	slug := domain.Slug(destination)
	stamp := now.Format("20060102_150405")

	var base string
	if s.settings.OrganizeByDestination {
		base = filepath.Join(s.root, slug, "export_"+stamp)
	} else {
		base = filepath.Join(s.root, slug+"_export_"+stamp)
	}
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return "", fmt.Errorf("create export root: %w", err)
	}

	path := base
	for n := 1; ; n++ {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			break
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create export directory: %w", err)
		}
		path = base + "_" + strconv.Itoa(n)
	}

	for _, sub := range []string{domain.ExportDataDir, domain.ExportImagesDir, domain.ExportMetadataDir, domain.ExportSchemasDir} {
		if err := os.Mkdir(filepath.Join(path, sub), 0o755); err != nil {
			return "", fmt.Errorf("create export directory: %w", err)
		}
	}
	return path, nil
}

func (s *ExportService) exportMetadata(dataType string, at time.Time) domain.ExportMetadata {
	return domain.ExportMetadata{
		ExportedAt:    at,
		ExportVersion: s.settings.Version,
		SchemaVersion: s.settings.SchemaVersion,
		DataType:      dataType,
		Exporter:      exporterSystem,
	}
}

func (s *ExportService) writeFile(result *domain.ExportResult, rel string, v any) error {
	path := filepath.Join(result.Path, rel)
	if err := fsutil.WriteJSONAtomic(path, v); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	result.FilesCreated = append(result.FilesCreated, path)
	return nil
}

// writeStructured writes one file per data type.
func (s *ExportService) writeStructured(result *domain.ExportResult, data *domain.ConsolidatedData) error {
	dest := result.Destination
	at := result.ExportedAt

	if data.HasThemes() {
		err := s.writeFile(result, filepath.Join(domain.ExportDataDir, "themes.json"), map[string]any{
			"destination":     dest,
			"export_metadata": s.exportMetadata("themes", at),
			"themes_data":     data.Themes,
		})
		if err != nil {
			return err
		}
		result.DataSummary["themes"] = map[string]any{
			"theme_count": len(data.Themes.Affinities),
			"categories":  data.Themes.Categories(),
		}
	}

	if data.HasNuances() {
		err := s.writeFile(result, filepath.Join(domain.ExportDataDir, "nuances.json"), map[string]any{
			"destination":     dest,
			"export_metadata": s.exportMetadata("nuances", at),
			"nuances_data":    data.Nuances,
		})
		if err != nil {
			return err
		}
		summary := map[string]any{}
		for _, c := range domain.AllNuanceCategories() {
			summary[string(c)] = len(data.Nuances.Category(c))
		}
		result.DataSummary["nuances"] = summary
	}

	if len(data.Evidence) > 0 {
		err := s.writeFile(result, filepath.Join(domain.ExportDataDir, "evidence.json"), map[string]any{
			"destination":     dest,
			"export_metadata": s.exportMetadata("evidence", at),
			"evidence_data":   data.Evidence,
		})
		if err != nil {
			return err
		}
		result.DataSummary["evidence"] = map[string]any{"evidence_count": len(data.Evidence)}
	}

	return s.writeFile(result, filepath.Join(domain.ExportMetadataDir, "processing_metadata.json"), map[string]any{
		"destination":         dest,
		"export_metadata":     s.exportMetadata("metadata", at),
		"processing_metadata": data.Metadata,
		"source_sessions":     data.SourceSessions,
	})
}

// writeJSON writes the whole record to a single file.
func (s *ExportService) writeJSON(result *domain.ExportResult, data *domain.ConsolidatedData) error {
	name := domain.Slug(result.Destination) + "_complete.json"
	err := s.writeFile(result, filepath.Join(domain.ExportDataDir, name), map[string]any{
		"destination":       result.Destination,
		"export_metadata":   s.exportMetadata("complete", result.ExportedAt),
		"consolidated_data": data,
	})
	if err != nil {
		return err
	}

	themeCount := 0
	if data.Themes != nil {
		themeCount = len(data.Themes.Affinities)
	}
	result.DataSummary["themes"] = themeCount
	for _, c := range domain.AllNuanceCategories() {
		result.DataSummary[string(c)] = len(data.Nuances.Category(c))
	}
	result.DataSummary["evidence_count"] = len(data.Evidence)
	return nil
}

// copyImages copies every referenced image that exists. Missing or
// uncopyable sources are recorded, not fatal.
func (s *ExportService) copyImages(result *domain.ExportResult, data *domain.ConsolidatedData) error {
	if len(data.Images) == 0 {
		return nil
	}

	seasons := make([]string, 0, len(data.Images))
	for season := range data.Images {
		seasons = append(seasons, season)
	}
	sort.Strings(seasons)

	imagesDir := filepath.Join(result.Path, domain.ExportImagesDir)
	manifest := domain.ImageManifest{
		Destination:  result.Destination,
		Images:       make(map[string]domain.ImageManifestEntry, len(seasons)),
		CopiedImages: []string{},
		ExportedAt:   result.ExportedAt,
	}

	for _, season := range seasons {
		src := data.Images[season]
		ext := strings.ToLower(filepath.Ext(src))
		if ext == "" {
			ext = ".jpg"
		}
		dst := filepath.Join(imagesDir, season+ext)

		copied, err := fsutil.CopyFileIfExists(src, dst, true)
		if err != nil {
			logger.Warn("Failed to copy image %s: %v", src, err)
		}
		if copied {
			result.CopiedImages = append(result.CopiedImages, dst)
			manifest.CopiedImages = append(manifest.CopiedImages, dst)
			logger.Debug("Copied image: %s -> %s", season, dst)
		} else {
			result.MissingImages = append(result.MissingImages, src)
		}
		manifest.Images[season] = domain.ImageManifestEntry{
			OriginalPath: src,
			ExportPath:   dst,
			Exists:       fsutil.Exists(src),
		}
	}

	if s.settings.CreateImageManifest {
		return s.writeFile(result, filepath.Join(domain.ExportImagesDir, imageManifestName), manifest)
	}
	return nil
}

func (s *ExportService) writeSchemas(root string) error {
	docs, err := s.schemas.Schemas()
	if err != nil {
		return fmt.Errorf("generate schemas: %w", err)
	}
	for name, doc := range docs {
		path := filepath.Join(root, domain.ExportSchemasDir, name)
		if err := fsutil.WriteFileAtomic(path, doc, 0o644); err != nil {
			return fmt.Errorf("write schema %s: %w", name, err)
		}
	}
	return nil
}

// writeManifest lists every file in the export by category and records the
// export size, excluding the manifest itself.
func (s *ExportService) writeManifest(result *domain.ExportResult, data *domain.ConsolidatedData) error {
	files := domain.ManifestFiles{
		Data:     []string{},
		Images:   []string{},
		Metadata: []string{},
		Schemas:  []string{},
	}
	var size int64

	err := filepath.WalkDir(result.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(result.Path, path)
		if err != nil {
			return err
		}
		if rel == domain.ManifestFileName {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()

		rel = filepath.ToSlash(rel)
		switch filepath.Base(filepath.Dir(path)) {
		case domain.ExportDataDir:
			files.Data = append(files.Data, rel)
		case domain.ExportImagesDir:
			files.Images = append(files.Images, rel)
		case domain.ExportMetadataDir:
			files.Metadata = append(files.Metadata, rel)
		case domain.ExportSchemasDir:
			files.Schemas = append(files.Schemas, rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan export: %w", err)
	}

	manifest := domain.ExportManifest{
		Export: domain.ManifestHeader{
			Destination:   result.Destination,
			ExportVersion: s.settings.Version,
			SchemaVersion: s.settings.SchemaVersion,
			ExportedAt:    result.ExportedAt,
			Format:        result.Format,
			SizeBytes:     size,
			SizeMB:        float64(size) / (1024 * 1024),
		},
		DataSummary: result.DataSummary,
		Files:       files,
		Quality: domain.ManifestQuality{
			QualityScores:  data.Metadata.QualityScores,
			DataSources:    data.Metadata.DataSources,
			SourceSessions: data.SourceSessions,
			Strategy:       data.Metadata.Strategy,
		},
	}
	return s.writeFile(result, domain.ManifestFileName, manifest)
}

// CheckExportIntegrity verifies the manifest exists and every .json file
// in the export parses.
func CheckExportIntegrity(root string) error {
	if !fsutil.Exists(filepath.Join(root, domain.ManifestFileName)) {
		return fmt.Errorf("%w: manifest missing in %s", domain.ErrExportIntegrity, root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrExportIntegrity, path, err)
		}
		if !json.Valid(b) {
			return fmt.Errorf("%w: invalid JSON in %s", domain.ErrExportIntegrity, path)
		}
		return nil
	})
}

func exportPayload(result *domain.ExportResult) map[string]any {
	return map[string]any{
		"destination":      result.Destination,
		"export_format":    string(result.Format),
		"export_path":      result.Path,
		"export_timestamp": domain.FormatTimestamp(result.ExportedAt),
		"files_created":    result.FilesCreated,
		"data_summary":     result.DataSummary,
	}
}
