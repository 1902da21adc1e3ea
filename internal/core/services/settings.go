package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyPathOutputs = "paths.outputs"
	keyPathCache   = "paths.cache"
	keyPathExports = "paths.exports"

	keyThemeIncremental     = "theme_processing.enable_incremental_updates"
	keyThemeThresholdDays   = "theme_processing.incremental_update_threshold_days"
	keyThemeMinQuality      = "theme_processing.min_quality_for_preservation"
	keyThemeMergeStrategy   = "theme_processing.merge_strategy"
	keyThemeImprovement     = "theme_processing.quality_improvement_threshold"
	keyThemeSimilarity      = "theme_processing.similarity_threshold"
	keySessionStrategy      = "session_management.consolidation_strategy"
	keySessionMaxSessions   = "session_management.max_sessions_to_consider"
	keySessionMinQuality    = "session_management.min_quality_for_preservation"
	keySessionCacheTTLHours = "session_management.consolidated_cache_ttl_hours"
	keySessionUseRegistry   = "session_management.use_registry"

	keyCacheVersioning  = "enhanced_caching.data_versioning"
	keyCacheMaxVersions = "enhanced_caching.max_versions_per_destination"

	keyExportFormat        = "export_system.default_format"
	keyExportMinQuality    = "export_system.min_quality_for_export"
	keyExportRequireBoth   = "export_system.require_both_themes_and_nuances"
	keyExportCopyImages    = "export_system.copy_images_to_export"
	keyExportImageManifest = "export_system.create_image_manifest"
	keyExportSchemas       = "export_system.include_schema_metadata"
	keyExportIntegrity     = "export_system.validate_export_integrity"
	keyExportByDestination = "export_system.organize_by_destination"
	keyExportSchemaVersion = "export_system.schema_version"
	keyExportVersion       = "export_system.version"

	keyQAAutoApprove   = "quality_assurance.auto_approve_threshold"
	keyQARequireReview = "quality_assurance.require_review_threshold"
	keyQAReviewers     = "quality_assurance.reviewers"
)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindList
)

// settingKeys lists every recognised key in display order.
var settingKeys = []struct {
	key  string
	kind settingKind
}{
	{keyPathOutputs, kindString},
	{keyPathCache, kindString},
	{keyPathExports, kindString},
	{keyThemeIncremental, kindBool},
	{keyThemeThresholdDays, kindInt},
	{keyThemeMinQuality, kindFloat},
	{keyThemeMergeStrategy, kindString},
	{keyThemeImprovement, kindFloat},
	{keyThemeSimilarity, kindFloat},
	{keySessionStrategy, kindString},
	{keySessionMaxSessions, kindInt},
	{keySessionMinQuality, kindFloat},
	{keySessionCacheTTLHours, kindInt},
	{keySessionUseRegistry, kindBool},
	{keyCacheVersioning, kindBool},
	{keyCacheMaxVersions, kindInt},
	{keyExportFormat, kindString},
	{keyExportMinQuality, kindFloat},
	{keyExportRequireBoth, kindBool},
	{keyExportCopyImages, kindBool},
	{keyExportImageManifest, kindBool},
	{keyExportSchemas, kindBool},
	{keyExportIntegrity, kindBool},
	{keyExportByDestination, kindBool},
	{keyExportSchemaVersion, kindString},
	{keyExportVersion, kindString},
	{keyQAAutoApprove, kindFloat},
	{keyQARequireReview, kindFloat},
	{keyQAReviewers, kindList},
}

// SettingsService manages pipeline settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings. Unset or unparsable keys take their defaults.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Paths: domain.PathSettings{
			Outputs: s.getString(keyPathOutputs, d.Paths.Outputs),
			Cache:   s.getString(keyPathCache, d.Paths.Cache),
			Exports: s.getString(keyPathExports, d.Paths.Exports),
		},
		Themes: domain.ThemeSettings{
			EnableIncrementalUpdates:       s.getBool(keyThemeIncremental, d.Themes.EnableIncrementalUpdates),
			IncrementalUpdateThresholdDays: s.getInt(keyThemeThresholdDays, d.Themes.IncrementalUpdateThresholdDays),
			MinQualityForPreservation:      s.getFloat(keyThemeMinQuality, d.Themes.MinQualityForPreservation),
			MergeStrategy:                  s.getMergeStrategy(d.Themes.MergeStrategy),
			QualityImprovementThreshold:    s.getFloat(keyThemeImprovement, d.Themes.QualityImprovementThreshold),
			SimilarityThreshold:            s.getFloat(keyThemeSimilarity, d.Themes.SimilarityThreshold),
		},
		Sessions: domain.SessionSettings{
			ConsolidationStrategy:     s.getConsolidationStrategy(d.Sessions.ConsolidationStrategy),
			MaxSessionsToConsider:     s.getInt(keySessionMaxSessions, d.Sessions.MaxSessionsToConsider),
			MinQualityForPreservation: s.getFloat(keySessionMinQuality, d.Sessions.MinQualityForPreservation),
			ConsolidatedCacheTTL: time.Duration(
				s.getInt(keySessionCacheTTLHours, int(d.Sessions.ConsolidatedCacheTTL/time.Hour)),
			) * time.Hour,
			UseRegistry: s.getBool(keySessionUseRegistry, d.Sessions.UseRegistry),
		},
		Cache: domain.CacheSettings{
			DataVersioning:            s.getBool(keyCacheVersioning, d.Cache.DataVersioning),
			MaxVersionsPerDestination: s.getInt(keyCacheMaxVersions, d.Cache.MaxVersionsPerDestination),
		},
		Export: domain.ExportSettings{
			DefaultFormat:               s.getExportFormat(d.Export.DefaultFormat),
			MinQualityForExport:         s.getFloat(keyExportMinQuality, d.Export.MinQualityForExport),
			RequireBothThemesAndNuances: s.getBool(keyExportRequireBoth, d.Export.RequireBothThemesAndNuances),
			CopyImages:                  s.getBool(keyExportCopyImages, d.Export.CopyImages),
			CreateImageManifest:         s.getBool(keyExportImageManifest, d.Export.CreateImageManifest),
			IncludeSchemaMetadata:       s.getBool(keyExportSchemas, d.Export.IncludeSchemaMetadata),
			ValidateIntegrity:           s.getBool(keyExportIntegrity, d.Export.ValidateIntegrity),
			OrganizeByDestination:       s.getBool(keyExportByDestination, d.Export.OrganizeByDestination),
			SchemaVersion:               s.getString(keyExportSchemaVersion, d.Export.SchemaVersion),
			Version:                     s.getString(keyExportVersion, d.Export.Version),
		},
		QA: domain.QASettings{
			AutoApproveThreshold:   s.getFloat(keyQAAutoApprove, d.QA.AutoApproveThreshold),
			RequireReviewThreshold: s.getFloat(keyQARequireReview, d.QA.RequireReviewThreshold),
			Reviewers:              s.getStringSlice(keyQAReviewers, d.QA.Reviewers),
		},
	}

	return settings, nil
}

// Set parses value for key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := lookupKind(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(key, kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every recognised setting key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.Settings {
	return domain.DefaultSettings()
}

func lookupKind(key string) (settingKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return 0, false
}

func parseSetting(key string, kind settingKind, value string) (any, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, err
		}
		if f < 0 || f > 1 {
			return nil, fmt.Errorf("must be between 0 and 1")
		}
		return f, nil
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			return nil, fmt.Errorf("list must not be empty")
		}
		return items, nil
	}

	if value == "" {
		return nil, fmt.Errorf("value must not be empty")
	}
	switch key {
	case keyThemeMergeStrategy:
		if !domain.MergeStrategy(value).IsValid() {
			return nil, fmt.Errorf("unknown merge strategy %q", value)
		}
	case keySessionStrategy:
		if !domain.ConsolidationStrategy(value).IsValid() {
			return nil, fmt.Errorf("unknown consolidation strategy %q", value)
		}
	case keyExportFormat:
		if !domain.ExportFormat(value).IsValid() {
			return nil, fmt.Errorf("unknown export format %q", value)
		}
	}
	return value, nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getMergeStrategy(defaultVal domain.MergeStrategy) domain.MergeStrategy {
	strategy := domain.MergeStrategy(s.configStore.GetString(keyThemeMergeStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getConsolidationStrategy(defaultVal domain.ConsolidationStrategy) domain.ConsolidationStrategy {
	strategy := domain.ConsolidationStrategy(s.configStore.GetString(keySessionStrategy))
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getExportFormat(defaultVal domain.ExportFormat) domain.ExportFormat {
	format := domain.ExportFormat(s.configStore.GetString(keyExportFormat))
	if !format.IsValid() {
		return defaultVal
	}
	return format
}
