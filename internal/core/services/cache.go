package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/fsutil"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure CacheService implements the interface.
var _ driving.DataCache = (*CacheService)(nil)

// Cache store directories under the cache root.
const (
	consolidatedDir = "consolidated"
	versionsDir     = "versions"
	exportsDir      = "exports"
)

// Cache store names reported to metrics.
const (
	storeConsolidated = "consolidated"
	storeExport       = "export"
)

// CacheService is a file-backed cache of consolidated records with content
// versioning, plus a short-lived cache of export payloads.
type CacheService struct {
	root     string
	ttl      time.Duration
	settings domain.CacheSettings
	opts     options
}

// NewCacheService creates a cache rooted at settings.Paths.Cache.
func NewCacheService(settings domain.Settings, opts ...Option) *CacheService {
	ttl := settings.Sessions.ConsolidatedCacheTTL
	if ttl <= 0 {
		ttl = domain.DefaultSettings().Sessions.ConsolidatedCacheTTL
	}
	return &CacheService{
		root:     settings.Paths.Cache,
		ttl:      ttl,
		settings: settings.Cache,
		opts:     newOptions(opts),
	}
}

func (s *CacheService) consolidatedPath(destination string) string {
	return filepath.Join(s.root, consolidatedDir, domain.Slug(destination)+"_consolidated.json")
}

func (s *CacheService) versionPath(destination, version string) string {
	return filepath.Join(s.root, versionsDir, domain.Slug(destination)+"_"+versionPrefix(version)+".json")
}

func (s *CacheService) exportPath(destination string, format domain.ExportFormat) string {
	return filepath.Join(s.root, exportsDir, domain.Slug(destination)+"_"+string(format)+".json")
}

// CacheConsolidatedData stores data and returns its data version.
func (s *CacheService) CacheConsolidatedData(
	_ context.Context, destination string, data *domain.ConsolidatedData,
) (string, error) {
	if data == nil {
		return "", fmt.Errorf("cache %s: %w", destination, domain.ErrInvalidInput)
	}

	version, err := DataVersion(data)
	if err != nil {
		return "", err
	}

	now := s.opts.now()
	entry := domain.CacheEntry{
		Destination: destination,
		Data:        *data,
		Metadata: domain.CacheMetadata{
			CachedAt:    now,
			DataVersion: version,
			TTLHours:    s.ttl.Hours(),
		},
	}
	if err := fsutil.WriteJSONAtomic(s.consolidatedPath(destination), entry); err != nil {
		return "", fmt.Errorf("cache %s: %w", destination, err)
	}

	if s.settings.DataVersioning {
		if err := s.saveVersion(destination, data, version, now); err != nil {
			return "", err
		}
	}

	logger.Debug("Cached consolidated data for %s (version %s)", destination, versionPrefix(version))
	return version, nil
}

func (s *CacheService) saveVersion(destination string, data *domain.ConsolidatedData, version string, now time.Time) error {
	encoded, err := canonicalJSON(data)
	if err != nil {
		return fmt.Errorf("version %s: %w", destination, err)
	}

	snapshot := domain.VersionSnapshot{
		Destination: destination,
		Version:     version,
		Data:        *data,
		CreatedAt:   now,
		DataSize:    len(encoded),
	}
	path := s.versionPath(destination, version)
	if err := fsutil.WriteJSONAtomic(path, snapshot); err != nil {
		return fmt.Errorf("version %s: %w", destination, err)
	}
	// Pruning orders by modification time; stamp it with the service clock.
	if err := os.Chtimes(path, now, now); err != nil {
		logger.Warn("Failed to stamp version %s: %v", filepath.Base(path), err)
	}

	s.pruneVersions(destination)
	return nil
}

type versionFile struct {
	name    string
	prefix  string
	modTime time.Time
}

// versionFiles lists the version files of destination, newest first.
func (s *CacheService) versionFiles(destination string) ([]versionFile, error) {
	dir := filepath.Join(s.root, versionsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	namePrefix := domain.Slug(destination) + "_"
	var files []versionFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, namePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		prefix := strings.TrimSuffix(strings.TrimPrefix(name, namePrefix), ".json")
		if !isVersionPrefix(prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, versionFile{name: name, prefix: prefix, modTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].name > files[j].name
	})
	return files, nil
}

func isVersionPrefix(s string) bool {
	if len(s) != versionPrefixLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// pruneVersions removes the oldest versions beyond the configured maximum.
func (s *CacheService) pruneVersions(destination string) {
	limit := s.settings.MaxVersionsPerDestination
	if limit <= 0 {
		return
	}
	files, err := s.versionFiles(destination)
	if err != nil {
		logger.Warn("Failed to list versions for %s: %v", destination, err)
		return
	}
	if len(files) <= limit {
		return
	}
	for _, f := range files[limit:] {
		if err := os.Remove(filepath.Join(s.root, versionsDir, f.name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove old version %s: %v", f.name, err)
			continue
		}
		logger.Debug("Removed old version file: %s", f.name)
	}
}

// GetConsolidatedData returns the cached record, or nil on a miss.
// Expired entries are deleted; unreadable entries count as a miss.
func (s *CacheService) GetConsolidatedData(_ context.Context, destination string) *domain.ConsolidatedData {
	path := s.consolidatedPath(destination)

	var entry domain.CacheEntry
	if err := fsutil.ReadJSON(path, &entry); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to load cached data for %s: %v", destination, err)
		}
		s.opts.metrics.CacheLookup(storeConsolidated, false)
		return nil
	}

	if entry.Metadata.TTLHours <= 0 {
		entry.Metadata.TTLHours = s.ttl.Hours()
	}
	if entry.Expired(s.opts.now()) {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove expired cache for %s: %v", destination, err)
		}
		logger.Debug("Removed expired cache for %s", destination)
		s.opts.metrics.CacheLookup(storeConsolidated, false)
		return nil
	}

	logger.Debug("Cache hit for consolidated data: %s", destination)
	s.opts.metrics.CacheLookup(storeConsolidated, true)
	return &entry.Data
}

// InvalidateDestination drops the cached record for a destination.
func (s *CacheService) InvalidateDestination(_ context.Context, destination string) error {
	if err := os.Remove(s.consolidatedPath(destination)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("invalidate %s: %w", destination, err)
	}
	logger.Debug("Invalidated cache for %s", destination)
	return nil
}

// Versions lists stored version prefixes for a destination, newest first.
func (s *CacheService) Versions(_ context.Context, destination string) ([]string, error) {
	files, err := s.versionFiles(destination)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", destination, err)
	}
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.prefix
	}
	return out, nil
}

func (s *CacheService) loadVersion(destination, version string) *domain.VersionSnapshot {
	var snapshot domain.VersionSnapshot
	if err := fsutil.ReadJSON(s.versionPath(destination, version), &snapshot); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to load version %s for %s: %v", versionPrefix(version), destination, err)
		}
		return nil
	}
	return &snapshot
}

// GetDataDiff diffs two stored versions, or returns nil if either is missing.
// Versions may be given in full or as their eight-character prefix.
func (s *CacheService) GetDataDiff(_ context.Context, destination, oldVersion, newVersion string) *domain.DataDiff {
	old := s.loadVersion(destination, oldVersion)
	updated := s.loadVersion(destination, newVersion)
	if old == nil || updated == nil {
		return nil
	}

	return &domain.DataDiff{
		Destination: destination,
		OldVersion:  oldVersion,
		NewVersion:  newVersion,
		Changes:     diffData(&old.Data, &updated.Data),
		ComputedAt:  s.opts.now(),
	}
}

// CacheExportData stores an export payload.
func (s *CacheService) CacheExportData(
	_ context.Context, destination string, format domain.ExportFormat, payload map[string]any,
) error {
	entry := domain.ExportCacheEntry{
		Destination: destination,
		Format:      format,
		Payload:     payload,
		CachedAt:    s.opts.now(),
	}
	if err := fsutil.WriteJSONAtomic(s.exportPath(destination, format), entry); err != nil {
		return fmt.Errorf("cache export %s: %w", destination, err)
	}
	logger.Debug("Cached export data for %s (%s)", destination, format)
	return nil
}

// GetCachedExportData returns a cached export payload, or nil on a miss.
// Export payloads expire after domain.ExportCacheTTL regardless of the
// consolidated-data TTL.
func (s *CacheService) GetCachedExportData(
	_ context.Context, destination string, format domain.ExportFormat,
) map[string]any {
	path := s.exportPath(destination, format)

	var entry domain.ExportCacheEntry
	if err := fsutil.ReadJSON(path, &entry); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to load cached export for %s: %v", destination, err)
		}
		s.opts.metrics.CacheLookup(storeExport, false)
		return nil
	}

	if s.opts.now().Sub(entry.CachedAt) > domain.ExportCacheTTL {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove expired export cache for %s: %v", destination, err)
		}
		s.opts.metrics.CacheLookup(storeExport, false)
		return nil
	}

	s.opts.metrics.CacheLookup(storeExport, true)
	return entry.Payload
}

// Statistics summarises every cache store.
func (s *CacheService) Statistics(_ context.Context) (*domain.CacheStatistics, error) {
	stats := &domain.CacheStatistics{
		TTLHours:          s.ttl.Hours(),
		VersioningEnabled: s.settings.DataVersioning,
		MaxVersions:       s.settings.MaxVersionsPerDestination,
	}

	var total int64
	for _, dir := range []string{consolidatedDir, versionsDir, exportsDir} {
		count, size, err := jsonFiles(filepath.Join(s.root, dir))
		if err != nil {
			return nil, fmt.Errorf("cache statistics: %w", err)
		}
		total += size
		switch dir {
		case consolidatedDir:
			stats.CachedDestinations = count
		case versionsDir:
			stats.VersionedEntries = count
		case exportsDir:
			stats.ExportEntries = count
		}
	}
	stats.TotalSizeMB = float64(total) / (1024 * 1024)
	return stats, nil
}

// jsonFiles counts the .json files directly under dir and their total size.
// A missing directory is empty.
func jsonFiles(dir string) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	count := 0
	var size int64
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		count++
		size += info.Size()
	}
	return count, size, nil
}

// ClearAll removes every cached file.
func (s *CacheService) ClearAll(_ context.Context) error {
	for _, dir := range []string{consolidatedDir, versionsDir, exportsDir} {
		matches, err := filepath.Glob(filepath.Join(s.root, dir, "*.json"))
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("clear cache: %w", err)
			}
		}
	}
	logger.Info("Cleared all cached data")
	return nil
}
