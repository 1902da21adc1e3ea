package services

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/fsutil"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// CreateArchive zips an export directory into <export>.zip next to it.
func (s *ExportService) CreateArchive(_ context.Context, exportPath string) (string, error) {
	exportPath = filepath.Clean(exportPath)
	info, err := os.Stat(exportPath)
	if err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("archive export: %w: %s is not a directory", domain.ErrInvalidInput, exportPath)
	}

	archivePath := exportPath + ".zip"
	tmp, err := os.CreateTemp(filepath.Dir(exportPath), ".tmp_archive_*")
	if err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	zw := zip.NewWriter(tmp)
	if err := addTree(zw, exportPath); err != nil {
		_ = zw.Close()
		_ = tmp.Close()
		return "", fmt.Errorf("archive export: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("archive export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}
	if err := os.Rename(tmpName, archivePath); err != nil {
		return "", fmt.Errorf("archive export: %w", err)
	}

	logger.Info("Created export archive: %s", archivePath)
	return archivePath, nil
}

func addTree(zw *zip.Writer, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		header.Method = zip.Deflate

		w, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
}

// exportDir is one export directory on disk.
type exportDir struct {
	path        string
	destination string
	modTime     time.Time
}

// exportDirs finds every export under the root, in either layout:
// <root>/<slug>/export_<ts> or <root>/<slug>_export_<ts>.
func (s *ExportService) exportDirs() ([]exportDir, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []exportDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(s.root, e.Name())

		if slug, _, ok := strings.Cut(e.Name(), "_export_"); ok {
			if info, err := e.Info(); err == nil {
				dirs = append(dirs, exportDir{path: path, destination: slug, modTime: info.ModTime()})
			}
			continue
		}

		children, err := os.ReadDir(path)
		if err != nil {
			logger.Warn("Failed to read export directory %s: %v", path, err)
			continue
		}
		for _, c := range children {
			if !c.IsDir() || !strings.HasPrefix(c.Name(), "export_") {
				continue
			}
			if info, err := c.Info(); err == nil {
				dirs = append(dirs, exportDir{
					path:        filepath.Join(path, c.Name()),
					destination: e.Name(),
					modTime:     info.ModTime(),
				})
			}
		}
	}
	return dirs, nil
}

// Statistics summarises the exports directory.
func (s *ExportService) Statistics(_ context.Context) (*domain.ExportStatistics, error) {
	dirs, err := s.exportDirs()
	if err != nil {
		return nil, fmt.Errorf("export statistics: %w", err)
	}

	stats := &domain.ExportStatistics{
		TotalExports: len(dirs),
		Directory:    s.root,
		Destinations: []string{},
	}
	seen := make(map[string]bool)
	var total int64
	for _, d := range dirs {
		if !seen[d.destination] {
			seen[d.destination] = true
			stats.Destinations = append(stats.Destinations, d.destination)
		}
		size, err := fsutil.DirSize(d.path)
		if err != nil {
			logger.Warn("Failed to size export %s: %v", d.path, err)
			continue
		}
		total += size
	}
	sort.Strings(stats.Destinations)
	stats.TotalSizeMB = float64(total) / (1024 * 1024)
	return stats, nil
}

// CleanupOldExports removes exports (and their archives) last modified more
// than daysOld days ago, returning how many were removed.
func (s *ExportService) CleanupOldExports(_ context.Context, daysOld int) (int, error) {
	if daysOld < 0 {
		return 0, fmt.Errorf("cleanup exports: %w: negative age", domain.ErrInvalidInput)
	}

	dirs, err := s.exportDirs()
	if err != nil {
		return 0, fmt.Errorf("cleanup exports: %w", err)
	}

	cutoff := s.opts.now().Add(-time.Duration(daysOld) * 24 * time.Hour)
	removed := 0
	for _, d := range dirs {
		if !d.modTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(d.path); err != nil {
			return removed, fmt.Errorf("cleanup exports: %w", err)
		}
		if err := os.Remove(d.path + ".zip"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove archive for %s: %v", d.path, err)
		}
		removed++
		logger.Debug("Cleaned up old export: %s", d.path)
	}

	logger.Info("Cleaned up %d old exports", removed)
	return removed, nil
}
