package outputs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/fsutil"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.SessionSource = (*Source)(nil)

const (
	sessionPrefix = "session_"
	jsonDir       = "json"
	imagesDir     = "images"

	themesSuffix          = "_enhanced.json"
	nuancesSuffix         = "_nuances.json"
	evidenceSuffix        = "_evidence.json"
	nuancesEvidenceSuffix = "_nuances_evidence.json"

	collageName = "seasonal_collage"
	collageKey  = "collage"
)

var (
	seasons         = []string{"spring", "summer", "autumn", "winter"}
	imageExtensions = []string{".jpg", ".jpeg", ".png"}
)

// Source is a filesystem implementation of driven.SessionSource.
type Source struct {
	root string
}

// NewSource creates a session source rooted at the outputs directory.
func NewSource(root string) *Source {
	return &Source{root: root}
}

// Root returns the outputs directory.
func (s *Source) Root() string {
	return s.root
}

// Discover scans every session directory for artifacts of the destination slug.
func (s *Source) Discover(ctx context.Context, slug string) ([]domain.Session, error) {
	slug = domain.Slug(slug)
	dirs, err := s.sessionDirs()
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0)
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		session, ok := s.inspect(dir, slug)
		if ok {
			sessions = append(sessions, session)
		}
	}

	domain.SortSessionsNewestFirst(sessions)
	logger.Debug("Discovered %d sessions for %s", len(sessions), slug)
	return sessions, nil
}

// Destinations returns every destination slug with at least one artifact.
func (s *Source) Destinations(ctx context.Context) ([]string, error) {
	dirs, err := s.sessionDirs()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(filepath.Join(dir, jsonDir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if slug, ok := ArtifactSlug(e.Name()); ok {
				seen[slug] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for slug := range seen {
		result = append(result, slug)
	}
	sort.Strings(result)
	return result, nil
}

// Fingerprint hashes the session names together with the modification times
// of every directory and artifact Discover reads for slug.
func (s *Source) Fingerprint(ctx context.Context, slug string) (string, error) {
	slug = domain.Slug(slug)
	dirs, err := s.sessionDirs()
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\n", filepath.Base(dir))
		for _, path := range []string{
			filepath.Join(dir, jsonDir),
			artifactPath(dir, slug, themesSuffix),
			artifactPath(dir, slug, nuancesSuffix),
			imageDir(dir, slug),
		} {
			fmt.Fprintf(h, "\t%s\n", modStamp(path))
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// modStamp is the modification time and size of path, or "-" if absent.
func modStamp(path string) string {
	if path == "" {
		return "-"
	}
	info, err := os.Stat(path)
	if err != nil {
		return "-"
	}
	return fmt.Sprintf("%d:%d", info.ModTime().UnixNano(), info.Size())
}

// ArtifactSlug returns the destination slug a theme or nuance artifact file
// name belongs to. Evidence files are not artifacts of their own.
func ArtifactSlug(name string) (string, bool) {
	switch {
	case strings.HasSuffix(name, nuancesEvidenceSuffix), strings.HasSuffix(name, evidenceSuffix):
		return "", false
	case strings.HasSuffix(name, themesSuffix):
		return strings.TrimSuffix(name, themesSuffix), true
	case strings.HasSuffix(name, nuancesSuffix):
		return strings.TrimSuffix(name, nuancesSuffix), true
	}
	return "", false
}

// IsSessionDir reports whether a directory name follows the session naming scheme.
func IsSessionDir(name string) bool {
	return strings.HasPrefix(name, sessionPrefix)
}

// LoadThemes loads the theme artifact of a session.
func (s *Source) LoadThemes(_ context.Context, session domain.Session) (*domain.ThemeRecord, error) {
	path := artifactPath(session.Path, session.Destination, themesSuffix)
	var record domain.ThemeRecord
	if err := readArtifact(path, &record); err != nil {
		return nil, fmt.Errorf("load themes from %s: %w", session.ID, err)
	}
	return &record, nil
}

// LoadNuances loads the nuance artifact of a session.
func (s *Source) LoadNuances(_ context.Context, session domain.Session) (*domain.NuanceBundle, error) {
	path := artifactPath(session.Path, session.Destination, nuancesSuffix)
	var bundle domain.NuanceBundle
	if err := readArtifact(path, &bundle); err != nil {
		return nil, fmt.Errorf("load nuances from %s: %w", session.ID, err)
	}
	return &bundle, nil
}

// LoadEvidence loads the theme and nuance evidence lists of a session, in that order.
func (s *Source) LoadEvidence(_ context.Context, session domain.Session) ([]domain.Evidence, error) {
	evidence := make([]domain.Evidence, 0)
	for _, suffix := range []string{evidenceSuffix, nuancesEvidenceSuffix} {
		path := artifactPath(session.Path, session.Destination, suffix)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load evidence from %s: %w", session.ID, err)
		}
		items, err := decodeEvidence(data)
		if err != nil {
			return nil, fmt.Errorf("decode evidence %s: %w", filepath.Base(path), err)
		}
		evidence = append(evidence, items...)
	}
	return evidence, nil
}

// decodeEvidence accepts a bare list or an object with an "evidence" list.
func decodeEvidence(data []byte) ([]domain.Evidence, error) {
	var list []domain.Evidence
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Evidence []domain.Evidence `json:"evidence"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Evidence, nil
}

// LoadImages returns the season → path mapping of a session.
func (s *Source) LoadImages(_ context.Context, session domain.Session) (map[string]string, error) {
	images := make(map[string]string)
	dir := imageDir(session.Path, session.Destination)
	if dir == "" {
		return images, nil
	}
	for _, season := range seasons {
		if path := findImage(dir, season); path != "" {
			images[season] = path
		}
	}
	if path := findImage(dir, collageName); path != "" {
		images[collageKey] = path
	}
	return images, nil
}

// SaveThemes writes record as the theme artifact of the named session.
func (s *Source) SaveThemes(_ context.Context, sessionID string, record *domain.ThemeRecord) (domain.Session, error) {
	if sessionID == "" || filepath.Base(sessionID) != sessionID || sessionID == "." || sessionID == ".." {
		return domain.Session{}, fmt.Errorf("%w: session id %q", domain.ErrInvalidInput, sessionID)
	}
	if record == nil || strings.TrimSpace(record.Destination) == "" {
		return domain.Session{}, fmt.Errorf("%w: theme record without destination", domain.ErrInvalidInput)
	}

	slug := domain.Slug(record.Destination)
	sessionPath := filepath.Join(s.root, sessionID)
	if err := os.MkdirAll(filepath.Join(sessionPath, jsonDir), 0755); err != nil {
		return domain.Session{}, fmt.Errorf("create session directory: %w", err)
	}

	path := artifactPath(sessionPath, slug, themesSuffix)
	if err := fsutil.WriteJSONAtomic(path, record); err != nil {
		return domain.Session{}, fmt.Errorf("write themes: %w", err)
	}
	logger.Info("Saved %d themes for %s to %s", len(record.Affinities), record.Destination, sessionID)

	session, ok := s.inspect(sessionPath, slug)
	if !ok {
		return domain.Session{}, fmt.Errorf("inspect session %s: %w", sessionID, domain.ErrNotFound)
	}
	return session, nil
}

// sessionDirs lists session directories. A missing root yields none.
func (s *Source) sessionDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read outputs directory: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), sessionPrefix) {
			dirs = append(dirs, filepath.Join(s.root, e.Name()))
		}
	}
	return dirs, nil
}

// inspect reports which artifacts dir holds for slug.
func (s *Source) inspect(dir, slug string) (domain.Session, bool) {
	info, err := os.Stat(dir)
	if err != nil {
		return domain.Session{}, false
	}

	session := domain.Session{
		ID:            filepath.Base(dir),
		Path:          dir,
		Destination:   slug,
		CreatedAt:     info.ModTime(),
		QualityScores: make(map[domain.DataType]float64),
	}

	if path := artifactPath(dir, slug, themesSuffix); fsutil.Exists(path) {
		session.DataTypes = append(session.DataTypes, domain.DataTypeThemes)
		session.QualityScores[domain.DataTypeThemes] = extractQuality(path)
	}
	if path := artifactPath(dir, slug, nuancesSuffix); fsutil.Exists(path) {
		session.DataTypes = append(session.DataTypes, domain.DataTypeNuances)
		session.QualityScores[domain.DataTypeNuances] = extractQuality(path)
	}
	if hasImages(imageDir(dir, slug)) {
		session.DataTypes = append(session.DataTypes, domain.DataTypeImages)
	}

	return session, len(session.DataTypes) > 0
}

// extractQuality reads the embedded quality score of an artifact.
// The top-level score wins; unreadable files score 0.
func extractQuality(path string) float64 {
	var scored struct {
		QualityScore       float64 `json:"quality_score"`
		ProcessingMetadata struct {
			QualityScore float64 `json:"quality_score"`
		} `json:"processing_metadata"`
	}
	if err := fsutil.ReadJSON(path, &scored); err != nil {
		logger.Warn("Failed to extract quality score from %s: %v", path, err)
		return 0
	}
	if scored.QualityScore != 0 {
		return scored.QualityScore
	}
	return scored.ProcessingMetadata.QualityScore
}

func artifactPath(sessionPath, slug, suffix string) string {
	return filepath.Join(sessionPath, jsonDir, domain.Slug(slug)+suffix)
}

func readArtifact(path string, v any) error {
	err := fsutil.ReadJSON(path, v)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ErrNotFound
	}
	return err
}

// imageDir returns the image directory of slug in a session, or "" if absent.
func imageDir(sessionPath, slug string) string {
	slug = domain.Slug(slug)
	for _, name := range []string{slug, strings.ReplaceAll(slug, "__", "_")} {
		dir := filepath.Join(sessionPath, imagesDir, name)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

func hasImages(dir string) bool {
	if dir == "" {
		return false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && isImage(e.Name()) {
			return true
		}
	}
	return false
}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range imageExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func findImage(dir, base string) string {
	for _, ext := range imageExtensions {
		path := filepath.Join(dir, base+ext)
		if fsutil.Exists(path) {
			return path
		}
	}
	return ""
}
