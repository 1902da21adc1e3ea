package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure ThemeLifecycleService implements the interface.
var _ driving.ThemeLifecycle = (*ThemeLifecycleService)(nil)

// ThemeLifecycleService decides when theme data is regenerated and merges
// new themes into existing records.
type ThemeLifecycleService struct {
	finder     sessionFinder
	source     driven.SessionSource
	registry   driven.SessionRegistry
	similarity driven.ThemeSimilarity
	settings   domain.ThemeSettings
	opts       options
}

// NewThemeLifecycleService creates a new theme lifecycle service.
// The registry is optional (can be nil). A nil similarity uses HeuristicSimilarity.
func NewThemeLifecycleService(
	source driven.SessionSource,
	registry driven.SessionRegistry,
	similarity driven.ThemeSimilarity,
	settings domain.Settings,
	opts ...Option,
) *ThemeLifecycleService {
	if similarity == nil {
		similarity = HeuristicSimilarity{}
	}
	return &ThemeLifecycleService{
		finder: sessionFinder{
			source:      source,
			registry:    registry,
			useRegistry: settings.Sessions.UseRegistry,
		},
		source:     source,
		registry:   registry,
		similarity: similarity,
		settings:   settings.Themes,
		opts:       newOptions(opts),
	}
}

// ShouldUpdateThemes reports whether full theme processing is required.
func (s *ThemeLifecycleService) ShouldUpdateThemes(ctx context.Context, destination string) bool {
	existing, err := s.LatestThemes(ctx, destination)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Error checking existing themes for %s: %v", destination, err)
		}
		logger.Info("No existing themes for %s, full processing needed", destination)
		return true
	}

	if !s.settings.EnableIncrementalUpdates {
		logger.Info("Incremental updates disabled, full processing for %s", destination)
		return true
	}

	threshold := s.settings.IncrementalUpdateThresholdDays
	if s.olderThan(existing.ProcessingMetadata.ProcessingDate, threshold) {
		logger.Info("Themes for %s older than %d days, updating", destination, threshold)
		return true
	}

	quality := existing.Quality()
	if quality < s.settings.MinQualityForPreservation {
		logger.Info("Themes for %s below quality threshold (%.3f < %.2f), updating",
			destination, quality, s.settings.MinQualityForPreservation)
		return true
	}

	logger.Info("Themes for %s are sufficient (quality %.3f), preserving", destination, quality)
	return false
}

// olderThan reports whether processingDate is more than days before now.
// A missing or unparsable date counts as old.
func (s *ThemeLifecycleService) olderThan(processingDate string, days int) bool {
	processedAt, ok := domain.ParseTimestamp(processingDate)
	if !ok {
		return true
	}
	threshold := s.opts.now().Add(-time.Duration(days) * 24 * time.Hour)
	return processedAt.Before(threshold)
}

// LatestThemes returns the theme record of the newest session holding one.
func (s *ThemeLifecycleService) LatestThemes(ctx context.Context, destination string) (*domain.ThemeRecord, error) {
	sessions, err := s.finder.find(ctx, domain.Slug(destination))
	if err != nil {
		return nil, err
	}

	for _, session := range sessions {
		if !session.Has(domain.DataTypeThemes) {
			continue
		}
		record, err := s.source.LoadThemes(ctx, session)
		if err != nil {
			logger.Warn("Skipping themes in %s for %s: %v", session.ID, destination, err)
			continue
		}
		logger.Debug("Found themes for %s in %s (%s)",
			destination, session.ID, record.ProcessingMetadata.ProcessingDate)
		return record, nil
	}
	return nil, fmt.Errorf("themes for %s: %w", destination, domain.ErrNotFound)
}

// MergeThemeData merges newThemes into existing using the configured strategy.
func (s *ThemeLifecycleService) MergeThemeData(
	_ context.Context, destination string, newThemes []domain.Affinity, existing *domain.ThemeRecord,
) (*domain.ThemeRecord, error) {
	unlock := s.opts.locks.Lock(destination)
	defer unlock()

	strategy := s.settings.MergeStrategy
	if !strategy.IsValid() {
		logger.Warn("Unknown merge strategy %q, using %s", strategy, domain.MergeQualityBased)
		strategy = domain.MergeQualityBased
	}
	logger.Info("Merging themes for %s using strategy: %s", destination, strategy)

	if existing == nil {
		existing = domain.NewThemeRecord(destination, nil, string(domain.MergeReplace), s.timestamp())
	}

	switch strategy {
	case domain.MergeReplace:
		return s.newRecord(destination, newThemes), nil
	case domain.MergeAdditive:
		return s.mergeAdditive(destination, newThemes, existing), nil
	default:
		return s.mergeByQuality(destination, newThemes, existing), nil
	}
}

func (s *ThemeLifecycleService) newRecord(destination string, themes []domain.Affinity) *domain.ThemeRecord {
	return domain.NewThemeRecord(destination, themes, string(domain.MergeReplace), s.timestamp())
}

func (s *ThemeLifecycleService) timestamp() string {
	return domain.FormatTimestamp(s.opts.now())
}

// mergeByQuality keeps the better of matched themes and appends novel ones.
// Existing themes are only ever displaced by a clearly better match, never dropped.
func (s *ThemeLifecycleService) mergeByQuality(
	destination string, newThemes []domain.Affinity, existing *domain.ThemeRecord,
) *domain.ThemeRecord {
	current := existing.Affinities
	threshold := s.settings.QualityImprovementThreshold

	newMean := domain.MeanConfidence(newThemes)
	existingMean := domain.MeanConfidence(current)
	if newMean > existingMean+threshold {
		logger.Info("New themes significantly better for %s: %.3f -> %.3f", destination, existingMean, newMean)
		return s.newRecord(destination, newThemes)
	}
	logger.Info("Merging themes for %s: preserving existing quality %.3f, adding unique from new %.3f",
		destination, existingMean, newMean)

	merged := make([]domain.Affinity, 0, len(current)+len(newThemes))
	// slot maps an existing theme index to its position in merged.
	slot := make(map[int]int, len(current))

	for _, candidate := range newThemes {
		idx := s.bestMatch(candidate, current)
		if idx < 0 {
			if !containsTheme(merged, candidate) {
				merged = append(merged, candidate.Clone())
				logger.Debug("Added new unique theme: %q", candidate.Theme)
			}
			continue
		}

		pos, placed := slot[idx]
		occupant := current[idx]
		if placed {
			occupant = merged[pos]
		}

		chosen := occupant
		if candidate.Confidence > occupant.Confidence+threshold {
			chosen = candidate
			logger.Debug("Replaced theme %q: %.3f -> %.3f", occupant.Theme, occupant.Confidence, candidate.Confidence)
		} else {
			logger.Debug("Kept existing theme %q: %.3f", occupant.Theme, occupant.Confidence)
		}

		if placed {
			merged[pos] = chosen.Clone()
		} else {
			slot[idx] = len(merged)
			merged = append(merged, chosen.Clone())
		}
	}

	// Unmatched existing themes are kept as they are, duplicates included.
	for i := range current {
		if _, placed := slot[i]; placed {
			continue
		}
		merged = append(merged, current[i].Clone())
		logger.Debug("Preserved unmatched existing theme: %q", current[i].Theme)
	}

	result := existing.Clone()
	result.Affinities = merged
	result.ProcessingMetadata.LastMerge = s.timestamp()
	result.ProcessingMetadata.MergeStrategy = string(domain.MergeQualityBased)
	result.ProcessingMetadata.MergedThemeCount = len(merged)
	rescore(result)
	return result
}

// rescore recomputes the theme count and quality of a merged record.
func rescore(r *domain.ThemeRecord) {
	q := domain.MeanConfidence(r.Affinities)
	r.QualityScore = q
	r.ProcessingMetadata.QualityScore = q
	r.ProcessingMetadata.ThemeCount = len(r.Affinities)
}

// bestMatch returns the index of the most similar existing theme whose score
// clears the acceptance threshold, or -1. Earlier themes win ties.
func (s *ThemeLifecycleService) bestMatch(candidate domain.Affinity, existing []domain.Affinity) int {
	best, bestScore := -1, 0.0
	for i := range existing {
		score := s.similarity.Score(candidate, existing[i])
		if score > similarityAccept && score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// mergeAdditive keeps every existing theme and appends new themes whose
// names are not similar to any existing one.
func (s *ThemeLifecycleService) mergeAdditive(
	destination string, newThemes []domain.Affinity, existing *domain.ThemeRecord,
) *domain.ThemeRecord {
	result := existing.Clone()
	added := 0
	for _, candidate := range newThemes {
		if s.similarToAny(candidate, existing.Affinities) {
			continue
		}
		result.Affinities = append(result.Affinities, candidate.Clone())
		added++
		logger.Debug("Added unique theme: %q", candidate.Theme)
	}

	result.ProcessingMetadata.LastMerge = s.timestamp()
	result.ProcessingMetadata.MergeStrategy = string(domain.MergeAdditive)
	result.ProcessingMetadata.ThemesAdded = added
	rescore(result)

	logger.Info("Added %d unique themes to %d existing themes for %s", added, len(existing.Affinities), destination)
	return result
}

func (s *ThemeLifecycleService) similarToAny(candidate domain.Affinity, existing []domain.Affinity) bool {
	key := candidate.Key()
	for i := range existing {
		other := existing[i].Key()
		if key == other || WordOverlap(key, other) > s.settings.SimilarityThreshold {
			return true
		}
	}
	return false
}

func containsTheme(list []domain.Affinity, a domain.Affinity) bool {
	key := a.Key()
	for i := range list {
		if list[i].Key() == key {
			return true
		}
	}
	return false
}

// SaveThemes persists a record into a session and indexes the session.
func (s *ThemeLifecycleService) SaveThemes(
	ctx context.Context, sessionID string, record *domain.ThemeRecord,
) (domain.Session, error) {
	if record == nil {
		return domain.Session{}, fmt.Errorf("save themes: %w", domain.ErrInvalidInput)
	}

	unlock := s.opts.locks.Lock(record.Destination)
	defer unlock()

	session, err := s.source.SaveThemes(ctx, sessionID, record)
	if err != nil {
		return domain.Session{}, fmt.Errorf("save themes: %w", err)
	}

	if s.registry != nil {
		if err := s.registry.Record(ctx, session); err != nil {
			logger.Warn("Failed to index %s for %s: %v", session.ID, record.Destination, err)
		}
	}
	return session, nil
}

// ThemeStatistics reports on the latest themes of a destination.
func (s *ThemeLifecycleService) ThemeStatistics(ctx context.Context, destination string) domain.ThemeStatistics {
	record, err := s.LatestThemes(ctx, destination)
	if err != nil {
		return domain.ThemeStatistics{Categories: []string{}}
	}

	strategy := record.ProcessingMetadata.ProcessingStrategy
	if strategy == "" {
		strategy = "unknown"
	}
	categories := record.Categories()
	if categories == nil {
		categories = []string{}
	}

	return domain.ThemeStatistics{
		HasExistingData:    true,
		ThemeCount:         len(record.Affinities),
		QualityScore:       domain.MeanConfidence(record.Affinities),
		LastUpdated:        record.ProcessingMetadata.ProcessingDate,
		Categories:         categories,
		ProcessingStrategy: strategy,
	}
}
