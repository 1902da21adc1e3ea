package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// Ensure ConsolidationService implements the interface.
var _ driving.Consolidator = (*ConsolidationService)(nil)

// sessionArtifacts is everything one session holds for a destination.
// Absent or unreadable artifacts are nil.
type sessionArtifacts struct {
	session  domain.Session
	themes   *domain.ThemeRecord
	nuances  *domain.NuanceBundle
	images   map[string]string
	evidence []domain.Evidence
}

// ConsolidationService reconciles destination data across sessions.
type ConsolidationService struct {
	finder   sessionFinder
	source   driven.SessionSource
	settings domain.SessionSettings
	opts     options
}

// NewConsolidationService creates a new consolidation service.
// The registry is optional (can be nil).
func NewConsolidationService(
	source driven.SessionSource,
	registry driven.SessionRegistry,
	settings domain.Settings,
	opts ...Option,
) *ConsolidationService {
	return &ConsolidationService{
		finder: sessionFinder{
			source:      source,
			registry:    registry,
			useRegistry: settings.Sessions.UseRegistry,
		},
		source:   source,
		settings: settings.Sessions,
		opts:     newOptions(opts),
	}
}

// ConsolidateDestination builds the canonical record for a destination.
func (s *ConsolidationService) ConsolidateDestination(
	ctx context.Context, destination string,
) (*domain.ConsolidatedData, error) {
	unlock := s.opts.locks.Lock(destination)
	defer unlock()

	start := s.opts.now()
	strategy := s.strategy()

	logger.Section("Consolidation")
	logger.Info("Starting consolidation for %s using %s", destination, strategy)
	defer logger.Timed("Consolidation of %s", destination)()

	sessions, err := s.sessions(ctx, destination, true)
	if err != nil {
		s.opts.metrics.ConsolidationFailed(strategy)
		return nil, err
	}
	if len(sessions) == 0 {
		s.opts.metrics.ConsolidationFailed(strategy)
		return nil, fmt.Errorf("%s: %w", destination, domain.ErrNoSessionData)
	}

	loaded, err := s.load(ctx, destination, sessions)
	if err != nil {
		s.opts.metrics.ConsolidationFailed(strategy)
		return nil, err
	}

	data := newConsolidatedData(destination, strategy)
	switch strategy {
	case domain.ConsolidationLatestWins:
		consolidateLatest(data, loaded)
	case domain.ConsolidationAdditive:
		consolidateAdditive(data, loaded)
	default:
		consolidateByQuality(data, loaded)
	}
	consolidateImages(data, loaded)
	data.Evidence = consolidateEvidence(loaded)
	data.Metadata.ConsolidatedAt = s.opts.now()

	s.validate(data)

	s.opts.metrics.ConsolidationCompleted(strategy, len(loaded), s.opts.now().Sub(start))
	logger.Info("Consolidation complete for %s: %d sessions combined", destination, len(data.SourceSessions))
	return data, nil
}

func (s *ConsolidationService) strategy() domain.ConsolidationStrategy {
	strategy := s.settings.ConsolidationStrategy
	if !strategy.IsValid() {
		logger.Warn("Unknown consolidation strategy %q, using %s", strategy, domain.ConsolidationQualityBased)
		return domain.ConsolidationQualityBased
	}
	return strategy
}

// sessions discovers the sessions for destination, newest first, capped at
// the configured maximum.
func (s *ConsolidationService) sessions(ctx context.Context, destination string, record bool) ([]domain.Session, error) {
	slug := domain.Slug(destination)

	var sessions []domain.Session
	var err error
	if record {
		sessions, err = s.finder.find(ctx, slug)
	} else {
		sessions, err = s.finder.peek(ctx, slug)
	}
	if err != nil {
		return nil, err
	}

	if limit := s.settings.MaxSessionsToConsider; limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	logger.Info("Found %d sessions with data for %s", len(sessions), destination)
	return sessions, nil
}

// load reads every artifact of every session. Failures are logged and the
// artifact treated as absent.
func (s *ConsolidationService) load(
	ctx context.Context, destination string, sessions []domain.Session,
) ([]sessionArtifacts, error) {
	loaded := make([]sessionArtifacts, 0, len(sessions))
	for _, session := range sessions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		a := sessionArtifacts{session: session}

		if session.Has(domain.DataTypeThemes) {
			themes, err := s.source.LoadThemes(ctx, session)
			switch {
			case err != nil:
				logger.Warn("Failed to load themes from %s for %s: %v", session.ID, destination, err)
			case themes.IsEmpty():
				logger.Debug("Themes in %s for %s are empty", session.ID, destination)
			default:
				a.themes = themes
			}
		}

		if session.Has(domain.DataTypeNuances) {
			nuances, err := s.source.LoadNuances(ctx, session)
			switch {
			case err != nil:
				logger.Warn("Failed to load nuances from %s for %s: %v", session.ID, destination, err)
			case nuances.IsEmpty():
				logger.Debug("Nuances in %s for %s are empty", session.ID, destination)
			default:
				a.nuances = nuances
			}
		}

		if session.Has(domain.DataTypeImages) {
			images, err := s.source.LoadImages(ctx, session)
			if err != nil {
				logger.Warn("Failed to load images from %s for %s: %v", session.ID, destination, err)
			} else if len(images) > 0 {
				a.images = images
			}
		}

		evidence, err := s.source.LoadEvidence(ctx, session)
		if err != nil {
			logger.Warn("Failed to load evidence from %s for %s: %v", session.ID, destination, err)
		}
		a.evidence = evidence

		loaded = append(loaded, a)
	}
	return loaded, nil
}

func newConsolidatedData(destination string, strategy domain.ConsolidationStrategy) *domain.ConsolidatedData {
	return &domain.ConsolidatedData{
		Destination: destination,
		Images:      map[string]string{},
		Evidence:    []domain.Evidence{},
		Metadata: domain.ConsolidationMetadata{
			Strategy:      strategy,
			QualityScores: map[domain.DataType]float64{},
			DataSources:   map[domain.DataType][]string{},
		},
		SourceSessions: []string{},
	}
}

// consolidateLatest takes each data type from the newest session holding it.
func consolidateLatest(data *domain.ConsolidatedData, loaded []sessionArtifacts) {
	for i := range loaded {
		if loaded[i].themes != nil {
			useThemes(data, loaded[i])
			break
		}
	}
	for i := range loaded {
		if loaded[i].nuances != nil {
			useNuances(data, loaded[i])
			break
		}
	}
}

// consolidateByQuality takes themes and nuances from the session with the
// highest embedded quality. Ties keep the newer session.
func consolidateByQuality(data *domain.ConsolidatedData, loaded []sessionArtifacts) {
	if best := bestByQuality(loaded, domain.DataTypeThemes); best >= 0 {
		useThemes(data, loaded[best])
	}
	if best := bestByQuality(loaded, domain.DataTypeNuances); best >= 0 {
		useNuances(data, loaded[best])
	}
}

func bestByQuality(loaded []sessionArtifacts, t domain.DataType) int {
	best, bestQuality := -1, 0.0
	for i := range loaded {
		present := (t == domain.DataTypeThemes && loaded[i].themes != nil) ||
			(t == domain.DataTypeNuances && loaded[i].nuances != nil)
		if !present {
			continue
		}
		q := loaded[i].session.Quality(t)
		if best < 0 || q > bestQuality {
			best, bestQuality = i, q
		}
	}
	return best
}

func useThemes(data *domain.ConsolidatedData, a sessionArtifacts) {
	data.Themes = a.themes.Clone()
	data.Metadata.QualityScores[domain.DataTypeThemes] = a.session.Quality(domain.DataTypeThemes)
	data.AddSource(domain.DataTypeThemes, a.session.ID)
}

func useNuances(data *domain.ConsolidatedData, a sessionArtifacts) {
	data.Nuances = a.nuances.Clone()
	data.Metadata.QualityScores[domain.DataTypeNuances] = a.session.Quality(domain.DataTypeNuances)
	data.AddSource(domain.DataTypeNuances, a.session.ID)
}

// consolidateAdditive unions every theme and phrase across sessions, keeping
// the newest copy of each name. Only sessions adding at least one entry count
// as sources, and the recorded quality is the mean over those sessions.
func consolidateAdditive(data *domain.ConsolidatedData, loaded []sessionArtifacts) {
	var themes *domain.ThemeRecord
	seenThemes := make(map[string]bool)
	var themeQuality []float64

	var nuances *domain.NuanceBundle
	seenPhrases := make(map[domain.NuanceCategory]map[string]bool)
	var nuanceQuality []float64

	for _, a := range loaded {
		if a.themes != nil {
			if themes == nil {
				themes = a.themes.Clone()
				themes.Affinities = nil
			}
			added := 0
			for _, affinity := range a.themes.Affinities {
				key := affinity.Key()
				if key == "" || seenThemes[key] {
					continue
				}
				seenThemes[key] = true
				themes.Affinities = append(themes.Affinities, affinity.Clone())
				added++
			}
			if added > 0 {
				data.AddSource(domain.DataTypeThemes, a.session.ID)
				themeQuality = append(themeQuality, a.session.Quality(domain.DataTypeThemes))
			}
		}

		if a.nuances != nil {
			if nuances == nil {
				nuances = a.nuances.Clone()
				for _, c := range domain.AllNuanceCategories() {
					nuances.SetCategory(c, nil)
				}
			}
			added := 0
			for _, c := range domain.AllNuanceCategories() {
				if seenPhrases[c] == nil {
					seenPhrases[c] = make(map[string]bool)
				}
				items := nuances.Category(c)
				for _, n := range a.nuances.Category(c) {
					key := strings.ToLower(strings.TrimSpace(n.Phrase))
					if key == "" || seenPhrases[c][key] {
						continue
					}
					seenPhrases[c][key] = true
					items = append(items, n)
					added++
				}
				nuances.SetCategory(c, items)
			}
			if added > 0 {
				data.AddSource(domain.DataTypeNuances, a.session.ID)
				nuanceQuality = append(nuanceQuality, a.session.Quality(domain.DataTypeNuances))
			}
		}
	}

	if !themes.IsEmpty() {
		q := mean(themeQuality)
		themes.QualityScore = q
		themes.ProcessingMetadata.ThemeCount = len(themes.Affinities)
		data.Themes = themes
		data.Metadata.QualityScores[domain.DataTypeThemes] = q
	}
	if !nuances.IsEmpty() {
		q := mean(nuanceQuality)
		nuances.QualityScore = q
		data.Nuances = nuances
		data.Metadata.QualityScores[domain.DataTypeNuances] = q
	}
}

// consolidateImages takes images from the newest session holding any.
// Images carry no quality signal, so every strategy treats them the same.
func consolidateImages(data *domain.ConsolidatedData, loaded []sessionArtifacts) {
	for _, a := range loaded {
		if len(a.images) == 0 {
			continue
		}
		for season, path := range a.images {
			data.Images[season] = path
		}
		data.AddSource(domain.DataTypeImages, a.session.ID)
		return
	}
}

// consolidateEvidence concatenates evidence from every session, newest
// first, and keeps the first occurrence of each URL.
func consolidateEvidence(loaded []sessionArtifacts) []domain.Evidence {
	var all []domain.Evidence
	for _, a := range loaded {
		all = append(all, a.evidence...)
	}
	return domain.DedupeEvidence(all)
}

// validate logs quality and completeness problems. It never fails.
func (s *ConsolidationService) validate(data *domain.ConsolidatedData) {
	minQuality := s.settings.MinQualityForPreservation
	for _, t := range []domain.DataType{domain.DataTypeThemes, domain.DataTypeNuances} {
		q, ok := data.Metadata.QualityScores[t]
		if ok && q > 0 && q < minQuality {
			logger.Warn("Consolidated %s quality for %s (%.3f) below threshold (%.2f)",
				t, data.Destination, q, minQuality)
		}
	}
	if !data.HasThemes() && !data.HasNuances() {
		logger.Warn("Consolidated data for %s has no themes or nuances", data.Destination)
	}
}

// ConsolidationStatistics summarises the sessions available for a destination.
func (s *ConsolidationService) ConsolidationStatistics(
	ctx context.Context, destination string,
) (*domain.ConsolidationStats, error) {
	sessions, err := s.sessions(ctx, destination, false)
	if err != nil {
		return nil, err
	}

	stats := &domain.ConsolidationStats{
		Destination:   destination,
		TotalSessions: len(sessions),
		Availability:  make(map[domain.DataType]int, len(domain.AllDataTypes())),
		QualityRanges: make(map[domain.DataType]domain.QualityRange),
	}
	for _, t := range domain.AllDataTypes() {
		stats.Availability[t] = 0
	}

	for i := range sessions {
		created := sessions[i].CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &created
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			stats.Newest = &created
		}
		for _, t := range sessions[i].DataTypes {
			stats.Availability[t]++
		}
	}

	for _, t := range []domain.DataType{domain.DataTypeThemes, domain.DataTypeNuances} {
		var qualities []float64
		for i := range sessions {
			if sessions[i].Has(t) {
				qualities = append(qualities, sessions[i].Quality(t))
			}
		}
		if len(qualities) == 0 {
			continue
		}
		r := domain.QualityRange{Min: qualities[0], Max: qualities[0], Avg: mean(qualities)}
		for _, q := range qualities[1:] {
			if q < r.Min {
				r.Min = q
			}
			if q > r.Max {
				r.Max = q
			}
		}
		stats.QualityRanges[t] = r
	}

	return stats, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
