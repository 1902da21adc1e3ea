package services

import "github.com/custodia-labs/affinity-cli/internal/core/domain"

// diffData computes independent change sets for every data type.
// It only reads its arguments.
func diffData(old, updated *domain.ConsolidatedData) domain.DataChanges {
	changes := domain.DataChanges{
		Themes:   diffThemes(old.Themes, updated.Themes),
		Nuances:  make(map[domain.NuanceCategory]domain.NuanceChanges, len(domain.AllNuanceCategories())),
		Images:   diffImages(old.Images, updated.Images),
		Evidence: diffEvidence(old.Evidence, updated.Evidence),
	}
	for _, c := range domain.AllNuanceCategories() {
		changes.Nuances[c] = diffNuances(old.Nuances.Category(c), updated.Nuances.Category(c))
	}
	return changes
}

func diffThemes(old, updated *domain.ThemeRecord) domain.ThemeChanges {
	var oldList, newList []domain.Affinity
	if old != nil {
		oldList = old.Affinities
	}
	if updated != nil {
		newList = updated.Affinities
	}

	oldByName := make(map[string]domain.Affinity, len(oldList))
	for _, a := range oldList {
		oldByName[a.Theme] = a
	}
	newByName := make(map[string]domain.Affinity, len(newList))
	for _, a := range newList {
		newByName[a.Theme] = a
	}

	out := domain.ThemeChanges{
		Added:    []domain.Affinity{},
		Removed:  []domain.Affinity{},
		Modified: []domain.ThemeDelta{},
	}
	for _, a := range newList {
		if _, ok := oldByName[a.Theme]; !ok {
			out.Added = append(out.Added, a)
		}
	}
	for _, a := range oldList {
		n, ok := newByName[a.Theme]
		if !ok {
			out.Removed = append(out.Removed, a)
			continue
		}
		if !sameJSON(a, n) {
			out.Modified = append(out.Modified, domain.ThemeDelta{Theme: a.Theme, Old: a, New: n})
		}
	}
	return out
}

func diffNuances(old, updated []domain.Nuance) domain.NuanceChanges {
	oldByPhrase := make(map[string]domain.Nuance, len(old))
	for _, n := range old {
		oldByPhrase[n.Phrase] = n
	}
	newByPhrase := make(map[string]domain.Nuance, len(updated))
	for _, n := range updated {
		newByPhrase[n.Phrase] = n
	}

	out := domain.NuanceChanges{
		Added:    []domain.Nuance{},
		Removed:  []domain.Nuance{},
		Modified: []domain.NuanceDelta{},
	}
	for _, n := range updated {
		if _, ok := oldByPhrase[n.Phrase]; !ok {
			out.Added = append(out.Added, n)
		}
	}
	for _, n := range old {
		u, ok := newByPhrase[n.Phrase]
		if !ok {
			out.Removed = append(out.Removed, n)
			continue
		}
		if !sameJSON(n, u) {
			out.Modified = append(out.Modified, domain.NuanceDelta{Phrase: n.Phrase, Old: n, New: u})
		}
	}
	return out
}

func diffImages(old, updated map[string]string) domain.ImageChanges {
	out := domain.ImageChanges{
		Added:   map[string]string{},
		Removed: map[string]string{},
		Changed: map[string]domain.ImageDelta{},
	}
	for season, path := range updated {
		prev, ok := old[season]
		switch {
		case !ok:
			out.Added[season] = path
		case prev != path:
			out.Changed[season] = domain.ImageDelta{Old: prev, New: path}
		}
	}
	for season, path := range old {
		if _, ok := updated[season]; !ok {
			out.Removed[season] = path
		}
	}
	return out
}

func diffEvidence(old, updated []domain.Evidence) domain.EvidenceChanges {
	oldByURL := make(map[string]domain.Evidence, len(old))
	for _, e := range old {
		oldByURL[e.URL] = e
	}
	newByURL := make(map[string]domain.Evidence, len(updated))
	for _, e := range updated {
		newByURL[e.URL] = e
	}

	out := domain.EvidenceChanges{
		Added:    []domain.Evidence{},
		Removed:  []domain.Evidence{},
		Modified: []domain.EvidenceDelta{},
	}
	for _, e := range updated {
		if _, ok := oldByURL[e.URL]; !ok {
			out.Added = append(out.Added, e)
		}
	}
	for _, e := range old {
		n, ok := newByURL[e.URL]
		if !ok {
			out.Removed = append(out.Removed, e)
			continue
		}
		if !sameJSON(e, n) {
			out.Modified = append(out.Modified, domain.EvidenceDelta{URL: e.URL, Old: e, New: n})
		}
	}
	return out
}
