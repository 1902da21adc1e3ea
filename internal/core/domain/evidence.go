package domain

import "strings"

// Evidence is one supporting source for generated content.
// Its identity is the source URL.
type Evidence struct {
	URL   string `json:"url"`
	Extra Extra  `json:"-"`
}

// MarshalJSON encodes the evidence including unknown members.
func (e Evidence) MarshalJSON() ([]byte, error) {
	type plain Evidence
	return encodeWithExtra(plain(e), e.Extra)
}

// UnmarshalJSON decodes the evidence, keeping unknown members in Extra.
func (e *Evidence) UnmarshalJSON(data []byte) error {
	type plain Evidence
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*e = Evidence(p)
	return nil
}

// DedupeEvidence keeps the first occurrence of every non-blank URL.
// Entries with blank URLs are dropped.
func DedupeEvidence(items []Evidence) []Evidence {
	seen := make(map[string]bool, len(items))
	out := make([]Evidence, 0, len(items))
	for i := range items {
		url := strings.TrimSpace(items[i].URL)
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		out = append(out, items[i])
	}
	return out
}
