package domain

// NuanceCategory names one of the phrase lists in a nuance artifact.
type NuanceCategory string

// Nuance categories.
const (
	NuanceDestination    NuanceCategory = "destination_nuances"
	NuanceHotel          NuanceCategory = "hotel_expectations"
	NuanceVacationRental NuanceCategory = "vacation_rental_expectations"
)

// AllNuanceCategories returns every category in artifact order.
func AllNuanceCategories() []NuanceCategory {
	return []NuanceCategory{NuanceDestination, NuanceHotel, NuanceVacationRental}
}

// Nuance is one categorised phrase.
type Nuance struct {
	Phrase          string  `json:"phrase"`
	QualityScore    float64 `json:"quality_score,omitempty"`
	SearchValidated bool    `json:"search_validated,omitempty"`
	Extra           Extra   `json:"-"`
}

// MarshalJSON encodes the nuance including unknown members.
func (n Nuance) MarshalJSON() ([]byte, error) {
	type plain Nuance
	return encodeWithExtra(plain(n), n.Extra)
}

// UnmarshalJSON decodes the nuance, keeping unknown members in Extra.
func (n *Nuance) UnmarshalJSON(data []byte) error {
	type plain Nuance
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*n = Nuance(p)
	return nil
}

// NuanceBundle is the nuance artifact for one destination
// (outputs/session_*/json/<slug>_nuances.json).
type NuanceBundle struct {
	Destination                string             `json:"destination,omitempty"`
	QualityScore               float64            `json:"quality_score,omitempty"`
	DestinationNuances         []Nuance           `json:"destination_nuances"`
	HotelExpectations          []Nuance           `json:"hotel_expectations"`
	VacationRentalExpectations []Nuance           `json:"vacation_rental_expectations"`
	ProcessingMetadata         ProcessingMetadata `json:"processing_metadata"`
	Extra                      Extra              `json:"-"`
}

// MarshalJSON encodes the bundle including unknown members.
func (b NuanceBundle) MarshalJSON() ([]byte, error) {
	type plain NuanceBundle
	for _, c := range AllNuanceCategories() {
		if b.Category(c) == nil {
			b.SetCategory(c, []Nuance{})
		}
	}
	return encodeWithExtra(plain(b), b.Extra)
}

// UnmarshalJSON decodes the bundle, keeping unknown members in Extra.
func (b *NuanceBundle) UnmarshalJSON(data []byte) error {
	type plain NuanceBundle
	var p plain
	extra, err := decodeWithExtra(data, &p)
	if err != nil {
		return err
	}
	p.Extra = extra
	*b = NuanceBundle(p)
	return nil
}

// Category returns the phrases for c.
func (b *NuanceBundle) Category(c NuanceCategory) []Nuance {
	if b == nil {
		return nil
	}
	switch c {
	case NuanceDestination:
		return b.DestinationNuances
	case NuanceHotel:
		return b.HotelExpectations
	case NuanceVacationRental:
		return b.VacationRentalExpectations
	default:
		return nil
	}
}

// SetCategory replaces the phrases for c.
func (b *NuanceBundle) SetCategory(c NuanceCategory, items []Nuance) {
	switch c {
	case NuanceDestination:
		b.DestinationNuances = items
	case NuanceHotel:
		b.HotelExpectations = items
	case NuanceVacationRental:
		b.VacationRentalExpectations = items
	}
}

// IsEmpty reports whether every category is empty.
func (b *NuanceBundle) IsEmpty() bool {
	if b == nil {
		return true
	}
	for _, c := range AllNuanceCategories() {
		if len(b.Category(c)) > 0 {
			return false
		}
	}
	return true
}

// Count returns the number of phrases across all categories.
func (b *NuanceBundle) Count() int {
	n := 0
	for _, c := range AllNuanceCategories() {
		n += len(b.Category(c))
	}
	return n
}

// Quality returns the embedded quality score, preferring the top-level value.
func (b *NuanceBundle) Quality() float64 {
	if b == nil {
		return 0
	}
	if b.QualityScore != 0 {
		return b.QualityScore
	}
	return b.ProcessingMetadata.QualityScore
}

// Clone returns a deep copy of the bundle.
func (b *NuanceBundle) Clone() *NuanceBundle {
	if b == nil {
		return nil
	}
	out := *b
	for _, c := range AllNuanceCategories() {
		src := b.Category(c)
		if src == nil {
			continue
		}
		dst := make([]Nuance, len(src))
		for i := range src {
			dst[i] = src[i]
			dst[i].Extra = cloneExtra(src[i].Extra)
		}
		out.SetCategory(c, dst)
	}
	out.ProcessingMetadata.Extra = cloneExtra(b.ProcessingMetadata.Extra)
	out.Extra = cloneExtra(b.Extra)
	return &out
}
