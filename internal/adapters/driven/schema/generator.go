// Package schema reflects JSON schema documents from the domain artifact types.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.SchemaGenerator = (*Generator)(nil)

// Schema file names written into an export's schemas/ directory.
const (
	ThemeSchemaFile    = "theme_schema.json"
	NuanceSchemaFile   = "nuance_schema.json"
	EvidenceSchemaFile = "evidence_schema.json"
)

// Generator reflects schemas with invopop/jsonschema.
type Generator struct {
	version string
}

// NewGenerator creates a generator that stamps version into every schema.
func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

// Schemas returns file name → indented schema document.
func (g *Generator) Schemas() (map[string][]byte, error) {
	reflector := jsonschema.Reflector{
		// Artifacts carry enrichment attributes that are not modelled.
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}

	docs := map[string]struct {
		value       any
		title       string
		description string
	}{
		ThemeSchemaFile: {
			value:       &domain.ThemeRecord{},
			title:       "Destination theme record",
			description: "Affinities generated for one destination.",
		},
		NuanceSchemaFile: {
			value:       &domain.NuanceBundle{},
			title:       "Destination nuance bundle",
			description: "Destination, hotel and vacation rental nuance phrases.",
		},
		EvidenceSchemaFile: {
			value:       &domain.Evidence{},
			title:       "Evidence entry",
			description: "A source supporting generated content, identified by URL.",
		},
	}

	out := make(map[string][]byte, len(docs))
	for name, doc := range docs {
		s := reflector.Reflect(doc.value)
		s.Title = doc.title
		s.Description = fmt.Sprintf("%s Schema version %s.", doc.description, g.version)

		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
		out[name] = b
	}
	return out, nil
}
