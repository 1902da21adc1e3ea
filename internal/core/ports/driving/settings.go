package driving

import "github.com/custodia-labs/affinity-cli/internal/core/domain"

// SettingsService manages pipeline settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.Settings, error)

	// Set parses and persists a single setting by its dotted key.
	// Returns domain.ErrInvalidInput for unknown keys or unparsable values.
	Set(key, value string) error

	// Keys returns every recognised setting key in display order.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings
}
