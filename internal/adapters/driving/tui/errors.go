package tui

import "errors"

// ErrMissingConsolidator is returned when the consolidation service is not provided.
var ErrMissingConsolidator = errors.New("tui: consolidation service is required")

// ErrMissingReviewFlow is returned when the review service is not provided.
var ErrMissingReviewFlow = errors.New("tui: review service is required")

// ErrMissingSettingsService is returned when the settings service is not provided.
var ErrMissingSettingsService = errors.New("tui: settings service is required")
