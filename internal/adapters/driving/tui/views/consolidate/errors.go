package consolidate

import "errors"

var (
	// ErrNoConsolidator indicates that no consolidation service was provided.
	ErrNoConsolidator = errors.New("consolidation service is required")

	// ErrNoReviewFlow indicates that no review service was provided.
	ErrNoReviewFlow = errors.New("review service is required")
)
