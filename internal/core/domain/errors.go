package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSessionData indicates no processing session holds data for a destination.
	ErrNoSessionData = errors.New("no session data found")

	// ErrUnknownStrategy indicates a merge or consolidation strategy is not recognised.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// Export Errors.

	// ErrExportValidation indicates consolidated data failed the export quality gates.
	// No files are written when this is returned.
	ErrExportValidation = errors.New("export validation failed")

	// ErrExportIntegrity indicates an export was written but is unusable.
	// Callers decide whether to discard the export directory.
	ErrExportIntegrity = errors.New("export integrity check failed")

	// ErrUnsupportedFormat indicates an unknown export format.
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// Review Errors.

	// ErrReviewNotFound indicates the review does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrReviewerNotAssigned indicates feedback came from a reviewer outside the assignment.
	ErrReviewerNotAssigned = errors.New("reviewer not assigned")

	// ErrReviewCompleted indicates the review already reached a terminal status.
	ErrReviewCompleted = errors.New("review already completed")
)
