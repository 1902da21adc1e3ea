package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Messages(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{ErrNotFound, "not found"},
		{ErrInvalidInput, "invalid input"},
		{ErrNoSessionData, "no session data found"},
		{ErrUnknownStrategy, "unknown strategy"},
		{ErrExportValidation, "export validation failed"},
		{ErrExportIntegrity, "export integrity check failed"},
		{ErrUnsupportedFormat, "unsupported export format"},
		{ErrReviewNotFound, "review not found"},
		{ErrReviewerNotAssigned, "reviewer not assigned"},
		{ErrReviewCompleted, "review already completed"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrNoSessionData, ErrUnknownStrategy,
		ErrExportValidation, ErrExportIntegrity, ErrUnsupportedFormat,
		ErrReviewNotFound, ErrReviewerNotAssigned, ErrReviewCompleted,
	}

	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("export Kyoto, Japan: %w", ErrExportValidation)

	assert.ErrorIs(t, wrapped, ErrExportValidation)
	assert.NotErrorIs(t, wrapped, ErrExportIntegrity)
	assert.Contains(t, wrapped.Error(), "export validation failed")
}
