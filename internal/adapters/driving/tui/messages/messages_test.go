package messages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

func TestViewType_String(t *testing.T) {
	tests := []struct {
		view     ViewType
		expected string
	}{
		{ViewMenu, "menu"},
		{ViewConsolidate, "consolidate"},
		{ViewReviews, "reviews"},
		{ViewReviewDetail, "review_detail"},
		{ViewSettings, "settings"},
		{ViewHelp, "help"},
		{ViewType(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.view.String())
		})
	}
}

func TestViewType_MenuIsZeroValue(t *testing.T) {
	var msg ViewChanged
	assert.Equal(t, ViewMenu, msg.View)
}

func TestErrorOccurred_Unwraps(t *testing.T) {
	msg := ErrorOccurred{Err: domain.ErrReviewNotFound}

	require.Error(t, msg.Err)
	assert.True(t, errors.Is(msg.Err, domain.ErrReviewNotFound))
}

func TestConsolidationCompleted_CacheErrorKeepsData(t *testing.T) {
	data := &domain.ConsolidatedData{Destination: "Kyoto, Japan"}
	msg := ConsolidationCompleted{
		Destination: "Kyoto, Japan",
		Data:        data,
		CacheErr:    errors.New("disk full"),
	}

	assert.NoError(t, msg.Err)
	assert.Error(t, msg.CacheErr)
	assert.Same(t, data, msg.Data)
	assert.False(t, msg.Cached)
}

func TestSettingsSaved_CarriesKey(t *testing.T) {
	msg := SettingsSaved{Key: "export_system.default_format"}

	assert.Equal(t, "export_system.default_format", msg.Key)
	assert.NoError(t, msg.Err)
}
