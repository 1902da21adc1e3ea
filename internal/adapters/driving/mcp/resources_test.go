package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractDestination(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"slug", "affinity://destinations/kyoto__japan/consolidated", "kyoto__japan"},
		{"percent-encoded name", "affinity://destinations/Kyoto%2C%20Japan/consolidated", "Kyoto, Japan"},
		{"invalid prefix", "file://destinations/kyoto__japan/consolidated", ""},
		{"missing suffix", "affinity://destinations/kyoto__japan", ""},
		{"encoded slash", "affinity://destinations/a%2Fb/consolidated", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractDestination(tt.uri))
		})
	}
}

func TestExtractReviewID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid review URI", "affinity://reviews/review-123", "review-123"},
		{"invalid prefix", "file://reviews/review-123", ""},
		{"nested path", "affinity://reviews/a/b", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractReviewID(tt.uri))
		})
	}
}

func TestServer_handleCacheStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil cache returns empty object", func(t *testing.T) {
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{}})

		result, err := server.handleCacheStatsResource(ctx, makeReadResourceRequest("affinity://cache/stats"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "{}", result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("returns statistics", func(t *testing.T) {
		cache := newMockCache()
		cache.stats = &domain.CacheStatistics{CachedDestinations: 4, VersioningEnabled: true}
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{}, Cache: cache})

		result, err := server.handleCacheStatsResource(ctx, makeReadResourceRequest("affinity://cache/stats"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"cached_destinations": 4`)
		assert.Contains(t, result.Contents[0].Text, `"versioning_enabled": true`)
	})
}

func TestServer_handleConsolidatedResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns consolidated record", func(t *testing.T) {
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{data: kyotoData()}})

		uri := "affinity://destinations/kyoto__japan/consolidated"
		result, err := server.handleConsolidatedResource(ctx, makeReadResourceRequest(uri))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, uri, result.Contents[0].URI)
		assert.Contains(t, result.Contents[0].Text, "Temples")
		assert.Contains(t, result.Contents[0].Text, "consolidation_strategy")
	})

	t.Run("no session data is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{err: domain.ErrNoSessionData}})

		_, err := server.handleConsolidatedResource(ctx, makeReadResourceRequest("affinity://destinations/atlantis/consolidated"))

		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		consolidator := &mockConsolidator{data: kyotoData()}
		server := newTestServer(t, &Ports{Consolidator: consolidator})

		_, err := server.handleConsolidatedResource(ctx, makeReadResourceRequest("affinity://invalid/uri"))

		require.Error(t, err)
		assert.Equal(t, 0, consolidator.calls)
	})
}

func TestServer_handleReviewResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil review service returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{}})

		_, err := server.handleReviewResource(ctx, makeReadResourceRequest("affinity://reviews/review-1"))

		require.Error(t, err)
	})

	t.Run("returns review", func(t *testing.T) {
		reviews := &mockReviews{reviews: map[string]*domain.Review{
			"review-1": {ID: "review-1", Destination: "Kyoto, Japan", Status: domain.ReviewPending},
		}}
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{}, Reviews: reviews})

		result, err := server.handleReviewResource(ctx, makeReadResourceRequest("affinity://reviews/review-1"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"review_id": "review-1"`)
		assert.Contains(t, result.Contents[0].Text, `"status": "pending"`)
	})

	t.Run("unknown review returns not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Consolidator: &mockConsolidator{}, Reviews: &mockReviews{}})

		_, err := server.handleReviewResource(ctx, makeReadResourceRequest("affinity://reviews/missing"))

		require.Error(t, err)
	})
}
