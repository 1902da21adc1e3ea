package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for affinity resources.
	uriScheme = "affinity://"

	mimeJSON = "application/json"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for cache statistics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "cache/stats",
		Name:        "cache-stats",
		Description: "Consolidated, version and export cache statistics",
		MIMEType:    mimeJSON,
	}, s.handleCacheStatsResource)

	// Template for consolidated destination records.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "destinations/{destination}/consolidated",
		Name:        "consolidated-destination",
		Description: "Consolidated record of a destination across all sessions",
		MIMEType:    mimeJSON,
	}, s.handleConsolidatedResource)

	// Template for reviews.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "reviews/{reviewId}",
		Name:        "review",
		Description: "A quality review with its feedback and final decision",
		MIMEType:    mimeJSON,
	}, s.handleReviewResource)
}

// handleCacheStatsResource returns cache statistics.
func (s *Server) handleCacheStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Cache == nil {
		return jsonResult(req.Params.URI, struct{}{})
	}

	stats, err := s.ports.Cache.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cache statistics: %w", err)
	}
	return jsonResult(req.Params.URI, stats)
}

// handleConsolidatedResource returns the consolidated record of a destination.
func (s *Server) handleConsolidatedResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract destination from URI: affinity://destinations/{destination}/consolidated
	destination := extractDestination(req.Params.URI)
	if destination == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, _, _, err := s.consolidated(ctx, destination, false)
	if errors.Is(err, domain.ErrNoSessionData) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("consolidating %s: %w", destination, err)
	}
	return jsonResult(req.Params.URI, data)
}

// handleReviewResource returns a review.
func (s *Server) handleReviewResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Reviews == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract reviewId from URI: affinity://reviews/{reviewId}
	reviewID := extractReviewID(req.Params.URI)
	if reviewID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	review, err := s.ports.Reviews.GetReview(ctx, reviewID)
	if errors.Is(err, domain.ErrReviewNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting review: %w", err)
	}
	return jsonResult(req.Params.URI, review)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		}},
	}, nil
}

// extractDestination extracts the destination from a URI like
// affinity://destinations/{destination}/consolidated. The segment may be
// percent-encoded.
func extractDestination(uri string) string {
	const prefix = uriScheme + "destinations/"
	const suffix = "/consolidated"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	segment := strings.TrimSuffix(uri, suffix)
	destination, err := url.PathUnescape(segment)
	if err != nil || strings.Contains(destination, "/") {
		return ""
	}
	return destination
}

// extractReviewID extracts the review ID from a URI like affinity://reviews/{reviewId}.
func extractReviewID(uri string) string {
	const prefix = uriScheme + "reviews/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
