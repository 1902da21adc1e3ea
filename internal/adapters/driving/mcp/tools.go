package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// ConsolidateInput is the input schema for the consolidate tool.
type ConsolidateInput struct {
	Destination string `json:"destination" jsonschema:"destination name, e.g. Kyoto, Japan"`
	Refresh     bool   `json:"refresh,omitempty" jsonschema:"ignore the cached record and re-read every session"`
}

// ConsolidateOutput is the output schema for the consolidate tool.
type ConsolidateOutput struct {
	Destination    string                       `json:"destination"`
	Strategy       domain.ConsolidationStrategy `json:"consolidation_strategy"`
	Themes         []ThemeOutput                `json:"themes"`
	NuanceCount    int                          `json:"nuance_count"`
	ImageCount     int                          `json:"image_count"`
	EvidenceCount  int                          `json:"evidence_count"`
	SourceSessions []string                     `json:"source_sessions"`
	QualityScores  map[domain.DataType]float64  `json:"quality_scores"`
	DataVersion    string                       `json:"data_version,omitempty"`
	FromCache      bool                         `json:"from_cache"`
}

// ThemeOutput represents a single consolidated theme.
type ThemeOutput struct {
	Theme      string  `json:"theme"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// StatsInput is the input schema for the destination_stats tool.
type StatsInput struct {
	Destination string `json:"destination" jsonschema:"destination name"`
}

// StatsOutput is the output schema for the destination_stats tool.
type StatsOutput struct {
	Sessions domain.ConsolidationStats `json:"sessions"`
	Themes   *domain.ThemeStatistics   `json:"themes,omitempty"`
}

// ExportInput is the input schema for the export tool.
type ExportInput struct {
	Destination string `json:"destination" jsonschema:"destination name"`
	Format      string `json:"format,omitempty" jsonschema:"structured or json (default from settings)"`
}

// ExportOutput is the output schema for the export tool.
type ExportOutput struct {
	Path          string   `json:"export_path"`
	Format        string   `json:"export_format"`
	FilesCreated  int      `json:"files_created"`
	CopiedImages  []string `json:"copied_images,omitempty"`
	MissingImages []string `json:"missing_images,omitempty"`
}

// SubmitReviewInput is the input schema for the submit_review tool.
type SubmitReviewInput struct {
	Destination  string   `json:"destination" jsonschema:"destination whose consolidated themes are reviewed"`
	Priority     string   `json:"priority,omitempty" jsonschema:"urgent, high, normal or low"`
	QualityScore *float64 `json:"quality_score,omitempty" jsonschema:"quality score in [0,1]; scored from the themes when omitted"`
}

// FeedbackInput is the input schema for the review_feedback tool.
type FeedbackInput struct {
	ReviewID   string             `json:"review_id" jsonschema:"review identifier"`
	ReviewerID string             `json:"reviewer_id" jsonschema:"assigned reviewer identifier"`
	Decision   string             `json:"decision" jsonschema:"approved, rejected or requires_revision"`
	Comments   string             `json:"comments,omitempty" jsonschema:"free-form reviewer comments"`
	Scores     map[string]float64 `json:"category_scores,omitempty" jsonschema:"per-criterion scores in [0,1]"`
}

// QueueInput is the input schema for the review_queue tool.
type QueueInput struct {
	ReviewerID string `json:"reviewer_id,omitempty" jsonschema:"only reviews assigned to this reviewer"`
	Status     string `json:"status,omitempty" jsonschema:"only reviews in this status"`
}

// QueueOutput is the output schema for the review_queue tool.
type QueueOutput struct {
	Reviews []domain.ReviewSummary `json:"reviews"`
	Count   int                    `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "consolidate",
		Description: "Consolidate every session of a destination into one record",
	}, s.handleConsolidate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "destination_stats",
		Description: "Session availability, quality ranges and stored theme statistics for a destination",
	}, s.handleStats)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "export",
		Description: "Export the consolidated record of a destination",
	}, s.handleExport)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_review",
		Description: "Submit the consolidated themes of a destination for quality review",
	}, s.handleSubmitReview)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_feedback",
		Description: "Record a reviewer decision on a pending review",
	}, s.handleFeedback)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "review_queue",
		Description: "List reviews, optionally filtered by reviewer and status",
	}, s.handleQueue)
}

// handleConsolidate handles the consolidate tool invocation.
func (s *Server) handleConsolidate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConsolidateInput,
) (*mcp.CallToolResult, ConsolidateOutput, error) {
	data, version, cached, err := s.consolidated(ctx, input.Destination, input.Refresh)
	if err != nil {
		return nil, ConsolidateOutput{}, err
	}

	output := ConsolidateOutput{
		Destination:    data.Destination,
		Strategy:       data.Metadata.Strategy,
		Themes:         []ThemeOutput{},
		ImageCount:     len(data.Images),
		EvidenceCount:  len(data.Evidence),
		SourceSessions: data.SourceSessions,
		QualityScores:  data.Metadata.QualityScores,
		DataVersion:    version,
		FromCache:      cached,
	}
	if data.HasThemes() {
		for _, a := range data.Themes.Affinities {
			output.Themes = append(output.Themes, ThemeOutput{
				Theme:      a.Theme,
				Category:   a.Category,
				Confidence: a.Confidence,
			})
		}
	}
	if data.HasNuances() {
		output.NuanceCount = data.Nuances.Count()
	}

	return nil, output, nil
}

// handleStats handles the destination_stats tool invocation.
func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	if strings.TrimSpace(input.Destination) == "" {
		return nil, StatsOutput{}, fmt.Errorf("destination: %w", domain.ErrInvalidInput)
	}

	stats, err := s.ports.Consolidator.ConsolidationStatistics(ctx, input.Destination)
	if err != nil {
		return nil, StatsOutput{}, err
	}

	output := StatsOutput{Sessions: *stats}
	if s.ports.Lifecycle != nil {
		themes := s.ports.Lifecycle.ThemeStatistics(ctx, input.Destination)
		output.Themes = &themes
	}
	return nil, output, nil
}

// handleExport handles the export tool invocation.
func (s *Server) handleExport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExportInput,
) (*mcp.CallToolResult, ExportOutput, error) {
	if s.ports.Exporter == nil {
		return nil, ExportOutput{}, fmt.Errorf("export: %w", ErrNotConfigured)
	}

	data, _, _, err := s.consolidated(ctx, input.Destination, false)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	result, err := s.ports.Exporter.ExportDestination(ctx, input.Destination, data, domain.ExportFormat(input.Format))
	if err != nil {
		return nil, ExportOutput{}, err
	}

	return nil, ExportOutput{
		Path:          result.Path,
		Format:        result.Format.String(),
		FilesCreated:  len(result.FilesCreated),
		CopiedImages:  result.CopiedImages,
		MissingImages: result.MissingImages,
	}, nil
}

// handleSubmitReview handles the submit_review tool invocation.
func (s *Server) handleSubmitReview(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitReviewInput,
) (*mcp.CallToolResult, domain.SubmissionResult, error) {
	if s.ports.Reviews == nil {
		return nil, domain.SubmissionResult{}, fmt.Errorf("review: %w", ErrNotConfigured)
	}

	data, _, _, err := s.consolidated(ctx, input.Destination, false)
	if err != nil {
		return nil, domain.SubmissionResult{}, err
	}

	themes := data.Themes
	if themes == nil {
		themes = domain.NewThemeRecord(data.Destination, nil, "", "")
	}

	var score float64
	switch {
	case input.QualityScore != nil:
		score = *input.QualityScore
	case s.ports.Scorer != nil:
		score, _ = s.ports.Scorer.Score(themes.Affinities)
	default:
		score = themes.Quality()
	}

	priority := domain.ReviewPriority(input.Priority)
	if priority == "" {
		priority = domain.PriorityNormal
	}

	result, err := s.ports.Reviews.SubmitForReview(ctx, themes, score, data.Destination, priority)
	if err != nil {
		return nil, domain.SubmissionResult{}, err
	}
	return nil, *result, nil
}

// handleFeedback handles the review_feedback tool invocation.
func (s *Server) handleFeedback(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FeedbackInput,
) (*mcp.CallToolResult, domain.FeedbackResult, error) {
	if s.ports.Reviews == nil {
		return nil, domain.FeedbackResult{}, fmt.Errorf("review: %w", ErrNotConfigured)
	}

	feedback := domain.ReviewerFeedback{
		Decision:       domain.ReviewStatus(input.Decision),
		Comments:       input.Comments,
		CategoryScores: input.Scores,
	}
	result, err := s.ports.Reviews.SubmitReviewerFeedback(ctx, input.ReviewID, input.ReviewerID, feedback)
	if err != nil {
		return nil, domain.FeedbackResult{}, err
	}
	return nil, *result, nil
}

// handleQueue handles the review_queue tool invocation.
func (s *Server) handleQueue(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueueInput,
) (*mcp.CallToolResult, QueueOutput, error) {
	if s.ports.Reviews == nil {
		return nil, QueueOutput{}, fmt.Errorf("review: %w", ErrNotConfigured)
	}

	reviews, err := s.ports.Reviews.ReviewQueue(ctx, input.ReviewerID, domain.ReviewStatus(input.Status))
	if err != nil {
		return nil, QueueOutput{}, err
	}
	if reviews == nil {
		reviews = []domain.ReviewSummary{}
	}
	return nil, QueueOutput{Reviews: reviews, Count: len(reviews)}, nil
}

// consolidated serves a destination from the cache when possible and caches
// fresh consolidations. It returns the data version when caching succeeds.
func (s *Server) consolidated(
	ctx context.Context,
	destination string,
	refresh bool,
) (*domain.ConsolidatedData, string, bool, error) {
	if strings.TrimSpace(destination) == "" {
		return nil, "", false, fmt.Errorf("destination: %w", domain.ErrInvalidInput)
	}

	if s.ports.Cache != nil && !refresh {
		if data := s.ports.Cache.GetConsolidatedData(ctx, destination); data != nil {
			return data, "", true, nil
		}
	}

	data, err := s.ports.Consolidator.ConsolidateDestination(ctx, destination)
	if err != nil {
		return nil, "", false, err
	}

	var version string
	if s.ports.Cache != nil {
		version, err = s.ports.Cache.CacheConsolidatedData(ctx, destination, data)
		if err != nil {
			logger.Warn("Failed to cache %s: %v", destination, err)
		}
	}
	return data, version, false, nil
}
