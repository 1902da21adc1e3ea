package cli

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Route consolidated themes through quality review",
}

var reviewSubmitCmd = &cobra.Command{
	Use:   "submit <destination>",
	Short: "Submit the consolidated themes of a destination for review",
	Long: `Submit the consolidated themes of a destination for quality review.

High-quality themes are auto-approved. Lower scores are assigned to one
reviewer, and scores below the review threshold to two reviewers with the
full set of criteria. Without --score the themes are scored automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewSubmit,
}

var reviewFeedbackCmd = &cobra.Command{
	Use:   "feedback <review-id>",
	Short: "Record a reviewer decision",
	Long: `Record a reviewer decision on a review. Once every assigned reviewer has
responded the majority decision becomes final.

Examples:
  affinity review feedback 3f1c... --reviewer reviewer_editorial_002 --decision approved
  affinity review feedback 3f1c... --reviewer reviewer_qa_004 --decision rejected \
    --score factual_accuracy=0.4 --comments "outdated opening hours"`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewFeedback,
}

var reviewQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List reviews by priority",
	RunE:  runReviewQueue,
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <review-id>",
	Short: "Show a review",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewShow,
}

func init() {
	reviewSubmitCmd.Flags().Float64("score", 0, "quality score in [0,1] (default: scored from the themes)")
	reviewSubmitCmd.Flags().String("priority", string(domain.PriorityNormal), "urgent, high, normal or low")

	reviewFeedbackCmd.Flags().String("reviewer", "", "reviewer ID (required)")
	reviewFeedbackCmd.Flags().String("decision", "", "approved, rejected or requires_revision (required)")
	reviewFeedbackCmd.Flags().String("comments", "", "reviewer comments")
	reviewFeedbackCmd.Flags().String("role", "", "reviewer role")
	reviewFeedbackCmd.Flags().Int("minutes", 0, "time spent reviewing")
	reviewFeedbackCmd.Flags().StringSlice("score", nil, "criterion score as name=value (repeatable)")
	_ = reviewFeedbackCmd.MarkFlagRequired("reviewer")
	_ = reviewFeedbackCmd.MarkFlagRequired("decision")

	reviewQueueCmd.Flags().String("reviewer", "", "only reviews assigned to this reviewer")
	reviewQueueCmd.Flags().String("status", "", "only reviews in this status")

	reviewCmd.AddCommand(reviewSubmitCmd)
	reviewCmd.AddCommand(reviewFeedbackCmd)
	reviewCmd.AddCommand(reviewQueueCmd)
	reviewCmd.AddCommand(reviewShowCmd)
	rootCmd.AddCommand(reviewCmd)
}

func runReviewSubmit(cmd *cobra.Command, args []string) error {
	if reviewService == nil || consolidationService == nil {
		return errors.New("review service not configured")
	}

	destination := args[0]
	priority, _ := cmd.Flags().GetString("priority")

	data, _, _, err := loadConsolidated(cmd.Context(), destination, false)
	if err != nil {
		return err
	}
	themes := data.Themes
	if themes == nil {
		themes = domain.NewThemeRecord(data.Destination, nil, "", "")
	}

	score, _ := cmd.Flags().GetFloat64("score")
	if !cmd.Flags().Changed("score") {
		if qualityScorer != nil {
			var metrics map[string]float64
			score, metrics = qualityScorer.Score(themes.Affinities)
			printMetrics(cmd, metrics)
		} else {
			score = themes.Quality()
		}
	}

	result, err := reviewService.SubmitForReview(cmd.Context(), themes, score, destination, domain.ReviewPriority(priority))
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}

	switch result.Status {
	case domain.ResultError:
		return errors.New(result.ErrorMessage)
	case domain.ResultAutoApproved:
		cmd.Printf("%s auto-approved (quality %.2f): %s\n", destination, score, result.Path.Reason)
	default:
		cmd.Printf("Review %s created for %s (quality %.2f)\n", result.ReviewID, destination, score)
		cmd.Printf("  Reviewers: %s\n", strings.Join(result.AssignedReviewers, ", "))
		cmd.Printf("  Criteria:  %s\n", strings.Join(result.Path.Criteria, ", "))
	}
	return nil
}

func runReviewFeedback(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	reviewer, _ := cmd.Flags().GetString("reviewer")
	decision, _ := cmd.Flags().GetString("decision")
	comments, _ := cmd.Flags().GetString("comments")
	role, _ := cmd.Flags().GetString("role")
	minutes, _ := cmd.Flags().GetInt("minutes")
	rawScores, _ := cmd.Flags().GetStringSlice("score")

	scores, err := parseScores(rawScores)
	if err != nil {
		return err
	}

	feedback := domain.ReviewerFeedback{
		Decision:       domain.ReviewStatus(decision),
		ReviewerRole:   role,
		Comments:       comments,
		CategoryScores: scores,
		ReviewMinutes:  minutes,
	}
	result, err := reviewService.SubmitReviewerFeedback(cmd.Context(), args[0], reviewer, feedback)
	if err != nil {
		return fmt.Errorf("feedback failed: %w", err)
	}
	if result.Status == domain.ResultError {
		return errors.New(result.ErrorMessage)
	}

	if result.FinalDecision != nil {
		cmd.Printf("Review %s completed: %s (%s, confidence %.2f)\n", result.ReviewID,
			result.FinalDecision.Status, result.FinalDecision.Reason, result.FinalDecision.Confidence)
		return nil
	}
	cmd.Printf("Feedback recorded for %s: %d completed, %d pending\n",
		result.ReviewID, result.ReviewsCompleted, result.ReviewsPending)
	return nil
}

func runReviewQueue(cmd *cobra.Command, _ []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	reviewer, _ := cmd.Flags().GetString("reviewer")
	status, _ := cmd.Flags().GetString("status")
	if status != "" && !domain.ReviewStatus(status).IsValid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	reviews, err := reviewService.ReviewQueue(cmd.Context(), reviewer, domain.ReviewStatus(status))
	if err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}
	if len(reviews) == 0 {
		cmd.Println("No reviews.")
		return nil
	}

	for _, r := range reviews {
		cmd.Printf("%s  %-7s %-17s %-24s quality %.2f  %d/%d reviews\n",
			r.ReviewID, r.Priority, r.Status, r.Destination, r.QualityScore,
			r.ReviewsCompleted, len(r.AssignedReviewers))
	}
	return nil
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	if reviewService == nil {
		return errors.New("review service not configured")
	}

	review, err := reviewService.GetReview(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	return printJSON(cmd, review)
}

// parseScores parses name=value pairs into criterion scores in [0,1].
func parseScores(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	scores := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: score %q must be name=value", domain.ErrInvalidInput, pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("%w: score %q must be a number in [0,1]", domain.ErrInvalidInput, pair)
		}
		scores[name] = f
	}
	return scores, nil
}

func printMetrics(cmd *cobra.Command, metrics map[string]float64) {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("  %-18s %.2f\n", name, metrics[name])
	}
}
