package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Inspect and merge destination themes",
}

var themesShowCmd = &cobra.Command{
	Use:   "show <destination>",
	Short: "Show the latest stored themes",
	Args:  cobra.ExactArgs(1),
	RunE:  runThemesShow,
}

var themesCheckCmd = &cobra.Command{
	Use:   "check <destination>",
	Short: "Report whether themes need regenerating",
	Long: `Report whether full theme processing is required for a destination.
Existing themes are kept only when incremental updates are enabled and the
latest themes are both recent and of sufficient quality.`,
	Args: cobra.ExactArgs(1),
	RunE: runThemesCheck,
}

var themesMergeCmd = &cobra.Command{
	Use:   "merge <destination>",
	Short: "Merge new themes into the latest stored themes",
	Long: `Merge newly generated themes into the latest stored themes using the
configured merge strategy. The file holds either a theme record or a bare
array of affinities.

With --session the merged record is written into that session directory and
indexed; otherwise it is printed.

Examples:
  affinity themes merge "Kyoto, Japan" --file new_themes.json
  affinity themes merge "Kyoto, Japan" --file new_themes.json --session session_20240610_120000`,
	Args: cobra.ExactArgs(1),
	RunE: runThemesMerge,
}

func init() {
	themesMergeCmd.Flags().StringP("file", "f", "", "JSON file with the new themes (required)")
	themesMergeCmd.Flags().String("session", "", "session ID to save the merged record into")
	_ = themesMergeCmd.MarkFlagRequired("file")

	themesCmd.AddCommand(themesShowCmd)
	themesCmd.AddCommand(themesCheckCmd)
	themesCmd.AddCommand(themesMergeCmd)
	rootCmd.AddCommand(themesCmd)
}

func runThemesShow(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("theme lifecycle service not configured")
	}

	record, err := lifecycleService.LatestThemes(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Printf("No themes stored for %s.\n", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load themes: %w", err)
	}

	cmd.Printf("%s: %d themes (quality %.2f)\n", record.Destination, len(record.Affinities), record.Quality())
	if record.ProcessingMetadata.ProcessingDate != "" {
		cmd.Printf("Processed: %s\n", record.ProcessingMetadata.ProcessingDate)
	}
	for _, a := range record.Affinities {
		cmd.Printf("  - %-30s %-14s %.2f\n", a.Theme, a.Category, a.Confidence)
	}
	return nil
}

func runThemesCheck(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("theme lifecycle service not configured")
	}

	if lifecycleService.ShouldUpdateThemes(cmd.Context(), args[0]) {
		cmd.Printf("%s: full theme processing required\n", args[0])
	} else {
		cmd.Printf("%s: existing themes are current\n", args[0])
	}
	return nil
}

func runThemesMerge(cmd *cobra.Command, args []string) error {
	if lifecycleService == nil {
		return errors.New("theme lifecycle service not configured")
	}

	path, _ := cmd.Flags().GetString("file")
	sessionID, _ := cmd.Flags().GetString("session")
	destination := args[0]

	newThemes, err := readAffinities(path)
	if err != nil {
		return err
	}

	existing, err := lifecycleService.LatestThemes(cmd.Context(), destination)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to load existing themes: %w", err)
	}

	merged, err := lifecycleService.MergeThemeData(cmd.Context(), destination, newThemes, existing)
	if err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}

	if sessionID == "" {
		return printJSON(cmd, merged)
	}

	session, err := lifecycleService.SaveThemes(cmd.Context(), sessionID, merged)
	if err != nil {
		return fmt.Errorf("failed to save themes: %w", err)
	}
	if cacheService != nil {
		if err := cacheService.InvalidateDestination(cmd.Context(), destination); err != nil {
			return fmt.Errorf("failed to invalidate cache: %w", err)
		}
	}

	cmd.Printf("Saved %d themes for %s to %s\n", len(merged.Affinities), destination, session.ID)
	return nil
}

// readAffinities reads a theme record or a bare affinity array.
func readAffinities(path string) ([]domain.Affinity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var affinities []domain.Affinity
		if err := json.Unmarshal(raw, &affinities); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
		}
		return affinities, nil
	}

	var record domain.ThemeRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, path, err)
	}
	return record.Affinities, nil
}
