package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

var consolidateCmd = &cobra.Command{
	Use:   "consolidate <destination>",
	Short: "Consolidate every session of a destination",
	Long: `Merge the theme, nuance, image and evidence artifacts of every session
holding data for a destination into one record, using the configured
consolidation strategy. The result is cached and versioned.

Examples:
  affinity consolidate "Kyoto, Japan"
  affinity consolidate "Kyoto, Japan" --refresh --json`,
	Args: cobra.ExactArgs(1),
	RunE: runConsolidate,
}

var statsCmd = &cobra.Command{
	Use:   "stats <destination>",
	Short: "Show session statistics for a destination",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	consolidateCmd.Flags().Bool("refresh", false, "ignore the cached record")
	consolidateCmd.Flags().Bool("json", false, "print the consolidated record as JSON")
	rootCmd.AddCommand(consolidateCmd)
	rootCmd.AddCommand(statsCmd)
}

func runConsolidate(cmd *cobra.Command, args []string) error {
	if consolidationService == nil {
		return errors.New("consolidation service not configured")
	}

	refresh, _ := cmd.Flags().GetBool("refresh")
	asJSON, _ := cmd.Flags().GetBool("json")
	destination := args[0]

	data, version, cached, err := loadConsolidated(cmd.Context(), destination, refresh)
	if err != nil {
		return err
	}

	if asJSON {
		return printJSON(cmd, data)
	}

	source := "consolidated"
	if cached {
		source = "cached"
	}
	cmd.Printf("%s (%s, %s strategy)\n", data.Destination, source, data.Metadata.Strategy)
	if version != "" {
		cmd.Printf("  Version:   %s\n", version)
	}
	cmd.Printf("  Sessions:  %d\n", len(data.SourceSessions))

	if data.HasThemes() {
		cmd.Printf("  Themes:    %d (quality %.2f)\n", len(data.Themes.Affinities), data.Themes.Quality())
		for _, a := range data.Themes.Affinities {
			cmd.Printf("    - %-30s %-14s %.2f\n", a.Theme, a.Category, a.Confidence)
		}
	} else {
		cmd.Println("  Themes:    none")
	}
	if data.HasNuances() {
		cmd.Printf("  Nuances:   %d\n", data.Nuances.Count())
	} else {
		cmd.Println("  Nuances:   none")
	}
	cmd.Printf("  Images:    %d\n", len(data.Images))
	cmd.Printf("  Evidence:  %d\n", len(data.Evidence))

	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	if consolidationService == nil {
		return errors.New("consolidation service not configured")
	}

	stats, err := consolidationService.ConsolidationStatistics(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get statistics: %w", err)
	}

	cmd.Printf("Destination: %s\n", stats.Destination)
	cmd.Printf("Sessions:    %d\n", stats.TotalSessions)
	if stats.Oldest != nil && stats.Newest != nil {
		cmd.Printf("Span:        %s .. %s\n",
			stats.Oldest.Format("2006-01-02 15:04"), stats.Newest.Format("2006-01-02 15:04"))
	}

	for _, t := range domain.AllDataTypes() {
		line := fmt.Sprintf("  %-8s %d sessions", t, stats.Availability[t])
		if r, ok := stats.QualityRanges[t]; ok {
			line += fmt.Sprintf("  quality %.2f-%.2f (avg %.2f)", r.Min, r.Max, r.Avg)
		}
		cmd.Println(line)
	}

	if lifecycleService != nil {
		themes := lifecycleService.ThemeStatistics(cmd.Context(), args[0])
		if themes.HasExistingData {
			categories := append([]string(nil), themes.Categories...)
			sort.Strings(categories)
			cmd.Printf("Latest themes: %d (quality %.2f, updated %s)\n",
				themes.ThemeCount, themes.QualityScore, themes.LastUpdated)
			cmd.Printf("Categories:    %v\n", categories)
		}
	}

	return nil
}

// loadConsolidated serves a destination from the cache unless refresh is set,
// consolidating and caching it otherwise.
func loadConsolidated(
	ctx context.Context,
	destination string,
	refresh bool,
) (*domain.ConsolidatedData, string, bool, error) {
	if cacheService != nil && !refresh {
		if data := cacheService.GetConsolidatedData(ctx, destination); data != nil {
			return data, "", true, nil
		}
	}

	data, err := consolidationService.ConsolidateDestination(ctx, destination)
	if err != nil {
		return nil, "", false, fmt.Errorf("consolidation failed: %w", err)
	}

	var version string
	if cacheService != nil {
		version, err = cacheService.CacheConsolidatedData(ctx, destination, data)
		if err != nil {
			logger.Warn("Failed to cache %s: %v", destination, err)
		}
	}
	return data, version, false, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
