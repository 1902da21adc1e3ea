package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the consolidated data cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached record, version and export payload",
	RunE:  runCacheClear,
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <destination>",
	Short: "Drop the cached record of a destination",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

var cacheVersionsCmd = &cobra.Command{
	Use:   "versions <destination>",
	Short: "List stored data versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheVersions,
}

var cacheDiffCmd = &cobra.Command{
	Use:   "diff <destination> <old-version> <new-version>",
	Short: "Compare two stored data versions",
	Args:  cobra.ExactArgs(3),
	RunE:  runCacheDiff,
}

func init() {
	cacheDiffCmd.Flags().Bool("json", false, "print the full diff as JSON")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cacheVersionsCmd)
	cacheCmd.AddCommand(cacheDiffCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	stats, err := cacheService.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache statistics: %w", err)
	}

	cmd.Println("Cache Statistics")
	cmd.Println("================")
	cmd.Printf("  Cached destinations: %d\n", stats.CachedDestinations)
	cmd.Printf("  Versioned entries:   %d\n", stats.VersionedEntries)
	cmd.Printf("  Export payloads:     %d\n", stats.ExportEntries)
	cmd.Printf("  Total size:          %.2f MB\n", stats.TotalSizeMB)
	cmd.Printf("  TTL:                 %.0f hours\n", stats.TTLHours)
	if stats.VersioningEnabled {
		cmd.Printf("  Versioning:          enabled (max %d per destination)\n", stats.MaxVersions)
	} else {
		cmd.Println("  Versioning:          disabled")
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	if err := cacheService.ClearAll(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	cmd.Println("Cache cleared.")
	return nil
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	if err := cacheService.InvalidateDestination(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to invalidate %s: %w", args[0], err)
	}
	cmd.Printf("Invalidated cached data for %s.\n", args[0])
	return nil
}

func runCacheVersions(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	versions, err := cacheService.Versions(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}
	if len(versions) == 0 {
		cmd.Printf("No versions stored for %s.\n", args[0])
		return nil
	}
	for _, v := range versions {
		cmd.Println(v)
	}
	return nil
}

func runCacheDiff(cmd *cobra.Command, args []string) error {
	if cacheService == nil {
		return errors.New("cache service not configured")
	}

	diff := cacheService.GetDataDiff(cmd.Context(), args[0], args[1], args[2])
	if diff == nil {
		return fmt.Errorf("versions %s and %s are not both stored for %s", args[1], args[2], args[0])
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, diff)
	}

	changes := diff.Changes
	if changes.IsEmpty() {
		cmd.Println("No changes.")
		return nil
	}

	cmd.Printf("Themes:   +%d -%d ~%d\n",
		len(changes.Themes.Added), len(changes.Themes.Removed), len(changes.Themes.Modified))
	for _, a := range changes.Themes.Added {
		cmd.Printf("  + %s\n", a.Theme)
	}
	for _, a := range changes.Themes.Removed {
		cmd.Printf("  - %s\n", a.Theme)
	}
	for _, d := range changes.Themes.Modified {
		cmd.Printf("  ~ %s (%.2f -> %.2f)\n", d.Theme, d.Old.Confidence, d.New.Confidence)
	}

	for _, c := range domain.AllNuanceCategories() {
		n, ok := changes.Nuances[c]
		if !ok {
			continue
		}
		cmd.Printf("Nuances %s: +%d -%d ~%d\n", c, len(n.Added), len(n.Removed), len(n.Modified))
	}

	cmd.Printf("Images:   +%d -%d ~%d\n",
		len(changes.Images.Added), len(changes.Images.Removed), len(changes.Images.Changed))
	cmd.Printf("Evidence: +%d -%d ~%d\n",
		len(changes.Evidence.Added), len(changes.Evidence.Removed), len(changes.Evidence.Modified))
	return nil
}
