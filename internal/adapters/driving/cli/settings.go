package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure paths, merge and consolidation strategies, caching,
export and quality review settings.

Use subcommands to change individual keys or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long: `Set a single setting. Lists are comma separated.

Examples:
  affinity settings set theme_processing.merge_strategy additive
  affinity settings set session_management.consolidated_cache_ttl_hours 12
  affinity settings set quality_assurance.reviewers alice,bob`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show default settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		defaults := settingsService.GetDefaults()
		cmd.Println("Default Settings")
		cmd.Println("================")
		cmd.Println()
		printSettings(cmd, &defaults)
		return nil
	},
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to choose merge, consolidation and export behaviour step by step.`,
	RunE:  runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsDefaultsCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()
	printSettings(cmd, settings)
	return nil
}

func printSettings(cmd *cobra.Command, settings *domain.Settings) {
	cmd.Println("[Paths]")
	cmd.Printf("  Outputs: %s\n", settings.Paths.Outputs)
	cmd.Printf("  Cache:   %s\n", settings.Paths.Cache)
	cmd.Printf("  Exports: %s\n", settings.Paths.Exports)
	cmd.Println()

	cmd.Println("[Theme Processing]")
	cmd.Printf("  Incremental updates: %s\n", onOff(settings.Themes.EnableIncrementalUpdates))
	cmd.Printf("  Update after:        %d days\n", settings.Themes.IncrementalUpdateThresholdDays)
	cmd.Printf("  Preserve quality:    %.2f\n", settings.Themes.MinQualityForPreservation)
	cmd.Printf("  Merge strategy:      %s\n", settings.Themes.MergeStrategy)
	cmd.Printf("  Improvement margin:  %.2f\n", settings.Themes.QualityImprovementThreshold)
	cmd.Printf("  Similarity:          %.2f\n", settings.Themes.SimilarityThreshold)
	cmd.Println()

	cmd.Println("[Session Management]")
	cmd.Printf("  Strategy:     %s\n", settings.Sessions.ConsolidationStrategy)
	cmd.Printf("  Max sessions: %d\n", settings.Sessions.MaxSessionsToConsider)
	cmd.Printf("  Cache TTL:    %s\n", settings.Sessions.ConsolidatedCacheTTL)
	cmd.Printf("  Registry:     %s\n", onOff(settings.Sessions.UseRegistry))
	cmd.Println()

	cmd.Println("[Caching]")
	cmd.Printf("  Versioning:   %s (max %d)\n", onOff(settings.Cache.DataVersioning), settings.Cache.MaxVersionsPerDestination)
	cmd.Println()

	cmd.Println("[Export]")
	cmd.Printf("  Format:        %s\n", settings.Export.DefaultFormat)
	cmd.Printf("  Min quality:   %.2f\n", settings.Export.MinQualityForExport)
	cmd.Printf("  Both required: %s\n", onOff(settings.Export.RequireBothThemesAndNuances))
	cmd.Printf("  Copy images:   %s\n", onOff(settings.Export.CopyImages))
	cmd.Printf("  Integrity:     %s\n", onOff(settings.Export.ValidateIntegrity))
	cmd.Println()

	cmd.Println("[Quality Assurance]")
	cmd.Printf("  Auto-approve at: %.2f\n", settings.QA.AutoApproveThreshold)
	cmd.Printf("  Two reviewers below: %.2f\n", settings.QA.RequireReviewThreshold)
	cmd.Printf("  Reviewers: %s\n", strings.Join(settings.QA.Reviewers, ", "))
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s = %s\n", args[0], args[1])
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if cmd.InOrStdin() == os.Stdin && !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("settings wizard requires an interactive terminal; use settings set instead")
	}

	cmd.Println("Affinity Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Theme merge strategy
	cmd.Println("Step 1: Select Theme Merge Strategy")
	cmd.Println("-----------------------------------")
	merges := []domain.MergeStrategy{domain.MergeQualityBased, domain.MergeAdditive, domain.MergeReplace}
	merge := merges[choose(cmd, reader, []string{
		"quality_based - keep the better theme of each pair",
		"additive      - add new themes, never remove existing ones",
		"replace       - discard existing themes",
	})-1]
	if err := settingsService.Set("theme_processing.merge_strategy", merge.String()); err != nil {
		return fmt.Errorf("failed to set merge strategy: %w", err)
	}
	cmd.Printf("Set merge strategy to: %s\n\n", merge)

	// Step 2: Consolidation strategy
	cmd.Println("Step 2: Select Consolidation Strategy")
	cmd.Println("-------------------------------------")
	strategies := []domain.ConsolidationStrategy{
		domain.ConsolidationQualityBased, domain.ConsolidationLatestWins, domain.ConsolidationAdditive,
	}
	strategy := strategies[choose(cmd, reader, []string{
		"quality_based - highest quality session per data type",
		"latest_wins   - newest session per data type",
		"additive      - union of themes and nuances across sessions",
	})-1]
	if err := settingsService.Set("session_management.consolidation_strategy", strategy.String()); err != nil {
		return fmt.Errorf("failed to set consolidation strategy: %w", err)
	}
	cmd.Printf("Set consolidation strategy to: %s\n\n", strategy)

	// Step 3: Export format
	cmd.Println("Step 3: Select Default Export Format")
	cmd.Println("-----------------------------------")
	formats := []domain.ExportFormat{domain.ExportStructured, domain.ExportJSON}
	format := formats[choose(cmd, reader, []string{
		"structured - directories of data, images, metadata and schemas",
		"json       - one complete JSON document",
	})-1]
	if err := settingsService.Set("export_system.default_format", format.String()); err != nil {
		return fmt.Errorf("failed to set export format: %w", err)
	}
	cmd.Printf("Set export format to: %s\n\n", format)

	// Step 4: Incremental updates
	cmd.Println("Step 4: Incremental Theme Updates")
	cmd.Println("---------------------------------")
	cmd.Print("Keep recent, good-quality themes instead of regenerating them? [y/N]: ")
	incremental := strings.EqualFold(readLine(reader), "y")
	if err := settingsService.Set("theme_processing.enable_incremental_updates", strconv.FormatBool(incremental)); err != nil {
		return fmt.Errorf("failed to set incremental updates: %w", err)
	}
	cmd.Printf("Incremental updates: %s\n\n", onOff(incremental))

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	return nil
}

// choose prints numbered options and returns the 1-based choice, defaulting to 1.
func choose(cmd *cobra.Command, reader *bufio.Reader, options []string) int {
	for i, option := range options {
		cmd.Printf("  %d. %s\n", i+1, option)
	}
	cmd.Print("\nEnter choice [1]: ")
	return parseChoice(readLine(reader), len(options), 1)
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}
