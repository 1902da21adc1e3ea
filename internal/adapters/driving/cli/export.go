package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/core/domain"
)

var exportCmd = &cobra.Command{
	Use:   "export <destination> | --all",
	Short: "Export the consolidated record of a destination",
	Long: `Validate and export the consolidated record of a destination, or of
every destination with session data when --all is given.

Formats:
  structured - data/, images/, metadata/ and schemas/ directories (default)
  json       - a single complete JSON document

The export is rejected when the data fails the configured quality gates.

Examples:
  affinity export "Kyoto, Japan"
  affinity export "Kyoto, Japan" --format json --archive
  affinity export --all --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var exportArchiveCmd = &cobra.Command{
	Use:   "archive <export-path>",
	Short: "Zip an export directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExportArchive,
}

var exportStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show export statistics",
	RunE:  runExportStats,
}

var exportCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove exports older than a number of days",
	RunE:  runExportCleanup,
}

func init() {
	exportCmd.Flags().StringP("format", "f", "", "export format: structured or json (default from settings)")
	exportCmd.Flags().Bool("archive", false, "zip the export directory after writing")
	exportCmd.Flags().Bool("refresh", false, "re-consolidate instead of using the cached record")
	exportCmd.Flags().Bool("all", false, "export every destination with session data")
	exportCmd.Flags().Bool("json", false, "print the bulk export summary as JSON (with --all)")
	exportCleanupCmd.Flags().Int("days", 30, "age in days after which exports are removed")

	exportCmd.AddCommand(exportArchiveCmd)
	exportCmd.AddCommand(exportStatsCmd)
	exportCmd.AddCommand(exportCleanupCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	switch {
	case all && len(args) > 0:
		return errors.New("give a destination or --all, not both")
	case all:
		return runExportAll(cmd)
	case len(args) == 0:
		return errors.New("a destination is required unless --all is given")
	}

	if consolidationService == nil || exportService == nil {
		return errors.New("export service not configured")
	}

	format, _ := cmd.Flags().GetString("format")
	archive, _ := cmd.Flags().GetBool("archive")
	refresh, _ := cmd.Flags().GetBool("refresh")
	destination := args[0]

	data, _, _, err := loadConsolidated(cmd.Context(), destination, refresh)
	if err != nil {
		return err
	}

	result, err := exportService.ExportDestination(cmd.Context(), destination, data, domain.ExportFormat(format))
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	cmd.Printf("Exported %s (%s) to %s\n", destination, result.Format, result.Path)
	cmd.Printf("  Files:  %d\n", len(result.FilesCreated))
	if len(result.CopiedImages) > 0 || len(result.MissingImages) > 0 {
		cmd.Printf("  Images: %d copied, %d missing\n", len(result.CopiedImages), len(result.MissingImages))
	}

	if archive {
		path, err := exportService.CreateArchive(cmd.Context(), result.Path)
		if err != nil {
			return fmt.Errorf("archive failed: %w", err)
		}
		cmd.Printf("  Archive: %s\n", path)
	}
	return nil
}

func runExportAll(cmd *cobra.Command) error {
	if bulkExportService == nil {
		return errors.New("bulk export service not configured")
	}

	format, _ := cmd.Flags().GetString("format")
	asJSON, _ := cmd.Flags().GetBool("json")

	result, err := bulkExportService.ExportAll(cmd.Context(), domain.ExportFormat(format))
	if err != nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}
	if asJSON {
		return printJSON(cmd, result)
	}
	if result.Total == 0 {
		cmd.Println("No destinations found.")
		return nil
	}

	cmd.Printf("Exported %d/%d destinations (%s)\n", result.Succeeded, result.Total, result.Format)
	names := make([]string, 0, len(result.Results))
	for name := range result.Results {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		outcome := result.Results[name]
		if outcome.OK() {
			cmd.Printf("  ok      %s -> %s\n", name, outcome.Path)
		} else {
			cmd.Printf("  failed  %s: %s\n", name, outcome.Error)
		}
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d exports failed", result.Failed, result.Total)
	}
	return nil
}

func runExportArchive(cmd *cobra.Command, args []string) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}

	path, err := exportService.CreateArchive(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("archive failed: %w", err)
	}
	cmd.Printf("Created %s\n", path)
	return nil
}

func runExportStats(cmd *cobra.Command, _ []string) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}

	stats, err := exportService.Statistics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get export statistics: %w", err)
	}

	cmd.Println("Export Statistics")
	cmd.Println("=================")
	cmd.Printf("  Directory:    %s\n", stats.Directory)
	cmd.Printf("  Exports:      %d\n", stats.TotalExports)
	cmd.Printf("  Total size:   %.2f MB\n", stats.TotalSizeMB)
	cmd.Printf("  Destinations: %d\n", len(stats.Destinations))
	for _, d := range stats.Destinations {
		cmd.Printf("    - %s\n", d)
	}
	return nil
}

func runExportCleanup(cmd *cobra.Command, _ []string) error {
	if exportService == nil {
		return errors.New("export service not configured")
	}

	days, _ := cmd.Flags().GetInt("days")
	removed, err := exportService.CleanupOldExports(cmd.Context(), days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	cmd.Printf("Removed %d exports older than %d days.\n", removed, days)
	return nil
}
