// Package cli provides the cobra command tree for affinity.
package cli

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/core/ports/driven"
	"github.com/custodia-labs/affinity-cli/internal/core/ports/driving"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var verbose bool

// Services injected by the composition root.
var (
	settingsService      driving.SettingsService
	lifecycleService     driving.ThemeLifecycle
	consolidationService driving.Consolidator
	cacheService         driving.DataCache
	exportService        driving.Exporter
	bulkExportService    driving.BulkExporter
	reviewService        driving.ReviewFlow
	indexService         driving.Indexer
	qualityScorer        driven.QualityScorer
	metricsHandler       http.Handler
	outputsDir           string
)

// Services holds everything the commands call into.
type Services struct {
	Settings      driving.SettingsService
	Lifecycle     driving.ThemeLifecycle
	Consolidation driving.Consolidator
	Cache         driving.DataCache
	Export        driving.Exporter
	BulkExport    driving.BulkExporter
	Review        driving.ReviewFlow
	Index         driving.Indexer
	Scorer        driven.QualityScorer

	// MetricsHandler is served by mcp serve --metrics-addr. Optional.
	MetricsHandler http.Handler

	// OutputsDir is the directory watch follows.
	OutputsDir string
}

var rootCmd = &cobra.Command{
	Use:   "affinity",
	Short: "Consolidate destination affinity sessions",
	Long: `affinity merges the theme, nuance, image and evidence artifacts that
processing sessions write for a destination into one consolidated record,
caches and versions it, exports it, and routes it through quality review.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	settingsService = s.Settings
	lifecycleService = s.Lifecycle
	consolidationService = s.Consolidation
	cacheService = s.Cache
	exportService = s.Export
	bulkExportService = s.BulkExport
	reviewService = s.Review
	indexService = s.Index
	qualityScorer = s.Scorer
	metricsHandler = s.MetricsHandler
	outputsDir = s.OutputsDir
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
