// Command affinity consolidates destination affinity sessions.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/metrics"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/schema"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/scoring"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/outputs"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/affinity-cli/internal/core/services"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// homeEnv overrides the config and data directory.
const homeEnv = "AFFINITY_HOME"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	configStore, err := file.NewConfigStore(os.Getenv(homeEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading settings: %v\n", err)
		return 1
	}

	store, err := sqlite.NewStore(os.Getenv(homeEnv))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store: %v", err)
		}
	}()

	source := outputs.NewSource(settings.Paths.Outputs)
	registry := store.SessionRegistry()
	prom := metrics.NewPrometheus()
	scorer := scoring.NewScorer()

	opts := []services.Option{
		services.WithMetrics(prom),
		services.WithLocks(services.NewDestinationLocks()),
	}

	cacheService := services.NewCacheService(*settings, opts...)
	consolidationService := services.NewConsolidationService(source, registry, *settings, opts...)
	exportService := services.NewExportService(*settings, schema.NewGenerator(settings.Export.SchemaVersion), cacheService, opts...)

	cli.SetServices(cli.Services{
		Settings:       settingsService,
		Lifecycle:      services.NewThemeLifecycleService(source, registry, nil, *settings, opts...),
		Consolidation:  consolidationService,
		Cache:          cacheService,
		Export:         exportService,
		BulkExport:     services.NewBulkExportService(source, consolidationService, cacheService, exportService),
		Review:         services.NewReviewService(store.ReviewStore(), *settings, opts...),
		Index:          services.NewIndexService(source, registry),
		Scorer:         scorer,
		MetricsHandler: prom.Handler(),
		OutputsDir:     settings.Paths.Outputs,
	})
	cli.SetVersion(version)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
