package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/mcp"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools: consolidate, destination_stats, export, submit_review,
review_feedback, review_queue.

By default, the server communicates over stdio using JSON-RPC. Use --port to
start an HTTP server instead; metrics are then also served on /metrics.
With stdio, --metrics-addr serves metrics on a separate address.

Examples:
  # Stdio mode (default)
  affinity mcp serve

  # HTTP mode with metrics on /metrics
  affinity mcp serve --port 8080

  # Stdio mode with a metrics endpoint
  affinity mcp serve --metrics-addr :9090`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address in stdio mode")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	ports := &mcp.Ports{
		Consolidator: consolidationService,
		Lifecycle:    lifecycleService,
		Cache:        cacheService,
		Exporter:     exportService,
		Reviews:      reviewService,
		Scorer:       qualityScorer,
	}

	var opts []mcp.ServerOption
	if metricsHandler != nil {
		opts = append(opts, mcp.WithMetricsHandler(metricsHandler))
	}
	server, err := mcp.NewServer(ports, opts...)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s/mcp\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	if metricsAddr != "" && metricsHandler != nil {
		go serveMetrics(ctx, metricsAddr)
	}
	return server.Run(ctx)
}

// serveMetrics serves the metrics handler until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server: %v", err)
	}
}
