package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-index sessions as they are written",
	Long: `Watch the outputs directory and re-index destinations whose session
artifacts change, invalidating their cached records. Bursts of writes are
debounced and re-index passes are rate limited.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "settle delay after the last change")
	watchCmd.Flags().Duration("interval", 5*time.Second, "minimum time between re-index passes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if indexService == nil || outputsDir == "" {
		return errors.New("index service not configured")
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	interval, _ := cmd.Flags().GetDuration("interval")
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	w := watch.New(outputsDir, indexService, cacheService,
		watch.WithDebounce(debounce),
		watch.WithLimiter(rate.NewLimiter(rate.Every(interval), 1)),
		watch.WithFlushHook(func(slugs []string) {
			for _, slug := range slugs {
				cmd.Printf("Re-indexed %s\n", slug)
			}
		}))

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", outputsDir)
	return w.Watch(cmd.Context())
}
