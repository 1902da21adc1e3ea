package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/affinity-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/affinity-cli/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for affinity.

The TUI consolidates a destination, shows its themes, submits them for
review, and records review decisions as the reviewer given by --reviewer.
Without --reviewer the review queue is read-only.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Consolidate / Select
  a, x, v  - Approve, reject, needs revision
  Esc      - Back
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().String("reviewer", "", "reviewer ID decisions are recorded under")
	rootCmd.AddCommand(tuiCmd)
}

// tuiPorts builds the TUI ports from the injected services.
func tuiPorts(reviewerID string) *tui.Ports {
	return &tui.Ports{
		Consolidator: consolidationService,
		Cache:        cacheService,
		Reviews:      reviewService,
		Settings:     settingsService,
		ReviewerID:   reviewerID,
	}
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	reviewer, _ := cmd.Flags().GetString("reviewer")

	app, err := tui.NewApp(tuiPorts(reviewer))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// Service logging would draw over the alternate screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
