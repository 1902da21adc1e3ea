package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index [destination]",
	Short: "Index session directories into the session registry",
	Long: `Scan the outputs directory and record every session holding data in the
session registry. Consolidation then reads the registry instead of scanning
every session directory. Without a destination all destinations are indexed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	if len(args) == 1 {
		n, err := indexService.IndexDestination(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("index failed: %w", err)
		}
		cmd.Printf("Indexed %d sessions for %s.\n", n, args[0])
		return nil
	}

	n, err := indexService.IndexAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	cmd.Printf("Indexed %d sessions.\n", n)
	return nil
}
