package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var destinationsCmd = &cobra.Command{
	Use:   "destinations",
	Short: "List destinations with session data",
	Long: `List every destination that has theme or nuance artifacts in at
least one session under the outputs directory.`,
	Args: cobra.NoArgs,
	RunE: runDestinations,
}

func init() {
	destinationsCmd.Flags().Bool("json", false, "print the list as JSON")
	rootCmd.AddCommand(destinationsCmd)
}

func runDestinations(cmd *cobra.Command, _ []string) error {
	if bulkExportService == nil {
		return errors.New("bulk export service not configured")
	}

	destinations, err := bulkExportService.Destinations(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list destinations: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, destinations)
	}
	if len(destinations) == 0 {
		cmd.Println("No destinations found.")
		return nil
	}

	cmd.Printf("Available destinations (%d):\n", len(destinations))
	for i, d := range destinations {
		cmd.Printf("  %2d. %s\n", i+1, d)
	}
	return nil
}
