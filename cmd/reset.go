package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devang/mentor/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset <learner-id>",
	Short: "Delete a learner's transcript, mistake book, and profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := args[0]

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		if err := s.ClearLearner(cmd.Context(), identity); err != nil {
			return fmt.Errorf("clear learner %s: %w", identity, err)
		}
		fmt.Printf("Cleared all data for %s.\n", identity)
		return nil
	},
}
