package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devang/mentor/internal/store"
)

var mistakesCmd = &cobra.Command{
	Use:   "mistakes <learner-id>",
	Short: "List a learner's mistake book, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		records, err := s.MistakeRepo().ListMistakes(cmd.Context(), identity, limit)
		if err != nil {
			return fmt.Errorf("list mistakes: %w", err)
		}
		if len(records) == 0 {
			fmt.Printf("No mistakes recorded for %s.\n", identity)
			return nil
		}

		sep := strings.Repeat("─", 72)
		for _, rec := range records {
			fmt.Println(sep)
			fmt.Printf("#%d  %s  [%s]  %s\n",
				rec.ID,
				rec.Timestamp.Local().Format("2006-01-02 15:04"),
				rec.Subject,
				rec.KnowledgePointID,
			)
			if rec.QuestionExcerpt != "" {
				fmt.Printf("Q: %s\n", rec.QuestionExcerpt)
			}
			fmt.Printf("Analysis: %s\n", rec.Analysis)
		}
		fmt.Println(sep)
		return nil
	},
}

func init() {
	mistakesCmd.Flags().Int("limit", 20, "Maximum records to show")
}
