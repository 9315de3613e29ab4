package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quiz statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		totals, err := s.SessionRepo().Totals(ctx)
		if err != nil {
			return fmt.Errorf("query totals: %w", err)
		}

		out := cmd.OutOrStdout()
		if totals.Sessions == 0 {
			fmt.Fprintln(out, "No quizzes taken yet.")
			return nil
		}

		fmt.Fprintf(out, "Quizzes:   %d\n", totals.Sessions)
		fmt.Fprintf(out, "Questions: %d generated, %d answered\n", totals.Total, totals.Answered)
		fmt.Fprintf(out, "Score:     %d (%.2f%%)\n", totals.Score, totals.Accuracy)

		recent, err := s.SessionRepo().List(ctx, limit)
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "%-19s  %-14s  %-12s  %-7s  %8s  %s\n",
			"Finished", "Category", "Strategy", "Score", "Accuracy", "Cached")
		fmt.Fprintln(out, strings.Repeat("─", 78))
		for _, r := range recent {
			cached := ""
			if r.FromCache {
				cached = "✓"
			}
			fmt.Fprintf(out, "%-19s  %-14s  %-12s  %-7s  %7.2f%%  %s\n",
				r.FinishedAt.Local().Format("2006-01-02 15:04:05"),
				r.Category,
				r.Strategy,
				fmt.Sprintf("%d/%d", r.Score, r.Answered),
				r.Accuracy,
				cached,
			)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntP("limit", "n", 10, "Number of recent quizzes to show")
}
