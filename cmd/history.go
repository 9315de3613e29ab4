package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/notequiz/internal/cache"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or forget previously asked questions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently asked questions, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		texts, err := s.HistoryRepo().Recent(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(texts) == 0 {
			fmt.Fprintln(out, "No questions asked yet.")
			return nil
		}
		for i, t := range texts {
			fmt.Fprintf(out, "%4d  %s\n", i+1, t)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every asked question",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		n, err := s.HistoryRepo().Clear(ctx)
		if err != nil {
			return fmt.Errorf("clear history: %w", err)
		}

		c, closeCache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer closeCache()
		if _, err := c.Delete(ctx, cache.HistoryKey); err != nil {
			return fmt.Errorf("clear history mirror: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d questions from history.\n", n)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntP("limit", "n", 50, "Number of questions to show (0 for all)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyClearCmd)
}
