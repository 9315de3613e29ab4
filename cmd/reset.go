package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete history, sessions, LLM logs and cached concepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("this deletes all saved data; re-run with --yes to confirm")
		}

		ctx := cmd.Context()
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Reset(ctx); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}

		c, closeCache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer closeCache()
		n, err := c.Clear(ctx, 0)
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "All data reset (%d cache entries removed).\n", n)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolP("yes", "y", false, "Confirm the reset")
}
