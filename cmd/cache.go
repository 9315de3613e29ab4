package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear cached note concepts",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and age",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, closeCache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer closeCache()

		st, err := c.Stats(ctx)
		if err != nil {
			return fmt.Errorf("cache stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend:  %s\n", st.Backend)
		fmt.Fprintf(out, "Entries:  %d\n", st.Entries)
		fmt.Fprintf(out, "Size:     %.2f MB\n", st.SizeMB())
		if st.Entries > 0 {
			fmt.Fprintf(out, "Oldest:   %s\n", st.Oldest.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "Newest:   %s\n", st.Newest.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("max-age")
		maxAge, err := parseAge(raw)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, closeCache, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer closeCache()

		n, err := c.Clear(ctx, maxAge)
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries.\n", n)
		return nil
	},
}

// parseAge accepts Go durations plus a day suffix ("7d"). Empty means zero.
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid max age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid max age %q", s)
	}
	return d, nil
}

func init() {
	cacheClearCmd.Flags().String("max-age", "", "Only remove entries older than this (e.g. 7d, 12h)")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
