package cmd

import (
	"fmt"

	"github.com/giygas/govdata-api/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local cache of upstream data",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		n, err := c.Len(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting entries: %w", err)
		}
		if err := c.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entr%s.\n", n, plural(n, "y", "ies"))
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the cache driver and its keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		keys, err := c.Keys(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading keys: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Driver: %s\n", cfg.CacheDriver)
		if cfg.CacheDriver == config.CacheSQLite {
			fmt.Fprintf(out, "Path: %s\n", cfg.CachePath)
		}
		fmt.Fprintf(out, "Entries: %d\n", len(keys))
		for _, k := range keys {
			fmt.Fprintf(out, "  %s\n", k)
		}
		return nil
	},
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}
