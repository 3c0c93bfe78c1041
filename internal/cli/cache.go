package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelforge/pkg/cache"
	"github.com/matzehuels/pixelforge/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the estimate, artifact and download cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				printInfo("Caching is disabled")
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return err
			}

			printSuccess("Cleared cache")
			printDetail("Backend: %s", c.Config.Cache.Backend)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case config.BackendRedis:
				fmt.Fprintf(cmd.OutOrStdout(), "redis://%s/%d\n", c.Config.Cache.RedisAddr, c.Config.Cache.RedisDB)
			case config.BackendNone:
				fmt.Fprintln(cmd.OutOrStdout(), "none")
			default:
				dir, err := c.cacheDir()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
}
