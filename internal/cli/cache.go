package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/odoomig/pkg/cache"
	"github.com/matzehuels/odoomig/pkg/errors"
	"github.com/matzehuels/odoomig/pkg/feed"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cache of database feeds",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var current bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cached database feeds",
		Long: `Clear cached database feeds.

By default every cached entry is removed. With --current only the module and
view feeds of the selected database are dropped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if current {
				database := c.database(cmd)
				src, release := c.source(ctx)
				defer release()
				cached, ok := src.(*feed.Cached)
				if !ok {
					printInfo("Cache is disabled")
					return nil
				}
				if err := cached.Invalidate(ctx, database); err != nil {
					return err
				}
				printSuccess("Cleared cached feeds of %s", database)
				return nil
			}

			ch, err := c.openCache(ctx)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "open cache")
			}
			defer ch.Close()

			clearer, ok := ch.(cache.Clearer)
			if !ok {
				return errors.New(errors.ErrCodeInternal, "cache backend cannot be cleared")
			}
			if err := clearer.Clear(ctx); err != nil {
				return err
			}
			printSuccess("Cleared cached feeds")
			if fc, ok := ch.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&current, "current", false, "only clear the feeds of the selected database")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			if cfg.Cache.RedisURL != "" {
				fmt.Fprintln(c.Out, cfg.Cache.RedisURL)
				return nil
			}
			dir := cfg.Cache.Dir
			if dir == "" {
				var err error
				if dir, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(c.Out, dir)
			return nil
		},
	}
}
