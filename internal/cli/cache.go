package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/radialtree/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout cache",
	}

	cmd.AddCommand(c.cachePruneCommand("clear", "Remove every cached tree, layout and export", true))
	cmd.AddCommand(c.cachePruneCommand("prune", "Remove expired cache entries", false))
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cachePruneCommand creates "cache clear" (all) or "cache prune".
func (c *CLI) cachePruneCommand(use, short string, all bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache()
			if err != nil {
				return err
			}
			n, err := fc.Prune(cmd.Context(), all)
			if err != nil {
				return fmt.Errorf("%s cache: %w", use, err)
			}
			if n == 0 {
				printInfo("Nothing to remove")
				return nil
			}
			printSuccess("Removed %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cache.DefaultDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

func openFileCache() (*cache.FileCache, error) {
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	return cache.NewFileCache(dir)
}
