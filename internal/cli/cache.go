package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/distcache/pkg/cache"
	"github.com/matzehuels/distcache/pkg/httputil"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the install cache and index response cache",
	}

	cmd.AddCommand(c.cachePathCommand())
	cmd.AddCommand(c.cacheListCommand())
	cmd.AddCommand(c.cacheClearCommand())

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	var responses bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			get := c.installCacheDir
			if responses {
				get = httputil.DefaultDir
			}
			dir, err := get()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&responses, "responses", false, "print the index response cache instead")
	return cmd
}

// cacheListCommand creates the "cache list" subcommand.
func (c *CLI) cacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached distributions",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			dir, err := c.openInstallCache()
			if err != nil {
				return err
			}
			if dir == nil {
				printInfo(w, "Cache is empty")
				return nil
			}

			entries, err := dir.Entries()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo(w, "Cache is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(w, e)
			}
			return nil
		},
	}
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var responsesOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached distributions and index responses",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			if !responsesOnly {
				dir, err := c.openInstallCache()
				if err != nil {
					return err
				}
				if dir == nil {
					printInfo(w, "Install cache is empty")
				} else {
					n, err := dir.Clear()
					if err != nil {
						return fmt.Errorf("clear install cache: %w", err)
					}
					printSuccess(w, "Cleared %d cached distributions", n)
					printDetail(w, "Directory: %s", dir.Path())
				}
			}

			rc, err := httputil.NewCache("", 0)
			if err != nil {
				printWarning(w, "Response cache unavailable: %v", err)
				return nil
			}
			n, err := rc.Clear()
			if err != nil {
				return fmt.Errorf("clear response cache: %w", err)
			}
			printSuccess(w, "Cleared %d cached index responses", n)
			printDetail(w, "Directory: %s", rc.Dir())
			return nil
		},
	}

	cmd.Flags().BoolVar(&responsesOnly, "responses", false, "only clear the index response cache")
	return cmd
}

// openInstallCache opens the configured install cache without creating
// it. A nil Dir means the directory does not exist yet.
func (c *CLI) openInstallCache() (*cache.Dir, error) {
	path, err := c.installCacheDir()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return cache.Open(path)
}
