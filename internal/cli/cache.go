package cli

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsbuild/pkg/cache"
)

// cleanCacheCommand removes the per-package configuration caches that
// decide whether a package is reconfigured.
func (c *CLI) cleanCacheCommand() *cobra.Command {
	var history bool
	cmd := &cobra.Command{
		Use:   "clean-cache",
		Short: "Remove the cached build configuration of every package",
		Long: `Remove the *.cache files kept in each package's build directory, so the
next build configures every package again.

With --history the per-user record of past runs is removed as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ws, err := c.ws.resolved()
			if err != nil {
				return err
			}

			dirs, err := os.ReadDir(ws.buildSpace)
			if os.IsNotExist(err) {
				printInfo(out, "Build space %s does not exist", ws.buildSpace)
				dirs = nil
			} else if err != nil {
				return err
			}

			count := 0
			for _, d := range dirs {
				if !d.IsDir() {
					continue
				}
				keys, err := cache.NewBuildSpaceCache(filepath.Join(ws.buildSpace, d.Name())).Clear()
				if err != nil {
					return err
				}
				if len(keys) > 0 {
					c.Logger.Debug("cleared cache", "package", d.Name(), "keys", keys)
				}
				count += len(keys)
			}
			printSuccess(out, "Cleared %s", english.Plural(count, "cache entry", "cache entries"))
			printDetail(out, "Directory: %s", ws.buildSpace)

			if history {
				dir, err := cacheDir()
				if err != nil {
					return err
				}
				if err := os.RemoveAll(dir); err != nil {
					return err
				}
				printSuccess(out, "Removed run history")
				printDetail(out, "Directory: %s", dir)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "also remove the record of past runs")
	return cmd
}
