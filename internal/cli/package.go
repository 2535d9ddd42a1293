package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wsbuild/pkg/errors"
	"github.com/matzehuels/wsbuild/pkg/manifest"
	"github.com/matzehuels/wsbuild/pkg/testresult"
)

// =============================================================================
// package-name / package-version
// =============================================================================

func (c *CLI) packageNameCommand() *cobra.Command {
	return c.manifestFieldCommand("package-name", "Print the name of the package in a directory",
		func(p *manifest.Package) string { return p.Name })
}

func (c *CLI) packageVersionCommand() *cobra.Command {
	return c.manifestFieldCommand("package-version", "Print the version of the package in a directory",
		func(p *manifest.Package) string { return p.Version })
}

func (c *CLI) manifestFieldCommand(use, short string, field func(*manifest.Package) string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [PATH]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			pkg, err := manifest.DefaultRegistry().Parse(dir)
			if err != nil {
				return err
			}
			c.Logger.Debug("Read manifest", "file", pkg.Filename, "format", pkg.Format)
			fmt.Fprintln(cmd.OutOrStdout(), field(pkg))
			return nil
		},
	}
}

// =============================================================================
// test-results
// =============================================================================

func (c *CLI) testResultsCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "test-results [PATH]",
		Short: "Summarize the JUnit reports of the last test run",
		Long: `Read every JUnit XML report below PATH (default: the build space) and
print the ones with errors or failures, followed by the totals.

Exits with an error when any test errored or failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			} else {
				ws, err := c.ws.resolved()
				if err != nil {
					return err
				}
				root = ws.buildSpace
			}

			results, err := testresult.Collect(cmd.Context(), root, c.Logger)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "read test results in %s", root)
			}

			out := cmd.OutOrStdout()
			var total testresult.Counts
			for _, r := range results {
				total.Add(r.Counts)
				switch {
				case r.Unstable():
					printError(out, "%s: %s", r.Path, r.Counts)
				case all:
					printSuccess(out, "%s: %s", r.Path, r.Counts)
				}
			}
			printInfo(out, "Summary: %s", total)
			if total.Unstable() {
				return errors.New(errors.ErrCodePackageFailed,
					"test results contain %d errors and %d failures", total.Errors, total.Failures)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also show reports without errors or failures")
	return cmd
}
