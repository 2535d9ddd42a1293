package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsbuild/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "wsbuild builds workspaces of interdependent packages",
		Long: `wsbuild discovers the packages of a workspace, orders them by their
dependencies and builds, tests or uninstalls them one after another or in
parallel, using the build system each package declares.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := loadConfig(configPath(c.configPath))
			if err != nil {
				return err
			}
			c.config = cfg
			if err := cfg.apply(cmd.Flags()); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&c.configPath, "config", "", "workspace config file (default $"+configEnv+" or ./"+configFile+")")
	pf.AddFlagSet(c.ws.flagSet())

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.testCommand())
	root.AddCommand(c.uninstallCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.testResultsCommand())
	root.AddCommand(c.packageNameCommand())
	root.AddCommand(c.packageVersionCommand())
	root.AddCommand(c.cleanCacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
