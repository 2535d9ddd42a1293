package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/wsbuild/pkg/workspace"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for wsbuild.

To load completions:

Bash:
  $ source <(wsbuild completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ wsbuild completion bash > /etc/bash_completion.d/wsbuild
  # macOS:
  $ wsbuild completion bash > $(brew --prefix)/etc/bash_completion.d/wsbuild

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ wsbuild completion zsh > "${fpath[1]}/_wsbuild"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ wsbuild completion fish | source

  # To load completions for each session, execute once:
  $ wsbuild completion fish > ~/.config/fish/completions/wsbuild.fish

PowerShell:
  PS> wsbuild completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> wsbuild completion powershell > wsbuild.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completePackages completes package names of the workspace selected by
// the flags given so far. Discovery errors yield no suggestions.
func (c *CLI) completePackages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ws, err := c.ws.resolved()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	pkgs, err := workspace.FindPackages(cmd.Context(), ws.basePath, workspace.DiscoverOptions{
		Exclude: []string{ws.buildSpace, ws.installSpace},
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, path := range pkgs.Paths() {
		names = append(names, pkgs[path].Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// registerPackageCompletion completes the selection flags of cmd with
// package names.
func (c *CLI) registerPackageCompletion(cmd *cobra.Command, flags ...string) {
	for _, name := range flags {
		if cmd.Flags().Lookup(name) != nil {
			_ = cmd.RegisterFlagCompletionFunc(name, c.completePackages)
		}
	}
}
