package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// completions maps each supported shell to its cobra generator.
var completions = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash": func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":  func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish": func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(w)
	},
}

func (c *CLI) completionCommand() *cobra.Command {
	shells := slices.Sorted(maps.Keys(completions))

	return &cobra.Command{
		Use:   fmt.Sprintf("completion [%s]", strings.Join(shells, "|")),
		Short: "Generate shell completion scripts",
		Long: fmt.Sprintf(`Generate shell completion scripts for %[1]s.

Load completions into the current shell:

  bash        $ source <(%[1]s completion bash)
  zsh         $ source <(%[1]s completion zsh)
  fish        $ %[1]s completion fish | source
  powershell  PS> %[1]s completion powershell | Out-String | Invoke-Expression

To load them for every session, write the script to your shell's
completion directory, for example:

  $ %[1]s completion bash > /etc/bash_completion.d/%[1]s
  $ %[1]s completion zsh > "${fpath[1]}/_%[1]s"
`, appName),
		DisableFlagsInUseLine: true,
		ValidArgs:             shells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completions[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}
