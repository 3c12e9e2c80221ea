package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The CLI's logger is attached to every command context and can be read
// back with loggerFromContext.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stackdepth computes worst-case stack usage of embedded firmware",
		Long: `Stackdepth statically bounds the stack usage of a firmware image.

It combines the per-function frame sizes GCC writes with -fstack-usage and
the call graph it dumps with -fdump-ipa-cgraph, then searches every entry
point (main, tasks and the interrupt handlers of the ELF vector table) for
the deepest call path. Callbacks the compiler cannot see are supplied as
scenario files; each scenario is analyzed on its own.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
