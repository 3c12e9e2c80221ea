package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/io"
	"github.com/matzehuels/stackdepth/pkg/scenario"
)

// analyzeOpts holds the output flags of the analyze command.
type analyzeOpts struct {
	inputs      inputFlags
	jsonOut     string
	baseline    string
	maxStack    int
	interactive bool
}

func (c *CLI) analyzeCommand() *cobra.Command {
	var opts analyzeOpts

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the worst-case stack usage of a firmware build",
		Long: `Analyze parses the .su and call-graph dumps of a build, resolves the
entry points and reports the deepest call path of every scenario.

An unbounded result means the firmware contains reachable recursion; it is
reported with the offending cycle. With --max-stack, an unbounded result or
a worst case above the budget fails the command.`,
		Example: `  stackdepth analyze --su-dir build --elf-file build/fw.elf --vector-table g_pfnVectors
  stackdepth analyze --cgraph-dir build --add-calls uart_callbacks.txt,rtos_hooks.txt --max-stack 4096
  stackdepth analyze --json report.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAnalyze(cmd, &opts)
		},
	}

	opts.inputs.register(cmd)
	cmd.Flags().StringVar(&opts.jsonOut, "json", "", "write a JSON report to FILE, or - for stdout")
	cmd.Flags().StringVar(&opts.baseline, "baseline", "", "compare against a previous JSON report")
	cmd.Flags().IntVar(&opts.maxStack, "max-stack", 0, "fail when the worst case exceeds N bytes or is unbounded")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse scenario results interactively")
	_ = cmd.MarkFlagFilename("json", "json")
	_ = cmd.MarkFlagFilename("baseline", "json")

	return cmd
}

func (c *CLI) runAnalyze(cmd *cobra.Command, opts *analyzeOpts) error {
	finished := stopwatch(c.Logger)
	res, cfg, err := opts.inputs.run(cmd, c)
	if err != nil {
		return err
	}

	budget := cfg.MaxStack
	if cmd.Flags().Changed("max-stack") {
		budget = opts.maxStack
	}
	if budget < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "--max-stack must not be negative")
	}

	quiet := opts.jsonOut == "-"
	if !quiet {
		printReport(res)
		if opts.baseline != "" {
			base, err := io.ImportJSON(opts.baseline)
			if err != nil {
				return err
			}
			printBaseline(compareBaseline(res.Report.Overall, base))
		}
	}

	switch opts.jsonOut {
	case "":
	case "-":
		if err := io.WriteJSON(res, os.Stdout); err != nil {
			return err
		}
	default:
		if err := io.ExportJSON(res, opts.jsonOut); err != nil {
			return err
		}
		printNewline()
		printSuccess("Report written")
		printFile(opts.jsonOut)
	}

	if opts.interactive {
		if _, err := tea.NewProgram(newScenarioModel(res)).Run(); err != nil {
			return err
		}
	}

	finished("Analysis complete")
	return checkBudget(res.Report.Overall, budget)
}

// checkBudget fails when limit is positive and the worst case is unbounded
// or larger than limit.
func checkBudget(worst scenario.Outcome, limit int) error {
	if limit <= 0 {
		return nil
	}
	if worst.Result.Unbounded || worst.Result.Total > limit {
		return &errors.BudgetExceededError{
			Limit:     limit,
			Worst:     worst.Result.Total,
			Unbounded: worst.Result.Unbounded,
			Scenario:  worst.Label,
		}
	}
	return nil
}

// baselineDelta compares the current worst case with a previous report.
type baselineDelta struct {
	RunID         string
	Before, After int

	WasUnbounded, Unbounded bool
}

func compareBaseline(cur scenario.Outcome, base *io.Report) baselineDelta {
	return baselineDelta{
		RunID:        base.RunID,
		Before:       base.Worst.Total,
		After:        cur.Result.Total,
		WasUnbounded: base.Worst.Unbounded,
		Unbounded:    cur.Result.Unbounded,
	}
}
