package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/errors"
	"github.com/matzehuels/stackdepth/pkg/observability"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
	"github.com/matzehuels/stackdepth/pkg/render/nodelink"
)

const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
)

var graphFormats = []string{formatDOT, formatSVG, formatPNG}

// graphOpts holds the flags of the graph command.
type graphOpts struct {
	inputs   inputFlags
	scenario string
	output   string
	format   string
	detailed bool
}

func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Draw the call graph as DOT, SVG or PNG",
		Long: `Graph runs the analysis and draws the base call graph.

With --scenario, the scenario's added calls are drawn dashed and its worst
path (or recursion cycle) is highlighted.`,
		Example: `  stackdepth graph --su-dir build -o callgraph.dot
  stackdepth graph --su-dir build --add-calls rx.txt --scenario rx.txt -f svg -o rx.svg`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(graphFormats, opts.format) {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want %s)", opts.format, strings.Join(graphFormats, ", "))
			}
			return c.runGraph(cmd, &opts)
		},
	}

	opts.inputs.register(cmd)
	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "scenario label to overlay and highlight")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(graphFormats, ", "))
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with their frame sizes")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(graphFormats, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, opts *graphOpts) error {
	res, _, err := opts.inputs.run(cmd, c)
	if err != nil {
		return err
	}

	dopts, err := graphOptions(res, opts.scenario)
	if err != nil {
		return err
	}
	dopts.Detailed = opts.detailed
	dot := nodelink.ToDOT(res.Graph, dopts)

	ctx := cmd.Context()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.format, res.Graph.Len())
	start := time.Now()
	var data []byte
	switch opts.format {
	case formatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case formatPNG:
		data, err = nodelink.RenderPNG(ctx, dot)
	default:
		data = []byte(dot)
	}
	hooks.OnRenderComplete(ctx, opts.format, time.Since(start), err)
	if err != nil {
		return err
	}

	if opts.output == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Call graph written %s", StyleDim.Render(fmt.Sprintf("(%d callers, %d edges)", res.Stats.Callers, res.Stats.Edges)))
	printFile(opts.output)
	if opts.format == formatDOT {
		printNextStep("Render", "dot -Tsvg "+opts.output)
	}
	return nil
}

// graphOptions selects the overlay and highlight for label. An empty label
// draws the base graph alone.
func graphOptions(res *pipeline.Result, label string) (nodelink.Options, error) {
	opts := nodelink.Options{Sizes: res.Table}
	if label == "" {
		return opts, nil
	}

	sc, ok := res.Scenario(label)
	outcome, found := res.Report.Find(label)
	if !ok || !found {
		labels := make([]string, len(res.Scenarios))
		for i, s := range res.Scenarios {
			labels[i] = s.Label
		}
		return opts, errors.New(errors.ErrCodeScenarioNotFound, "no scenario %q (have: %s)", label, strings.Join(labels, ", "))
	}

	opts.Overlay = sc.Additions.Overlay()
	opts.Highlight = outcome.Result.Path
	if outcome.Result.Unbounded {
		opts.Highlight = outcome.Result.Cycle
	}
	return opts, nil
}
