package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackdepth/pkg/analysis"
	"github.com/matzehuels/stackdepth/pkg/diag"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
	"github.com/matzehuels/stackdepth/pkg/reach"
	"github.com/matzehuels/stackdepth/pkg/scenario"
)

// printReport prints the human-readable analysis: the stage summaries, the
// per-scenario results, the optional reachability report, the overall
// result and finally the deferred warnings.
func printReport(res *pipeline.Result) {
	printStages(res)
	printScenarios(res.Report)
	if res.Reachability {
		printUncalled(res.Uncalled)
	}
	printOverall(res)
	printDeferred(res.Warnings)
}

// =============================================================================
// Stages
// =============================================================================

func printStages(res *pipeline.Result) {
	s := res.Stats
	printSuccess("Found stack usage for %s functions %s",
		StyleNumber.Render(fmt.Sprint(s.Functions)), StyleDim.Render(fmt.Sprintf("(%d .su files)", s.SUFiles)))
	printSuccess("Built call graph with %s calling functions and %d edges %s",
		StyleNumber.Render(fmt.Sprint(s.Callers)), s.Edges, StyleDim.Render(fmt.Sprintf("(%d dumps)", s.CGraphFiles)))
	if n := len(res.Unresolved); n > 0 {
		printDetail("%d call references could not be resolved (listed with --verbose)", n)
	}
	printSuccess("Entry points: %s", strings.Join(res.EntryPoints, ", "))
	if len(res.ISRs) > 0 {
		printDetail("%d interrupt handlers found in the vector table", len(res.ISRs))
	}

	for _, w := range res.Warnings.ByTier(diag.TierLocal) {
		printWarning("%s", w)
	}
}

// =============================================================================
// Scenarios
// =============================================================================

func printScenarios(rep *scenario.Report) {
	printSection("Scenario Results")
	fmt.Fprintln(stdout, scenarioTable(rep))
}

// scenarioTable renders one row per scenario. Unbounded rows are red.
func scenarioTable(rep *scenario.Report) string {
	rows := make([][]string, 0, len(rep.Scenarios))
	for _, o := range rep.Scenarios {
		entry := o.Entry
		if entry == "" {
			entry = "—"
		}
		rows = append(rows, []string{o.Label, entry, formatWorst(o.Result), fmt.Sprint(o.Edges)})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Scenario", "Entry", "Worst case", "Added calls").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cell.Inherit(styleHeader)
			case rep.Scenarios[row].Result.Unbounded && col == 2:
				return cell.Foreground(colorBad).Bold(true)
			case rep.Scenarios[row].Label == rep.Overall.Label:
				return cell.Foreground(colorAccent)
			default:
				return cell
			}
		}).
		Render()
}

// formatWorst formats a result for tables and summaries.
func formatWorst(r analysis.Result) string {
	if r.Unbounded {
		return "unbounded (recursion)"
	}
	return fmt.Sprintf("%d bytes", r.Total)
}

// =============================================================================
// Reachability
// =============================================================================

func printUncalled(u []reach.Uncalled) {
	printSection("Potentially Uncalled Functions")
	if len(u) == 0 {
		printInfo("All functions with stack usage are called, are entry points, or are added by a scenario.")
		return
	}
	printInfo("%d functions (%d bytes) have stack usage but no caller, are not entry points,", len(u), reach.Bytes(u))
	printDetail("and are not added by any scenario. They may be callbacks missing from --add-calls, or dead code.")
	fmt.Fprintln(stdout, uncalledTable(u))
}

func uncalledTable(u []reach.Uncalled) string {
	rows := make([][]string, 0, len(u))
	for _, f := range u {
		raw := f.RawName
		if raw == f.Name {
			raw = ""
		}
		rows = append(rows, []string{f.Name, fmt.Sprint(f.Size), raw})
	}

	cell := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("Function", "Bytes", "As compiled").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return cell.Inherit(styleHeader)
			case col == 1:
				return cell.Align(lipgloss.Right)
			case col == 2:
				return cell.Inherit(StyleDim)
			default:
				return cell
			}
		}).
		Render()
}

// =============================================================================
// Overall Result
// =============================================================================

func printOverall(res *pipeline.Result) {
	printSection("Overall Analysis Final Result")
	overall := res.Report.Overall
	if overall.Label == scenario.NoneLabel && len(overall.Result.Path) == 0 {
		printError("Could not determine any valid call path")
		return
	}

	printKeyValue("Scenario", overall.Label)
	printKeyValue("Entry point", overall.Entry)
	if overall.Result.Unbounded {
		printError("Recursion detected: worst-case stack usage is unbounded")
		printDetail("Recursive cycle:")
		fmt.Fprintln(stdout, "  "+StyleDanger.Render(strings.Join(overall.Result.Cycle, " -> ")))
		printDetail("Reached via:")
		fmt.Fprintln(stdout, "  "+strings.Join(overall.Result.Path, " -> "))
		return
	}

	printKeyValue("Worst case", StyleNumber.Render(fmt.Sprintf("%d bytes", overall.Result.Total)))
	printNewline()
	printInfo("Worst-case call path (function, size, cumulative):")
	for _, line := range pathLines(analysis.Breakdown(overall.Result.Path, res.Table)) {
		fmt.Fprintln(stdout, "  "+line)
	}
}

// pathLines formats a breakdown with one extra indent step per frame.
func pathLines(frames []analysis.Frame) []string {
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = fmt.Sprintf("%s%s (size: %d, total: %d)", strings.Repeat("  ", i), f.Function, f.Size, f.Cumulative)
	}
	return lines
}

// =============================================================================
// Warnings & Baseline
// =============================================================================

func printDeferred(w *diag.Warnings) {
	deferred := w.ByTier(diag.TierDeferred)
	if len(deferred) == 0 {
		return
	}
	printSection("Analysis Warnings")
	for _, d := range deferred {
		printWarning("%s", d)
	}
}

func printBaseline(d baselineDelta) {
	printNewline()
	printKeyValue("Baseline", baselineLine(d))
}

func baselineLine(d baselineDelta) string {
	before := fmt.Sprintf("%d bytes", d.Before)
	if d.WasUnbounded {
		before = "unbounded"
	}
	switch {
	case d.Unbounded:
		return before + " -> unbounded"
	case d.WasUnbounded:
		return fmt.Sprintf("%s -> %d bytes", before, d.After)
	default:
		return fmt.Sprintf("%s -> %d bytes (%+d)", before, d.After, d.After-d.Before)
	}
}
