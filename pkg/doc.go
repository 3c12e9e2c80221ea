// Package pkg holds the stackdepth libraries.
//
// # Overview
//
// Stackdepth bounds the worst-case stack usage of embedded firmware from the
// artifacts GCC already produces: per-function frame sizes (-fstack-usage)
// and call-graph dumps (-fdump-ipa-cgraph). The packages fall into three
// groups:
//
//  1. Inputs: [stackusage], [callgraph], [annotation], [vector], [source]
//     and [config] parse build artifacts, scenario files, the ELF vector
//     table and the project file.
//  2. Analysis: [analysis] runs the worst-case search, [scenario] evaluates
//     each callback scenario and [reach] reports functions with no caller.
//  3. Orchestration and output: [pipeline] runs the stages with a parse
//     [cache]; [io] writes JSON reports and [render/nodelink] draws the graph.
//
// # Data Flow
//
//	.su files ──► stackusage.Table ─┐
//	.cgraph dumps ──► callgraph.Graph ├──► scenario.Engine ──► analysis.Analyzer
//	ELF vector table ──► entry points ┘          ▲
//	scenario files ──► annotation.Set ───────────┘
//
// # Quick Start
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{SUDirs: []string{"build"}})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Report.Overall.Result)
package pkg
