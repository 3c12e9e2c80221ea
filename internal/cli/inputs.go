package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackdepth/pkg/config"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
)

// inputFlags are the analysis inputs shared by analyze and graph.
// Values given on the command line override the project file.
type inputFlags struct {
	configPath  string
	elfFile     string
	suDirs      []string
	cgraphDirs  []string
	startFunc   string
	vectorTable string
	ignoreCalls string
	addCalls    []string
	debug       bool
	noCache     bool
	refresh     bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "project file (default: ./"+config.FileName+" when present)")
	fs.StringVar(&f.elfFile, "elf-file", "", "linked ELF image holding the vector table")
	fs.StringSliceVar(&f.suDirs, "su-dir", nil, "directories with .su files (default: --cgraph-dir)")
	fs.StringSliceVar(&f.cgraphDirs, "cgraph-dir", nil, "directories with .cgraph/.ipa dumps (default: --su-dir)")
	fs.StringVar(&f.startFunc, "start-func", pipeline.DefaultEntryPoint, "comma-separated entry points, e.g. main,task1")
	fs.StringVar(&f.vectorTable, "vector-table", "", "vector table symbol whose handlers become entry points, e.g. g_pfnVectors")
	fs.StringVar(&f.ignoreCalls, "ignore-calls", "", "file of caller,callee pairs to drop from the call graph")
	fs.StringSliceVar(&f.addCalls, "add-calls", nil, "scenario files of caller,callee pairs, one scenario each")
	fs.BoolVar(&f.debug, "debug", false, "report functions with stack usage but no caller")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the parse cache")
	fs.BoolVar(&f.refresh, "refresh", false, "reparse every file, ignoring cached results")

	for _, name := range []string{"config", "elf-file", "ignore-calls", "add-calls"} {
		_ = cmd.MarkFlagFilename(name)
	}
	_ = cmd.MarkFlagDirname("su-dir")
	_ = cmd.MarkFlagDirname("cgraph-dir")
}

// loadConfig reads the project file named by --config, or the one in the
// working directory. Without either it returns an empty config.
func (f *inputFlags) loadConfig() (*config.Config, error) {
	path := f.configPath
	if path == "" {
		path = config.Find(".")
	}
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// options merges cfg with the flags changed on cmd.
func (f *inputFlags) options(cmd *cobra.Command, cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		ELFFile:      cfg.ELFFile,
		SUDirs:       cfg.SUDirs,
		CGraphDirs:   cfg.CGraphDirs,
		EntryPoints:  cfg.EntryPoints,
		VectorTable:  cfg.VectorTable,
		IgnoreFile:   cfg.IgnoreCalls,
		AddCallFiles: cfg.AddCalls,
		Reachability: cfg.Debug,
		Refresh:      f.refresh,
	}

	changed := cmd.Flags().Changed
	if changed("elf-file") {
		opts.ELFFile = f.elfFile
	}
	if changed("su-dir") {
		opts.SUDirs = f.suDirs
	}
	if changed("cgraph-dir") {
		opts.CGraphDirs = f.cgraphDirs
	}
	if changed("start-func") || len(opts.EntryPoints) == 0 {
		opts.EntryPoints = strings.Split(f.startFunc, ",")
	}
	if changed("vector-table") {
		opts.VectorTable = f.vectorTable
	}
	if changed("ignore-calls") {
		opts.IgnoreFile = f.ignoreCalls
	}
	if changed("add-calls") {
		opts.AddCallFiles = f.addCalls
	}
	if changed("debug") {
		opts.Reachability = f.debug
	}
	return opts
}

// run loads the configuration, executes the pipeline and closes the runner.
func (f *inputFlags) run(cmd *cobra.Command, c *CLI) (*pipeline.Result, *config.Config, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded project file", "path", cfg.Path)
	}

	ctx := cmd.Context()
	opts := f.options(cmd, cfg)
	opts.Logger = loggerFromContext(ctx)

	runner := c.newRunner(ctx, cfg, f.noCache)
	defer runner.Close()

	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("parse cache", "hits", res.CacheInfo.Hits, "misses", res.CacheInfo.Misses)
	return res, cfg, nil
}
