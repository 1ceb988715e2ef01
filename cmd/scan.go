package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/Rocket457/identificar-e-formatar-queries/api"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/config"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/index"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/ingest"
)

type scanOptions struct {
	configPath   string
	out          string
	dialect      string
	tabWidth     int
	linesBetween int
	exts         []string
	include      []string
	exclude      []string
	gitOnly      bool
	dedupe       bool
	workers      int
	indexPath    string
	check        bool
	print        bool
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Scan a directory and write one .sql file per embedded query",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runScan(cmd, root, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	f.StringVarP(&opts.out, "out", "o", "", "Output directory (default queries_output)")
	f.StringVar(&opts.dialect, "dialect", "", "SQL dialect used for formatting")
	f.IntVar(&opts.tabWidth, "tab-width", 0, "Spaces per indentation level")
	f.IntVar(&opts.linesBetween, "lines-between", 0, "Blank lines between statements in one query")
	f.StringSliceVar(&opts.exts, "ext", nil, "File extensions to scan (e.g. .sql,.java)")
	f.StringSliceVar(&opts.include, "include", nil, "Only scan paths matching these globs")
	f.StringSliceVar(&opts.exclude, "exclude", nil, "Skip paths matching these globs")
	f.BoolVar(&opts.gitOnly, "git", false, "Only scan files tracked by git")
	f.BoolVar(&opts.dedupe, "dedupe", true, "Drop repeated queries of the same function (--dedupe=false keeps them)")
	f.IntVarP(&opts.workers, "workers", "j", 0, "Parallel file readers")
	f.StringVar(&opts.indexPath, "index", "", "Catalog written queries in this SQLite file")
	f.BoolVar(&opts.check, "check", false, "Report SQL syntax diagnostics")
	f.BoolVar(&opts.print, "print", false, "Also print each formatted query to stdout")
	return cmd
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, opts *scanOptions, cfg *api.Config) {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.OutputDir = opts.out
	}
	if f.Changed("dialect") {
		cfg.Dialect.Language = opts.dialect
	}
	if f.Changed("tab-width") {
		cfg.Dialect.TabWidth = opts.tabWidth
	}
	if f.Changed("lines-between") {
		cfg.Dialect.LinesBetweenQueries = opts.linesBetween
	}
	if f.Changed("ext") {
		cfg.Extensions = opts.exts
	}
	if f.Changed("include") {
		cfg.Include = opts.include
	}
	if f.Changed("exclude") {
		cfg.Exclude = opts.exclude
	}
	if f.Changed("git") {
		cfg.GitOnly = opts.gitOnly
	}
	if f.Changed("dedupe") {
		cfg.Dedupe = opts.dedupe
	}
	if f.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if f.Changed("index") {
		cfg.IndexPath = opts.indexPath
	}
	if f.Changed("check") {
		cfg.Check = opts.check
	}
}

func runScan(cmd *cobra.Command, root string, opts *scanOptions) (err error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, &cfg)
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}
	cfg.OutputDir = outDir

	engineOpts := []ingest.Option{ingest.WithLogger(slog.Default())}
	if opts.print {
		engineOpts = append(engineOpts, ingest.WithEcho(cmd.OutOrStdout()))
	}
	if cfg.IndexPath != "" {
		catalog, err := index.NewWriter(cfg.IndexPath)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, catalog.Close()) }()
		engineOpts = append(engineOpts, ingest.WithCatalog(catalog))
	}

	engine, err := ingest.NewEngine(cfg, osfs.New(string(filepath.Separator)), engineOpts...)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := engine.Run(cmd.Context(), root)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%d queries written to %s\n", len(res.Written), res.OutputDir)
	if res.FilesFailed > 0 || res.RecordsFailed > 0 {
		fmt.Fprintf(w, "%d files and %d queries skipped, see log\n", res.FilesFailed, res.RecordsFailed)
	}
	slog.Debug("scan finished", "elapsed", time.Since(start))
	return nil
}
