// Package ingest drives an extraction run: it discovers source files,
// extracts query records from them and persists each accepted record as a
// formatted query file.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	billy "github.com/go-git/go-billy/v5"
	"github.com/gobwas/glob"
	"golang.org/x/sync/errgroup"

	"github.com/Rocket457/identificar-e-formatar-queries/api"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/extract"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/format"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/index"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/naming"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/output"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/sqlcheck"
)

// Catalog receives run metadata and every written query.
type Catalog interface {
	BeginRun(root string, d api.Dialect) (string, error)
	AddQuery(runID string, e index.Entry) error
}

// Output is a persisted record and the slot it was written to.
type Output struct {
	Slot   string
	Record extract.QueryRecord
}

// Result summarizes a run.
type Result struct {
	// Records holds every accepted record in discovery order.
	Records       []extract.QueryRecord
	Written       []Output
	FilesScanned  int
	FilesFailed   int
	RecordsFailed int
	Duplicates    int
	// OutputDir is the absolute path of the output directory.
	OutputDir string
}

// Engine runs extractions for one configuration.
type Engine struct {
	cfg      api.Config
	out      *output.Writer
	log      *slog.Logger
	catalog  Catalog
	echo     io.Writer
	readFile func(string) ([]byte, error)

	include []glob.Glob
	exclude []glob.Glob
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithCatalog records every written query in c.
func WithCatalog(c Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithEcho prints every written query to w, grouped by file.
func WithEcho(w io.Writer) Option {
	return func(e *Engine) { e.echo = w }
}

// WithReadFile replaces the function used to read source files.
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(e *Engine) { e.readFile = fn }
}

// NewEngine returns an engine writing output files under cfg.OutputDir on fsys.
// cfg is expected to have passed config.Validate.
func NewEngine(cfg api.Config, fsys billy.Filesystem, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:      cfg,
		out:      output.NewWriter(fsys, cfg.OutputDir),
		log:      slog.Default(),
		readFile: os.ReadFile,
	}
	if e.cfg.Workers < 1 {
		e.cfg.Workers = 1
	}
	if e.cfg.OutputExt == "" {
		e.cfg.OutputExt = ".sql"
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	if e.include, err = compileGlobs(cfg.Include); err != nil {
		return nil, err
	}
	if e.exclude, err = compileGlobs(cfg.Exclude); err != nil {
		return nil, err
	}
	return e, nil
}

// OutputDir returns the absolute path of the output directory.
func (e *Engine) OutputDir() string { return e.out.Dir() }

// ExtractSource reads one file and returns its accepted records in file order.
func (e *Engine) ExtractSource(src Source) ([]extract.QueryRecord, error) {
	data, err := e.readFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src.Path, err)
	}
	records := extract.Extract(string(data), src.Style)
	for i := range records {
		records[i].SourcePath = src.Rel
	}
	return records, nil
}

type extraction struct {
	records []extract.QueryRecord
	err     error
}

// Run scans root and writes one file per accepted record. Unreadable files
// and records that fail to persist are logged and skipped; a discovery
// failure or a cancelled context aborts the run.
func (e *Engine) Run(ctx context.Context, root string) (*Result, error) {
	sources, err := e.Discover(ctx, root)
	if err != nil {
		return nil, err
	}
	e.log.Debug("discovery complete", "root", root, "files", len(sources))

	// Extraction is pure per file and may run in parallel; results are
	// consumed in discovery order below.
	results := make([]extraction, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			recs, err := e.ExtractSource(src)
			results[i] = extraction{records: recs, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	runID := ""
	if e.catalog != nil {
		if runID, err = e.catalog.BeginRun(root, e.cfg.Dialect); err != nil {
			return nil, fmt.Errorf("catalog run: %w", err)
		}
	}

	res := &Result{OutputDir: e.out.Dir()}
	table := naming.NewTable()
	seen := make(map[string]bool)

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ex := results[i]
		if ex.err != nil {
			res.FilesFailed++
			e.log.Warn("file skipped", "path", src.Rel, "err", ex.err)
			continue
		}
		res.FilesScanned++
		echoed := false

		for _, rec := range ex.records {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			if e.cfg.Dedupe {
				key := rec.FunctionName + "\x00" + rec.CleanedQuery
				if seen[key] {
					res.Duplicates++
					continue
				}
				seen[key] = true
			}
			res.Records = append(res.Records, rec)

			slot, formatted, err := e.persist(ctx, runID, table, rec)
			if err != nil {
				res.RecordsFailed++
				e.log.Warn("record skipped", "function", rec.FunctionName, "path", rec.SourcePath, "err", err)
				continue
			}
			if e.echo != nil {
				if !echoed {
					fmt.Fprintf(e.echo, "Queries found in file: %s\n", src.Rel)
					echoed = true
				}
				fmt.Fprintf(e.echo, "%s\n---\n", formatted)
			}
			res.Written = append(res.Written, Output{Slot: slot, Record: rec})
		}
	}

	e.log.Info("run complete",
		"files", res.FilesScanned,
		"failed_files", res.FilesFailed,
		"written", len(res.Written),
		"failed_records", res.RecordsFailed,
		"output", res.OutputDir,
	)
	return res, nil
}

// persist formats rec, writes it to a fresh slot and catalogs it. It returns
// the slot and the formatted query.
func (e *Engine) persist(ctx context.Context, runID string, table *naming.Table, rec extract.QueryRecord) (string, string, error) {
	formatted, err := format.Format(rec.CleanedQuery, e.cfg.Dialect)
	if err != nil {
		return "", "", fmt.Errorf("format: %w", err)
	}

	var diags []sqlcheck.Diagnostic
	if e.cfg.Check {
		diags = sqlcheck.Check(ctx, rec.CleanedQuery)
	}

	slot, err := table.Place(rec.FunctionName, e.cfg.OutputExt, []byte(output.Render(rec, formatted)), e.out)
	if err != nil {
		return "", "", err
	}
	e.log.Debug("query written", "slot", slot, "function", rec.FunctionName, "path", rec.SourcePath)

	notes := make([]string, 0, len(diags))
	for _, d := range diags {
		e.log.Warn("query diagnostic", "slot", slot, "rule", string(d.Rule), "line", d.Line+1, "msg", d.Message)
		notes = append(notes, d.String())
	}

	if e.catalog != nil {
		entry := index.Entry{
			Slot:         slot,
			Function:     rec.FunctionName,
			Description:  rec.Description,
			SourcePath:   rec.SourcePath,
			Line:         rec.Line,
			Offset:       rec.Offset,
			RawQuery:     rec.RawQuery,
			CleanedQuery: rec.CleanedQuery,
			Formatted:    formatted,
			Diagnostics:  notes,
		}
		// The file is already written; a catalog failure does not undo it.
		if err := e.catalog.AddQuery(runID, entry); err != nil {
			e.log.Warn("catalog insert failed", "slot", slot, "err", err)
		}
	}
	return slot, formatted, nil
}
