package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Rocket457/identificar-e-formatar-queries/internal/extract"
)

// ErrRootNotDir is returned when the scan root is not a directory.
var ErrRootNotDir = errors.New("scan root is not a directory")

// sniffLen is how much of a file is inspected for NUL bytes.
const sniffLen = 8000

// defaultExcludedDirs are never descended into.
var defaultExcludedDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"vendor":       {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	".next":        {},
	"dist":         {},
	"build":        {},
	"target":       {},
	".idea":        {},
	".vscode":      {},
}

// Source is a file selected for extraction.
type Source struct {
	// Path is the path used to read the file.
	Path string
	// Rel is the slash-separated path relative to the scan root.
	Rel   string
	Ext   string
	Style extract.Style
}

// Discover lists the files under root to extract from, in lexical order.
func (e *Engine) Discover(ctx context.Context, root string) ([]Source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrRootNotDir, root)
	}

	if e.cfg.GitOnly {
		return e.discoverGit(ctx, root)
	}

	outDir := e.out.Dir()
	var sources []Source
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if os.IsPermission(walkErr) {
				e.log.Warn("permission denied", "path", path)
				return nil
			}
			return walkErr
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := defaultExcludedDirs[d.Name()]; skip {
				return fs.SkipDir
			}
			if abs, err := filepath.Abs(path); err == nil && abs == outDir {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if src, ok := e.selectFile(path, filepath.ToSlash(rel)); ok {
			sources = append(sources, src)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return sources, nil
}

func (e *Engine) discoverGit(ctx context.Context, root string) ([]Source, error) {
	tracked, err := gitTrackedFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	slices.Sort(tracked)

	outDir := e.out.Dir()
	var sources []Source
	for _, rel := range tracked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if inExcludedDir(rel) {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		if abs, err := filepath.Abs(path); err == nil && strings.HasPrefix(abs, outDir+string(filepath.Separator)) {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			// Deleted in the worktree, or a submodule.
			continue
		}
		if src, ok := e.selectFile(path, rel); ok {
			sources = append(sources, src)
		}
	}
	return sources, nil
}

// selectFile applies the extension, glob and binary filters.
func (e *Engine) selectFile(path, rel string) (Source, bool) {
	ext := strings.ToLower(filepath.Ext(rel))
	if !slices.Contains(e.cfg.Extensions, ext) {
		return Source{}, false
	}
	if len(e.include) > 0 && !matchAny(e.include, rel) {
		return Source{}, false
	}
	if matchAny(e.exclude, rel) {
		return Source{}, false
	}
	if isBinaryFile(path) {
		e.log.Debug("binary file skipped", "path", rel)
		return Source{}, false
	}
	return Source{Path: path, Rel: rel, Ext: ext, Style: e.styleFor(ext)}, true
}

// styleFor resolves the host style of ext, honoring configured overrides.
func (e *Engine) styleFor(ext string) extract.Style {
	if name, ok := e.cfg.Hosts[ext]; ok {
		if s, err := extract.ParseStyle(name); err == nil {
			return s
		}
	}
	return extract.StyleForExt(ext)
}

func inExcludedDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if _, ok := defaultExcludedDirs[dir]; ok {
			return true
		}
	}
	return false
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile glob %q: %w", pattern, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func matchAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// isBinaryFile reports whether the head of the file holds a NUL byte.
// Unreadable files are not binary; reading them fails later.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false
	}
	return bytes.IndexByte(buf[:n], 0) >= 0
}
