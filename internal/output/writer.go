// Package output persists formatted queries as .sql files in an output
// directory, one file per slot.
package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	billy "github.com/go-git/go-billy/v5"

	"github.com/Rocket457/identificar-e-formatar-queries/internal/extract"
)

// NoDescription replaces an empty description in the file header.
const NoDescription = "No description available"

// Render builds the file body for a record and its formatted query.
func Render(rec extract.QueryRecord, formatted string) string {
	desc := rec.Description
	if desc == "" {
		desc = NoDescription
	}
	var b strings.Builder
	fmt.Fprintf(&b, "-- Function: %s\n", rec.FunctionName)
	fmt.Fprintf(&b, "-- Description: %s\n\n", desc)
	b.WriteString(strings.TrimRight(formatted, "\n"))
	b.WriteByte('\n')
	return b.String()
}

// Writer stores slots under dir on a billy filesystem. It satisfies
// naming.Store.
type Writer struct {
	fs    billy.Filesystem
	dir   string
	ready bool
}

// NewWriter returns a writer for dir, relative to the root of fsys.
func NewWriter(fsys billy.Filesystem, dir string) *Writer {
	if dir == "" {
		dir = "."
	}
	return &Writer{fs: fsys, dir: dir}
}

// Dir returns the absolute path of the output directory.
func (w *Writer) Dir() string {
	if filepath.IsAbs(w.dir) {
		return filepath.Clean(w.dir)
	}
	return filepath.Clean(w.fs.Join(w.fs.Root(), w.dir))
}

func (w *Writer) path(name string) string {
	return w.fs.Join(w.dir, name)
}

// Prepare creates the output directory if it is missing.
func (w *Writer) Prepare() error {
	if w.ready {
		return nil
	}
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", w.dir, err)
	}
	w.ready = true
	return nil
}

// Exists reports whether the slot is already taken.
func (w *Writer) Exists(name string) (bool, error) {
	_, err := w.fs.Stat(w.path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
}

// Create writes data to a new slot. It never replaces an existing file: a
// taken slot fails with an error wrapping fs.ErrExist.
func (w *Writer) Create(name string, data []byte) error {
	if err := w.Prepare(); err != nil {
		return err
	}
	p := w.path(name)
	f, err := w.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create %s: %w", name, fs.ErrExist)
		}
		return fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = w.fs.Remove(p) // best-effort cleanup
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = w.fs.Remove(p) // best-effort cleanup
		return fmt.Errorf("close %s: %w", name, err)
	}
	return nil
}
