package output

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rocket457/identificar-e-formatar-queries/internal/extract"
	"github.com/Rocket457/identificar-e-formatar-queries/internal/naming"
)

func TestRender(t *testing.T) {
	rec := extract.QueryRecord{FunctionName: "findUser", Description: "Finds a user."}
	got := Render(rec, "SELECT\n  *\nFROM\n  t\n")
	assert.Equal(t, "-- Function: findUser\n-- Description: Finds a user.\n\nSELECT\n  *\nFROM\n  t\n", got)

	got = Render(extract.QueryRecord{FunctionName: extract.GlobalFunction}, "SELECT 1")
	assert.Equal(t, "-- Function: Global\n-- Description: No description available\n\nSELECT 1\n", got)
}

func TestWriter_CreateIsExclusive(t *testing.T) {
	fsys := memfs.New()
	w := NewWriter(fsys, "out")

	ok, err := w.Exists("a_1.sql")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.Create("a_1.sql", []byte("first")))
	ok, err = w.Exists("a_1.sql")
	require.NoError(t, err)
	assert.True(t, ok)

	err = w.Create("a_1.sql", []byte("second"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist))

	data, err := util.ReadFile(fsys, "out/a_1.sql")
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestWriter_CreatesDirectoryOnDemand(t *testing.T) {
	fsys := memfs.New()
	w := NewWriter(fsys, "nested/out")

	_, err := fsys.Stat("nested/out")
	require.True(t, os.IsNotExist(err))

	require.NoError(t, w.Create("x_1.sql", nil))
	info, err := fsys.Stat("nested/out")
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, filepath.Join("/", "nested", "out"), w.Dir())
}

func TestWriter_WithAllocator(t *testing.T) {
	fsys := memfs.New()
	w := NewWriter(fsys, "queries_output")
	table := naming.NewTable()

	rec := extract.QueryRecord{FunctionName: "report", CleanedQuery: "SELECT 1"}
	var slots []string
	for range 2 {
		slot, err := table.Place(rec.FunctionName, ".sql", []byte(Render(rec, rec.CleanedQuery)), w)
		require.NoError(t, err)
		slots = append(slots, slot)
	}
	assert.Equal(t, []string{"report_1.sql", "report_2.sql"}, slots)

	entries, err := fsys.ReadDir("queries_output")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestWriter_OnDisk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Global_1.sql"), []byte("keep"), 0o644))

	w := NewWriter(osfs.New(root), ".")
	assert.Equal(t, root, w.Dir())

	slot, err := naming.NewTable().Place("Global", ".sql", []byte("new"), w)
	require.NoError(t, err)
	assert.Equal(t, "Global_2.sql", slot)

	old, err := os.ReadFile(filepath.Join(root, "Global_1.sql"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(old))

	err = w.Create("Global_1.sql", []byte("clobber"))
	assert.ErrorIs(t, err, fs.ErrExist)
}
