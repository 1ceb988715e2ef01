package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rocket457/identificar-e-formatar-queries/internal/extract"
)

func relPaths(sources []Source) []string {
	var out []string
	for _, s := range sources {
		out = append(out, s.Rel)
	}
	return out
}

func TestDiscover_FiltersAndOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b/Dao.java", "class Dao {}")
	writeFile(t, root, "a.sql", "SELECT 1;")
	writeFile(t, root, "app.PY", "def f(): pass")
	writeFile(t, root, "readme.md", "SELECT 1;")
	writeFile(t, root, "node_modules/pkg/index.js", "db.query('SELECT 1')")
	writeFile(t, root, "build/gen.sql", "SELECT 1;")
	writeFile(t, root, ".git/hooks/x.sql", "SELECT 1;")

	e, err := NewEngine(testConfig(), memfs.New())
	require.NoError(t, err)
	sources, err := e.Discover(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.sql", "app.PY", "b/Dao.java"}, relPaths(sources))
	assert.Equal(t, extract.StyleNone, sources[0].Style)
	assert.Equal(t, extract.StylePython, sources[1].Style)
	assert.Equal(t, ".py", sources[1].Ext)
	assert.Equal(t, extract.StyleJava, sources[2].Style)
	assert.Equal(t, filepath.Join(root, "b", "Dao.java"), sources[2].Path)
}

func TestDiscover_IncludeExclude(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main/Repo.java", "")
	writeFile(t, root, "src/test/RepoTest.java", "")
	writeFile(t, root, "scripts/seed.sql", "")
	writeFile(t, root, "db/schema.sql", "")

	cfg := testConfig()
	cfg.Include = []string{"src/**", "db/*.sql"}
	cfg.Exclude = []string{"**/test/**"}
	e, err := NewEngine(cfg, memfs.New())
	require.NoError(t, err)

	sources, err := e.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"db/schema.sql", "src/main/Repo.java"}, relPaths(sources))
}

func TestDiscover_SkipsBinaryFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "dump.sql", "SQLite format 3\x00SELECT")
	writeFile(t, root, "ok.sql", "SELECT 1;")

	e, err := NewEngine(testConfig(), memfs.New(), WithLogger(quietLogger()))
	require.NoError(t, err)
	sources, err := e.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok.sql"}, relPaths(sources))
}

func TestDiscover_SkipsOutputDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "schema.sql", "SELECT 1;")
	writeFile(t, root, "queries_output/Global_1.sql", "SELECT 1")

	e, err := NewEngine(testConfig(), osfs.New(root))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "queries_output"), e.OutputDir())

	sources, err := e.Discover(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{"schema.sql"}, relPaths(sources))
}

func TestDiscover_RootNotDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "x.sql")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	e, err := NewEngine(testConfig(), memfs.New())
	require.NoError(t, err)
	_, err = e.Discover(context.Background(), file)
	assert.ErrorIs(t, err, ErrRootNotDir)
}

func TestNewEngine_BadGlob(t *testing.T) {
	cfg := testConfig()
	cfg.Exclude = []string{"[a-"}
	_, err := NewEngine(cfg, memfs.New())
	assert.Error(t, err)
}

func TestIsBinaryFile(t *testing.T) {
	tmpDir := t.TempDir()

	textFile := filepath.Join(tmpDir, "hello.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("hello world\n"), 0o644))
	assert.False(t, isBinaryFile(textFile), "plain text should not be binary")

	emptyFile := filepath.Join(tmpDir, "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte{}, 0o644))
	assert.False(t, isBinaryFile(emptyFile), "empty file should not be binary")

	binFile := filepath.Join(tmpDir, "program")
	require.NoError(t, os.WriteFile(binFile, []byte{0x7f, 'E', 'L', 'F', 0, 0, 0}, 0o644))
	assert.True(t, isBinaryFile(binFile), "ELF binary should be detected")

	late := make([]byte, sniffLen+10)
	for i := range late {
		late[i] = 'a'
	}
	late[sniffLen+5] = 0
	lateFile := filepath.Join(tmpDir, "late.sql")
	require.NoError(t, os.WriteFile(lateFile, late, 0o644))
	assert.False(t, isBinaryFile(lateFile), "only the head is inspected")

	assert.False(t, isBinaryFile(filepath.Join(tmpDir, "nope")), "missing file should return false")
}
