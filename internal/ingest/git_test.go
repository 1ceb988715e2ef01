package ingest

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitTrackedFiles(t *testing.T) {
	requireGit(t)
	tmpDir := t.TempDir()

	runGit(t, tmpDir, "init")
	writeFile(t, tmpDir, "a.sql", "SELECT 1;")
	writeFile(t, tmpDir, "dir/b.java", "class B {}")
	writeFile(t, tmpDir, "untracked.sql", "SELECT 2;")
	runGit(t, tmpDir, "add", "a.sql", "dir/b.java")

	files, err := gitTrackedFiles(context.Background(), tmpDir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.sql", "dir/b.java"}, files)
}

func TestGitTrackedFiles_NotARepo(t *testing.T) {
	requireGit(t)
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(t.TempDir()))

	_, err := gitTrackedFiles(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestDiscover_GitOnly(t *testing.T) {
	requireGit(t)
	tmpDir := t.TempDir()

	runGit(t, tmpDir, "init")
	writeFile(t, tmpDir, "tracked.sql", "SELECT 1;")
	writeFile(t, tmpDir, "vendor/lib.sql", "SELECT 2;")
	writeFile(t, tmpDir, "scratch.sql", "SELECT 3;")
	runGit(t, tmpDir, "add", "tracked.sql", "vendor/lib.sql")
	require.NoError(t, os.Remove(filepath.Join(tmpDir, "tracked.sql")))
	writeFile(t, tmpDir, "kept.sql", "SELECT 4;")
	runGit(t, tmpDir, "add", "kept.sql")

	cfg := testConfig()
	cfg.GitOnly = true
	e, err := NewEngine(cfg, memfs.New())
	require.NoError(t, err)

	sources, err := e.Discover(context.Background(), tmpDir)
	require.NoError(t, err)
	require.Len(t, sources, 1, "deleted, vendored and untracked files are skipped")
	assert.Equal(t, "kept.sql", sources[0].Rel)
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	err := cmd.Run()
	require.NoError(t, err, "git %v failed", args)
}
