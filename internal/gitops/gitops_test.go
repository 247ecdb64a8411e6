package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAuthor = Author{Name: "Folio Import", Email: "import@folio.local"}

func gitLog(t *testing.T, dir, format string) string {
	t.Helper()
	log := exec.Command("git", "log", "--format="+format, "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	return strings.TrimSpace(string(out))
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	_, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git directory should exist")
}

func TestIsRepo(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsRepo(dir), "empty dir should not be a repo")

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir), "initialized dir should be a repo")
}

func TestCommit_All(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "folio.yaml"), []byte("account: x\n"), 0o644))

	hash, err := Commit(dir, "init: folio workspace", testAuthor)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.Equal(t, "init: folio workspace", gitLog(t, dir, "%s"))
	assert.Equal(t, "Folio Import <import@folio.local>", gitLog(t, dir, "%an <%ae>"))
}

func TestCommit_Paths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ledger"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger", "a.csv"), []byte("x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scratch.txt"), []byte("x\n"), 0o644))

	_, err := Commit(dir, "import: a.csv", testAuthor, "ledger")
	require.NoError(t, err)

	status := exec.Command("git", "status", "--porcelain")
	status.Dir = dir
	out, err := status.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "scratch.txt", "unlisted paths stay uncommitted")
	assert.NotContains(t, string(out), "ledger")
}

func TestCommit_NothingToCommit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	_, err := Commit(dir, "first", testAuthor)
	require.NoError(t, err)

	_, err = Commit(dir, "second", testAuthor)
	assert.ErrorIs(t, err, ErrNothingToCommit)
}
