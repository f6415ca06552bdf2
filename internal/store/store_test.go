package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topdownlabs/topdown/internal/row"
)

// chdir switches the working directory for the duration of the test,
// restoring the previous one on cleanup (testing.T.Chdir needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// writeProject lays down a .topdown/config.json under dir and returns the
// document path.
func writeProject(t *testing.T, dir, doc string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), 0o755))
	path := ConfigPath(dir)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestParseDocument(t *testing.T) {
	s, err := ParseDocument([]byte(`{
		"rows": [
			{"id": "build", "args": "make"},
			{"id": "test", "depends": "build"}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "test"}, s.IDs())

	r, err := s.Get("test")
	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, r.Depends)
}

func TestParseDocument_Invalid(t *testing.T) {
	_, err := ParseDocument([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseDocument([]byte(`{"version": 1}`))
	assert.ErrorContains(t, err, "rows")
}

func TestParseDocument_MalformedEntriesSkipped(t *testing.T) {
	s, err := ParseDocument([]byte(`{
		"rows": [
			{"id": "good"},
			"just a string",
			42,
			{"id": "also_good"}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"also_good", "good"}, s.IDs())
}

func TestParseDocument_EmptyRows(t *testing.T) {
	s, err := ParseDocument([]byte(`{"rows": []}`))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindRoot_WalksUpward(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, `{"rows": []}`)
	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_EnvFallback(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, `{"rows": []}`)
	elsewhere := t.TempDir()
	t.Setenv("TOPDOWN_ROOT", root)
	chdir(t, elsewhere)

	got, err := FindRoot("")
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestFindRoot_ExplicitStartWinsOverEnv(t *testing.T) {
	rootA := t.TempDir()
	writeProject(t, rootA, `{"rows": []}`)
	rootB := t.TempDir()
	writeProject(t, rootB, `{"rows": []}`)
	t.Setenv("TOPDOWN_ROOT", rootB)

	got, err := FindRoot(rootA)
	require.NoError(t, err)
	assert.Equal(t, rootA, got)
}

func TestFindRoot_NotFound(t *testing.T) {
	t.Setenv("TOPDOWN_ROOT", "")
	chdir(t, t.TempDir())

	_, err := FindRoot("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCache_ReloadIfChanged(t *testing.T) {
	root := t.TempDir()
	path := writeProject(t, root, `{"rows": [{"id": "a"}]}`)
	c := NewCache()

	first, err := c.ReloadIfChanged(path)
	require.NoError(t, err)

	second, err := c.ReloadIfChanged(path)
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged file must reuse the snapshot")

	// Rewrite with different content and push the mod time well past any
	// filesystem timestamp granularity.
	require.NoError(t, os.WriteFile(path, []byte(`{"rows": [{"id": "a"}, {"id": "b"}]}`), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	third, err := c.ReloadIfChanged(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, []string{"a", "b"}, third.IDs())
}

func TestCache_Invalidate(t *testing.T) {
	root := t.TempDir()
	path := writeProject(t, root, `{"rows": [{"id": "a"}]}`)
	c := NewCache()

	first, err := c.ReloadIfChanged(path)
	require.NoError(t, err)

	c.Invalidate(path)
	second, err := c.ReloadIfChanged(path)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.IDs(), second.IDs())
}

func TestCache_RowErrorDistinction(t *testing.T) {
	root := t.TempDir()
	path := writeProject(t, root, `{"rows": [{"id": "a"}]}`)
	c := NewCache()

	r, err := c.Row(path, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", r.ID)

	_, err = c.Row(path, "ghost")
	assert.ErrorIs(t, err, row.ErrNotFound)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = c.Row(filepath.Join(root, "nope.json"), "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
