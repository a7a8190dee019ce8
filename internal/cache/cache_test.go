package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docversions/internal/foundation/errors"
)

func TestOpenMissingFileIsEmpty(t *testing.T) {
	c, err := Open(t.TempDir(), "docs-abc123")
	require.NoError(t, err)
	require.Equal(t, 0, c.Len())
	require.False(t, c.Match("deadbeef"))
}

func TestOpenInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs-abc123.json"), []byte("{not json"), 0o600))

	_, err := Open(dir, "docs-abc123")
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryCache))
}

func TestOpenNullTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docs.json"), []byte("null"), 0o600))
	c, err := Open(dir, "docs")
	require.NoError(t, err)
	out := t.TempDir()
	require.NoError(t, c.Update("c1", out))
	require.True(t, c.Match("c1"))
}

func TestUpdateThenMatchAndPersist(t *testing.T) {
	cacheDir := t.TempDir()
	out := t.TempDir()

	c, err := Open(cacheDir, "docs-abc123")
	require.NoError(t, err)
	require.NoError(t, c.Update("c1", out))
	require.True(t, c.Match("c1"))
	path, ok := c.Lookup("c1")
	require.True(t, ok)
	require.Equal(t, out, path)
	require.NoError(t, c.Close())

	reopened, err := Open(cacheDir, "docs-abc123")
	require.NoError(t, err)
	require.True(t, reopened.Match("c1"))
	require.Equal(t, 1, reopened.Len())
}

func TestMatchFalseWhenDirectoryVanished(t *testing.T) {
	c, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)
	out := filepath.Join(t.TempDir(), "tags", "v1.0")
	require.NoError(t, os.MkdirAll(out, 0o750))
	require.NoError(t, c.Update("c1", out))

	require.NoError(t, os.RemoveAll(out))
	require.False(t, c.Match("c1"))
	_, ok := c.Lookup("c1")
	require.False(t, ok)
	// the stale record is kept, only reported as dead
	require.Equal(t, 1, c.Len())
	require.False(t, c.Entries()[0].Live)
}

func TestUpdateRequiresExistingDirectory(t *testing.T) {
	c, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)

	err = c.Update("c1", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryInternal))
	require.True(t, errors.HasSeverity(err, errors.SeverityFatal))
	require.Equal(t, 0, c.Len())

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	require.Error(t, c.Update("c1", file))
}

func TestUpdateLastWriteWins(t *testing.T) {
	c, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)
	first, second := t.TempDir(), t.TempDir()
	require.NoError(t, c.Update("c1", first))
	require.NoError(t, c.Update("c1", second))
	path, ok := c.Lookup("c1")
	require.True(t, ok)
	require.Equal(t, second, path)
}

func TestCloseIsIdempotentAndSorted(t *testing.T) {
	cacheDir := t.TempDir()
	c, err := Open(cacheDir, "docs")
	require.NoError(t, err)
	out := t.TempDir()
	for _, commit := range []string{"ccc", "aaa", "bbb"} {
		require.NoError(t, c.Update(commit, out))
	}
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	data, err := os.ReadFile(filepath.Join(cacheDir, "docs.json"))
	require.NoError(t, err)
	text := string(data)
	require.Less(t, strings.Index(text, "aaa"), strings.Index(text, "bbb"))
	require.Less(t, strings.Index(text, "bbb"), strings.Index(text, "ccc"))

	err = c.Update("ddd", out)
	require.True(t, errors.HasCategory(err, errors.CategoryInternal))
}

func TestCloseWritesEmptyTable(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "cache")
	c, err := Open(cacheDir, "docs")
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.FileExists(t, filepath.Join(cacheDir, "docs.json"))
}

func TestEntriesSorted(t *testing.T) {
	c, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)
	out := t.TempDir()
	require.NoError(t, c.Update("b", out))
	require.NoError(t, c.Update("a", out))
	entries := c.Entries()
	require.Equal(t, []Entry{{Commit: "a", Path: out, Live: true}, {Commit: "b", Path: out, Live: true}}, entries)
}

func TestClaimForgetsOtherCommitsAtPath(t *testing.T) {
	c, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)
	main, tag := t.TempDir(), t.TempDir()
	require.NoError(t, c.Update("old", main))
	require.NoError(t, c.Update("tagged", tag))

	dropped, err := c.Claim("new", main)
	require.NoError(t, err)
	require.Equal(t, 1, dropped)
	require.False(t, c.Match("old"))
	require.True(t, c.Match("new"))
	require.True(t, c.Match("tagged"))

	// reclaiming is a no-op
	dropped, err = c.Claim("new", main)
	require.NoError(t, err)
	require.Zero(t, dropped)
	require.Equal(t, 2, c.Len())
}

func TestClaimRequiresDirectory(t *testing.T) {
	c, err := Open(t.TempDir(), "docs")
	require.NoError(t, err)
	_, err = c.Claim("c1", filepath.Join(t.TempDir(), "missing"))
	require.True(t, errors.HasCategory(err, errors.CategoryInternal))
}
