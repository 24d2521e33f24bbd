package cache

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKeyDependsOnSettingsNameAndSource(t *testing.T) {
	base := Key("marker: '[+]'", "a.js", "// [+] a\n// b\n")
	assert.NotEmpty(t, base)
	assert.Equal(t, base, Key("marker: '[+]'", "a.js", "// [+] a\n// b\n"))
	assert.NotEqual(t, base, Key("marker: '@doc'", "a.js", "// [+] a\n// b\n"))
	assert.NotEqual(t, base, Key("marker: '[+]'", "b.js", "// [+] a\n// b\n"))
	assert.NotEqual(t, base, Key("marker: '[+]'", "a.js", "// [+] a\n// c\n"))
}

func TestGetMiss(t *testing.T) {
	c := openTemp(t)
	_, ok, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	require.NoError(t, c.Put(ctx, "k1", Entry{Source: "a.js", Page: "page", Comments: 3, Fragments: 2}))
	e, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.js", e.Source)
	assert.Equal(t, "page", e.Page)
	assert.Equal(t, 3, e.Comments)
	assert.Equal(t, 2, e.Fragments)
	assert.False(t, e.Updated.IsZero())
}

func TestPutReplacesStaleEntriesForSource(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	require.NoError(t, c.Put(ctx, "old", Entry{Source: "a.js", Page: "v1", Fragments: 1}))
	require.NoError(t, c.Put(ctx, "other", Entry{Source: "b.js"}))
	require.NoError(t, c.Put(ctx, "new", Entry{Source: "a.js", Page: "v2", Fragments: 1}))

	_, ok, err := c.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := c.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Put(ctx, "k", Entry{Source: "a.js", Page: "p"}))
	require.NoError(t, c.Close())

	c, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	e, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "p", e.Page)
}

func TestOpenDropsOldSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE pages (key TEXT PRIMARY KEY, source TEXT NOT NULL, page TEXT NOT NULL,
		fragments INTEGER NOT NULL, updated INTEGER NOT NULL);
		INSERT INTO pages VALUES ('k', 'a.js', 'stale', 1, 0);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, c.Put(ctx, "k", Entry{Source: "a.js", Page: "fresh", Comments: 1, Fragments: 1}))
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	require.NoError(t, c.Put(ctx, "k", Entry{Source: "a.js"}))
	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
