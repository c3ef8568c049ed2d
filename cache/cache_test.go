package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/capsentry/capsentry/extract"
)

func TestDigestIsStableForSameContent(t *testing.T) {
	d1, err := Digest([]byte("const fs = require('fs');"))
	require.NoError(t, err)
	d2, err := Digest([]byte("const fs = require('fs');"))
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestDigestChangesWithContent(t *testing.T) {
	d1, err := Digest([]byte("a"))
	require.NoError(t, err)
	d2, err := Digest([]byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, d1, d2)
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	result := extract.NewResult()
	result.AddModuleMember("fs", "readFile")
	result.AddGlobal("console")

	digest, err := Digest([]byte("const fs = require('fs'); fs.readFile(x); console;"))
	require.NoError(t, err)

	_, ok := store.Get("/pkg/index.js", digest)
	require.False(t, ok)

	require.NoError(t, store.Put("/pkg/index.js", digest, result))

	cached, ok := store.Get("/pkg/index.js", digest)
	require.True(t, ok)
	require.Equal(t, []string{"fs"}, cached.Modules())
	require.Contains(t, cached.ModuleMembers(), extract.MemberAccess{Module: "fs", Member: "readFile"})
	require.Contains(t, cached.Globals(), "console")
}

func TestStoreMissOnDifferentDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	result := extract.NewResult()
	result.AddModule("fs")
	require.NoError(t, store.Put("/pkg/index.js", 1, result))

	_, ok := store.Get("/pkg/index.js", 2)
	require.False(t, ok)
}

func TestStorePutEvictsOlderDigestForSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	old := extract.NewResult()
	old.AddModule("fs")
	require.NoError(t, store.Put("/pkg/index.js", 1, old))

	fresh := extract.NewResult()
	fresh.AddModule("net")
	require.NoError(t, store.Put("/pkg/index.js", 2, fresh))

	_, ok := store.Get("/pkg/index.js", 1)
	require.False(t, ok, "stale digest entry should have been evicted")

	cached, ok := store.Get("/pkg/index.js", 2)
	require.True(t, ok)
	require.Equal(t, []string{"net"}, cached.Modules())

	var keyCount int
	require.NoError(t, store.db.View(func(tx *bolt.Tx) error {
		keyCount = tx.Bucket(bucketName).Stats().KeyN
		return nil
	}))
	require.Equal(t, 1, keyCount)
}
