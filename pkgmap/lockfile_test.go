package pkgmap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capsentry/capsentry/fsio"
)

// fakeReader is an in-memory fsio.Reader for tests: files map path to
// content, dirs records which directories "exist" so Exists can
// distinguish a missing optional-dependency install from a present one.
type fakeReader struct {
	files map[string][]byte
	dirs  map[string]bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{files: map[string][]byte{}, dirs: map[string]bool{}}
}

func (f *fakeReader) put(path, content string) {
	f.files[path] = []byte(content)
	f.dirs[path] = true
}

func (f *fakeReader) Read(ctx context.Context, path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errNotFound(path)
	}
	return data, nil
}

func (f *fakeReader) Exists(ctx context.Context, path string) bool {
	_, ok := f.files[path]
	if ok {
		return true
	}
	return f.dirs[path]
}

func (f *fakeReader) List(ctx context.Context, path string) ([]fsio.Entry, error) {
	return nil, nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }
func errNotFound(path string) error { return notFoundErr(path) }

func TestLockfileV1OptionalDependencyMissingIsExcluded(t *testing.T) {
	r := newFakeReader()
	r.put("/repo/package.json", `{"name":"root","version":"1.0.0","dependencies":{"a":"^1.0.0"}}`)
	r.put("/repo/package-lock.json", `{
		"lockfileVersion": 1,
		"dependencies": {
			"a": {"version": "1.0.0", "requires": {"b": "^1.0.0"}},
			"b": {"version": "1.0.0", "optional": true}
		}
	}`)
	// "a" is installed (its directory is registered below), "b" is not.
	r.dirs["/repo/node_modules/a"] = true

	g, err := Build(context.Background(), r, "/repo")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, u := range g.Units {
		names[u.Name] = true
	}
	require.True(t, names["a"])
	require.False(t, names["b"], "optional dependency with a missing install path must be excluded")
}

func TestLockfileV2MissingInstalledPathIsExcluded(t *testing.T) {
	r := newFakeReader()
	r.put("/repo/package.json", `{"name":"root","version":"1.0.0"}`)
	r.put("/repo/package-lock.json", `{
		"lockfileVersion": 2,
		"packages": {
			"": {"name": "root"},
			"node_modules/a": {"version": "1.0.0", "optional": true}
		}
	}`)
	// No dirs entry for node_modules/a: its install path does not exist.

	g, err := Build(context.Background(), r, "/repo")
	require.NoError(t, err)
	require.Empty(t, g.Units)
}

func TestTwoInstalledPathsSameNameBothContribute(t *testing.T) {
	r := newFakeReader()
	r.put("/repo/package.json", `{"name":"root","version":"1.0.0"}`)
	r.put("/repo/package-lock.json", `{
		"lockfileVersion": 2,
		"packages": {
			"": {"name": "root"},
			"node_modules/a": {"version": "1.0.0"},
			"node_modules/c/node_modules/a": {"version": "2.0.0"}
		}
	}`)
	r.dirs["/repo/node_modules/a"] = true
	r.dirs["/repo/node_modules/c/node_modules/a"] = true

	g, err := Build(context.Background(), r, "/repo")
	require.NoError(t, err)

	byName := g.ByName()
	require.Len(t, byName["a"], 2)
}

func TestUnrecognizedSchemaYieldsRootOnly(t *testing.T) {
	r := newFakeReader()
	r.put("/repo/package.json", `{"name":"root","version":"1.0.0"}`)
	r.put("/repo/package-lock.json", `{"lockfileVersion": 9}`)

	g, err := Build(context.Background(), r, "/repo")
	require.NoError(t, err)
	require.Empty(t, g.Units)
	require.Equal(t, "root", g.Root.Name)
}
