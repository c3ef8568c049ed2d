package extract

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/capsentry/capsentry/ast"
	"github.com/capsentry/capsentry/fsio"
)

// fixturePath resolves a file under testdata/fixtures relative to this
// source file, so the test passes regardless of the working directory it
// runs from.
func fixturePath(name string) string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "testdata", "fixtures", name)
}

func extractFixture(t *testing.T, name string) *Result {
	t.Helper()
	adapter := ast.New(fsio.New(), false)
	result, err := File(context.Background(), adapter, fixturePath(name))
	require.NoError(t, err)
	return result
}

// These exercise the full fsio -> ast -> extract pipeline end to end against
// the illustrative fixtures, on top of extract_test.go's direct-parser unit
// tests for each scope/shadowing scenario in spec.md §8.
func TestFixtureDirectRequire(t *testing.T) {
	r := extractFixture(t, "direct_require.js")
	require.Equal(t, []string{"fs"}, r.Modules())
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
}

func TestFixtureDestructuredRequire(t *testing.T) {
	r := extractFixture(t, "destructured_require.js")
	require.Equal(t, []string{"fs"}, r.Modules())
	require.ElementsMatch(t, []MemberAccess{
		{Module: "fs", Member: "readFile"},
		{Module: "fs", Member: "writeFile"},
	}, r.ModuleMembers())
}

func TestFixtureAliasPropagation(t *testing.T) {
	r := extractFixture(t, "alias_propagation.js")
	require.Equal(t, []string{"fs"}, r.Modules())
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
}

func TestFixtureParameterShadow(t *testing.T) {
	r := extractFixture(t, "parameter_shadow.js")
	require.Empty(t, r.Modules())
	require.Empty(t, r.ModuleMembers())
}

func TestFixtureGlobals(t *testing.T) {
	r := extractFixture(t, "globals.js")
	require.Equal(t, []string{"console"}, r.Globals())
	require.Contains(t, r.GlobalMembers(), "console.log")
}

func TestFixtureDeclarativeImport(t *testing.T) {
	r := extractFixture(t, "declarative_import.js")
	require.ElementsMatch(t, []string{"fs", "path"}, r.Modules())
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "path", Member: "join"})
}

func TestFixtureReexport(t *testing.T) {
	r := extractFixture(t, "reexport.js")
	require.ElementsMatch(t, []string{"fs", "path"}, r.Modules())
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
	require.NotEmpty(t, r.Warnings)
}
