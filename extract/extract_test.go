package extract

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/stretchr/testify/require"
)

func parseAndExtract(t *testing.T, source string) *Result {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)
	defer tree.Close()

	result := NewResult()
	require.NoError(t, Walk(tree.RootNode(), []byte(source), result))
	return result
}

func TestDirectRequire(t *testing.T) {
	r := parseAndExtract(t, `const fs = require('fs'); fs.readFile(x);`)
	require.Equal(t, []string{"fs"}, r.Modules())
	require.Equal(t, []MemberAccess{{Module: "fs", Member: "readFile"}}, r.ModuleMembers())
	require.NotContains(t, r.Globals(), "fs")
}

func TestParameterShadowsModule(t *testing.T) {
	r := parseAndExtract(t, `function f(fs){ fs.readFile(x); }`)
	require.Empty(t, r.Modules())
	require.Empty(t, r.ModuleMembers())
	require.Empty(t, r.Globals())
}

func TestDestructuredRequire(t *testing.T) {
	r := parseAndExtract(t, `const { readFile } = require('fs');`)
	require.Equal(t, []string{"fs"}, r.Modules())
	require.Equal(t, []MemberAccess{{Module: "fs", Member: "readFile"}}, r.ModuleMembers())
	require.Empty(t, r.Globals())
}

func TestAliasPropagation(t *testing.T) {
	r := parseAndExtract(t, `const a = require('fs'); const b = a; b.readFile(x);`)
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
}

func TestConsoleLogIsGlobalMember(t *testing.T) {
	r := parseAndExtract(t, `console.log('hi');`)
	require.Equal(t, []string{"console"}, r.Globals())
	require.Equal(t, []string{"console.log"}, r.GlobalMembers())
	require.Empty(t, r.Modules())
}

func TestDestructuredGlobal(t *testing.T) {
	r := parseAndExtract(t, `const { log } = console;`)
	require.Contains(t, r.GlobalMembers(), "console.log")
}

func TestNamedImport(t *testing.T) {
	r := parseAndExtract(t, `import { readFile } from 'fs';`)
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
}

func TestNamespaceImport(t *testing.T) {
	r := parseAndExtract(t, `import * as F from 'fs'; F.readFile(x);`)
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
}

func TestExportFromReExport(t *testing.T) {
	r := parseAndExtract(t, `export { x } from 'fs';`)
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "x"})
}

func TestExportAllWarns(t *testing.T) {
	r := parseAndExtract(t, `export * from 'fs';`)
	require.Contains(t, r.Modules(), "fs")
	require.Empty(t, r.ModuleMembers())
	require.NotEmpty(t, r.Warnings)
}

func TestArrayDestructureOfRequire(t *testing.T) {
	r := parseAndExtract(t, `const [a, b] = require('fs');`)
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "0"})
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "1"})
}

func TestVarIsFunctionScoped(t *testing.T) {
	r := parseAndExtract(t, `
		function f() {
			if (true) {
				var fs = require('fs');
			}
			fs.readFile(x);
		}
	`)
	require.Contains(t, r.ModuleMembers(), MemberAccess{Module: "fs", Member: "readFile"})
}

func TestLetIsBlockScoped(t *testing.T) {
	r := parseAndExtract(t, `
		function f() {
			if (true) {
				let fs = require('fs');
			}
			fs.readFile(x);
		}
	`)
	require.Empty(t, r.ModuleMembers())
}

func TestBareSideEffectRequireIsRecorded(t *testing.T) {
	r := parseAndExtract(t, `require('./poly');`)
	require.Equal(t, []string{"./poly"}, r.Modules())
	require.Empty(t, r.ModuleMembers())
}

func TestUnusedDefaultImportIsRecorded(t *testing.T) {
	r := parseAndExtract(t, `import fs from 'fs';`)
	require.Equal(t, []string{"fs"}, r.Modules())
}

func TestUnusedNamespaceImportIsRecorded(t *testing.T) {
	r := parseAndExtract(t, `import * as F from 'fs';`)
	require.Equal(t, []string{"fs"}, r.Modules())
}

func TestModuleValuePassedWithoutMemberAccessIsRecorded(t *testing.T) {
	r := parseAndExtract(t, `const cp = require('child_process'); pass(cp);`)
	require.Equal(t, []string{"child_process"}, r.Modules())
	require.Empty(t, r.ModuleMembers())
}

func TestModuleValueCalledDirectlyIsRecorded(t *testing.T) {
	r := parseAndExtract(t, `const cp = require('child_process'); cp(x);`)
	require.Equal(t, []string{"child_process"}, r.Modules())
}

func TestNewRequireIsRecognized(t *testing.T) {
	r := parseAndExtract(t, `const x = new require('m');`)
	require.Equal(t, []string{"m"}, r.Modules())
}

func TestShorthandPropertyValueIsGlobalReference(t *testing.T) {
	r := parseAndExtract(t, `const x = { console };`)
	require.Equal(t, []string{"console"}, r.Globals())
}

func TestResultMerge(t *testing.T) {
	a := parseAndExtract(t, `const fs = require('fs'); fs.readFile(x);`)
	b := parseAndExtract(t, `console.log('hi');`)
	a.Merge(b)
	require.ElementsMatch(t, []string{"fs"}, a.Modules())
	require.ElementsMatch(t, []string{"console"}, a.Globals())
}
