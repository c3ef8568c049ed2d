package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/capsentry/capsentry/builtins"
	"github.com/capsentry/capsentry/scope"
)

// memberName extracts the literal member name from the property/index side
// of a member or subscript expression, per spec.md §4.6: only a literal
// identifier or string (or, for array-style access, a small integer) counts
// as a known member; anything else (a computed, non-literal expression) is
// not traceable and is skipped.
func memberName(node *sitter.Node, source []byte) (string, bool) {
	if node == nil {
		return "", false
	}
	switch node.Type() {
	case "property_identifier", "identifier":
		return node.Content(source), true
	case "string":
		return stripQuotes(node.Content(source)), true
	case "number":
		return node.Content(source), true
	default:
		return "", false
	}
}

// requireCallArgument returns the literal module specifier if node is a call
// (or new-expression) to an identifier named require, e.g. require("...")
// or new require('...'), per spec.md §4.4 case 1.
func requireCallArgument(node *sitter.Node, source []byte) (string, bool) {
	if node == nil || (node.Type() != "call_expression" && node.Type() != "new_expression") {
		return "", false
	}
	if node.NamedChildCount() < 2 {
		return "", false
	}
	callee := node.NamedChild(0)
	if callee == nil || callee.Type() != "identifier" || callee.Content(source) != "require" {
		return "", false
	}
	args := node.NamedChild(1)
	if args == nil || args.Type() != "arguments" || args.NamedChildCount() == 0 {
		return "", false
	}
	arg := args.NamedChild(0)
	if arg == nil || arg.Type() != "string" {
		return "", false
	}
	return stripQuotes(arg.Content(source)), true
}

// visitMemberExpression handles member_expression and subscript_expression
// nodes, recording a fine module-member or global-member access when the
// object side resolves to a module-referencing binding, a direct require()
// call, or an unshadowed ambient global (spec.md §4.5-4.6, cases 2 and 3).
func visitMemberExpression(node *sitter.Node, source []byte, env *scope.Environment, result *Result) {
	if node.NamedChildCount() < 2 {
		return
	}
	object := node.NamedChild(0)
	property := node.NamedChild(1)
	member, ok := memberName(property, source)
	if !ok {
		return
	}

	if object.Type() == "identifier" {
		name := object.Content(source)
		if b, isModule := env.LookupModuleRef(name); isModule {
			module, _ := b.Module()
			result.addModuleMember(module, member)
			return
		}
		if isGlobalObjectReference(name, env) {
			result.addGlobalMember(name, member)
		}
		return
	}

	if module, ok := requireCallArgument(object, source); ok {
		result.addModuleMember(module, member)
	}
}

func isGlobalObjectReference(name string, env *scope.Environment) bool {
	if env.HasBinding(name) {
		return false
	}
	return builtins.IsGlobalName(name)
}

// visitExportStatement handles the two member-tracer cases that live on
// export declarations: named re-exports ("export { x } from 'fs'"), which
// are member accesses exactly like named imports, and export-all
// ("export * from 'fs'"), whose members cannot be enumerated statically —
// per spec.md §7 this only records the module and emits a warning.
func visitExportStatement(node *sitter.Node, source []byte, result *Result) {
	var source_ string
	hasSource := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "string" {
			source_ = stripQuotes(child.Content(source))
			hasSource = true
		}
	}
	if !hasSource {
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			spec := child.NamedChild(j)
			if spec.Type() != "export_specifier" {
				continue
			}
			name := spec.NamedChild(0)
			if name == nil {
				continue
			}
			result.addModuleMember(source_, name.Content(source))
		}
		return
	}

	// No export_clause named child: "export * from 'fs'". The "*" token is
	// anonymous in the grammar and carries no member information, so the
	// module is recorded but its members cannot be enumerated statically.
	result.addModule(source_)
	result.warn("export * from " + source_ + ": members not enumerable statically")
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
