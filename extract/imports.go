package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/capsentry/capsentry/scope"
)

// declKind distinguishes the two declaration node types the grammar
// produces: "var" is function-scoped, "let"/"const" are block-scoped. The
// grammar types these as distinct node types rather than a shared node with
// a keyword field, which is what we dispatch on.
type declKind int

const (
	declVar declKind = iota
	declLexical
)

func bindTarget(target *sitter.Node, source []byte, kind declKind, env *scope.Environment, module *string) error {
	names, err := scope.Identifiers(target, source)
	if err != nil {
		return err
	}
	for _, name := range names {
		b := scope.NewBinding(name)
		if module != nil {
			b.SetModule(*module)
		}
		if kind == declVar {
			env.AddBindingFunctionScoped(b)
		} else {
			env.AddBinding(b)
		}
	}
	return nil
}

// visitVariableDeclarator implements spec.md §4.3 (import/require
// recognition cases 1 and 2) together with §4.6 case 4 (destructuring a
// require() call, an aliased module binding, or an ambient global), since
// both concerns inspect the same declarator shape. It always binds the
// declared name(s), annotating them with a module when recognized.
func visitVariableDeclarator(node *sitter.Node, source []byte, kind declKind, env *scope.Environment, result *Result) error {
	if node.NamedChildCount() == 0 {
		return nil
	}
	target := node.NamedChild(0)
	if node.NamedChildCount() < 2 {
		return bindTarget(target, source, kind, env, nil)
	}
	init := node.NamedChild(1)

	if module, ok := requireCallArgument(init, source); ok {
		return bindRequireOrDestructure(target, source, kind, env, result, module)
	}

	if init.Type() == "identifier" {
		name := init.Content(source)
		if b, isModule := env.LookupModuleRef(name); isModule {
			module, _ := b.Module()
			return bindRequireOrDestructure(target, source, kind, env, result, module)
		}
		if target.Type() != "identifier" && isGlobalObjectReference(name, env) {
			return bindDestructureOfGlobal(target, source, kind, env, result, name)
		}
	}

	// Any other initializer shape (member expression, literal, call to
	// something other than require, etc.) is a plain binding: the walk will
	// separately visit the initializer subexpression and record whatever
	// member/global accesses it contains on its own.
	return bindTarget(target, source, kind, env, nil)
}

// bindRequireOrDestructure handles "const x = require('m')" (target is a
// plain identifier: bind x as a module reference) and
// "const { a, b: c } = require('m')" / "const [a] = require('m')" (target is
// a pattern: bind each local name plainly, but record the member access for
// the property/index each one came from).
func bindRequireOrDestructure(target *sitter.Node, source []byte, kind declKind, env *scope.Environment, result *Result, module string) error {
	result.addModule(module)
	if target.Type() == "identifier" {
		m := module
		return bindTarget(target, source, kind, env, &m)
	}
	return bindDestructure(target, source, kind, env, func(member string) {
		result.addModuleMember(module, member)
	})
}

func bindDestructureOfGlobal(target *sitter.Node, source []byte, kind declKind, env *scope.Environment, result *Result, global string) error {
	return bindDestructure(target, source, kind, env, func(member string) {
		result.addGlobalMember(global, member)
	})
}

// bindDestructure walks an object_pattern or array_pattern one level,
// binding each local name and invoking record with the source member name
// (the property key, or the numeric index for array patterns) it was
// destructured from. Rest elements are bound but, per spec.md §9's open
// question, are not expanded into a member access.
func bindDestructure(target *sitter.Node, source []byte, kind declKind, env *scope.Environment, record func(member string)) error {
	switch target.Type() {
	case "object_pattern":
		for i := 0; i < int(target.NamedChildCount()); i++ {
			prop := target.NamedChild(i)
			switch prop.Type() {
			case "shorthand_property_identifier_pattern":
				name := prop.Content(source)
				record(name)
				if err := bindTarget(prop, source, kind, env, nil); err != nil {
					return err
				}
			case "pair_pattern":
				if prop.NamedChildCount() < 2 {
					continue
				}
				key := prop.NamedChild(0)
				value := prop.NamedChild(1)
				keyName, ok := memberName(key, source)
				if ok {
					record(keyName)
				}
				if err := bindTarget(value, source, kind, env, nil); err != nil {
					return err
				}
			case "rest_pattern":
				if err := bindTarget(prop, source, kind, env, nil); err != nil {
					return err
				}
			default:
				if err := bindTarget(prop, source, kind, env, nil); err != nil {
					return err
				}
			}
		}
		return nil

	case "array_pattern":
		// Elided slots ("[, b]") have no node of their own, so the index
		// advances on each "," separator rather than per named element.
		idx := 0
		for i := 0; i < int(target.ChildCount()); i++ {
			elem := target.Child(i)
			if elem.Type() == "," {
				idx++
				continue
			}
			if !elem.IsNamed() {
				continue
			}
			if elem.Type() == "rest_pattern" {
				if err := bindTarget(elem, source, kind, env, nil); err != nil {
					return err
				}
				continue
			}
			record(itoa(idx))
			if err := bindTarget(elem, source, kind, env, nil); err != nil {
				return err
			}
		}
		return nil

	default:
		// A bare identifier alias of a destructure source, e.g.
		// "const x = require('m')" already short-circuits before reaching
		// here; anything else is an unmodeled shape.
		return bindTarget(target, source, kind, env, nil)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// visitImportStatement implements spec.md §4.3 case 3: declarative imports.
// Default and namespace specifiers bind a module-referencing name; named
// specifiers are member accesses on the imported module, per §4.6 case 1.
func visitImportStatement(node *sitter.Node, source []byte, env *scope.Environment, result *Result) {
	var modulePath string
	hasModule := false
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "string" {
			modulePath = stripQuotes(child.Content(source))
			hasModule = true
		}
	}
	if !hasModule {
		return
	}
	result.addModule(modulePath)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "import_clause":
			visitImportClause(child, source, modulePath, env, result)
		case "namespace_import":
			bindNamespaceImport(child, source, modulePath, env)
		}
	}
}

func visitImportClause(node *sitter.Node, source []byte, modulePath string, env *scope.Environment, result *Result) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "identifier":
			// Default import: "import fs from 'fs'".
			b := scope.NewBinding(child.Content(source))
			b.SetModule(modulePath)
			env.AddBinding(b)
		case "namespace_import":
			bindNamespaceImport(child, source, modulePath, env)
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				visitImportSpecifier(spec, source, modulePath, env, result)
			}
		}
	}
}

func bindNamespaceImport(node *sitter.Node, source []byte, modulePath string, env *scope.Environment) {
	// "import * as F from 'fs'": the bound name is the namespace_import's
	// identifier child.
	if node.NamedChildCount() == 0 {
		return
	}
	name := node.NamedChild(0)
	b := scope.NewBinding(name.Content(source))
	b.SetModule(modulePath)
	env.AddBinding(b)
}

func visitImportSpecifier(node *sitter.Node, source []byte, modulePath string, env *scope.Environment, result *Result) {
	if node.NamedChildCount() == 0 {
		return
	}
	imported := node.NamedChild(0)
	local := imported
	if node.NamedChildCount() >= 2 {
		local = node.NamedChild(1)
	}
	result.addModuleMember(modulePath, imported.Content(source))

	// Named imports are member accesses, not module-referencing bindings:
	// the local binding is a plain value, not an alias of the module.
	b := scope.NewBinding(local.Content(source))
	env.AddBinding(b)
}
