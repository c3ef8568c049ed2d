package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/capsentry/capsentry/scope"
)

// Walk drives the traversal described in spec.md §4.3: a single-threaded,
// depth-first pass over one file's AST that maintains an ancestor stack and
// an active lexical environment. At each node it first runs the analyzer the
// node's type selects (binding declaration with import recognition, globals
// collection, or member-access collection), then pushes any scope the node
// opens, before recursing into children.
func Walk(root *sitter.Node, source []byte, result *Result) error {
	return walk(root, nil, source, scope.NewProgram(), result)
}

var functionLikeTypes = map[string]bool{
	"function_declaration":           true,
	"function_expression":            true,
	"generator_function_declaration": true,
	"generator_function":             true,
	"arrow_function":                 true,
}

var blockScopedTypes = map[string]bool{
	"for_statement":    true,
	"for_in_statement": true,
	"catch_clause":     true,
	"switch_statement": true,
}

func walk(node *sitter.Node, ancestors []*sitter.Node, source []byte, env *scope.Environment, result *Result) error {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "identifier":
		visitIdentifier(node, ancestors, source, env, result)

	case "shorthand_property_identifier":
		// The value-position shorthand in an object expression, e.g.
		// "{ console }" for "{ console: console }". Distinct from the grammar's
		// "_pattern" variant of this node type, which is a destructuring
		// binding target, not a reference.
		visitIdentifier(node, ancestors, source, env, result)

	case "variable_declaration", "lexical_declaration":
		kind := declLexical
		if node.Type() == "variable_declaration" {
			kind = declVar
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() != "variable_declarator" {
				continue
			}
			if err := visitVariableDeclarator(child, source, kind, env, result); err != nil {
				return err
			}
		}

	case "import_statement":
		visitImportStatement(node, source, env, result)

	case "export_statement":
		visitExportStatement(node, source, result)

	case "member_expression", "subscript_expression":
		visitMemberExpression(node, source, env, result)

	case "call_expression", "new_expression":
		// A require() call that isn't itself the object of a member/subscript
		// expression or a declarator initializer (those are handled above) is
		// still a module reference, e.g. a bare side-effecting
		// "require('./poly');" expression statement.
		if module, ok := requireCallArgument(node, source); ok {
			result.addModule(module)
		}
	}

	childEnv := env

	switch {
	case functionLikeTypes[node.Type()]:
		childEnv = env.PushScope(scope.Function)
		if err := bindParameters(node, source, childEnv); err != nil {
			return err
		}

	case node.Type() == "method_definition":
		childEnv = env.PushScope(scope.Method)
		if err := bindParameters(node, source, childEnv); err != nil {
			return err
		}

	case node.Type() == "statement_block":
		if !isFunctionBody(ancestors) {
			childEnv = env.PushScope(scope.Block)
		}

	case node.Type() == "catch_clause":
		childEnv = env.PushScope(scope.Block)
		if node.NamedChildCount() > 0 {
			param := node.NamedChild(0)
			if param.Type() != "statement_block" {
				if err := bindParam(param, source, childEnv); err != nil {
					return err
				}
			}
		}

	case blockScopedTypes[node.Type()]:
		childEnv = env.PushScope(scope.Block)
	}

	nextAncestors := make([]*sitter.Node, len(ancestors)+1)
	copy(nextAncestors, ancestors)
	nextAncestors[len(ancestors)] = node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if err := walk(child, nextAncestors, source, childEnv, result); err != nil {
			return err
		}
	}

	return nil
}

// isFunctionBody reports whether the statement_block currently being
// entered is the direct body of a function/method, which already has its
// own Function/Method scope pushed and so needs no additional Block scope.
func isFunctionBody(ancestors []*sitter.Node) bool {
	if len(ancestors) == 0 {
		return false
	}
	parent := ancestors[len(ancestors)-1]
	return functionLikeTypes[parent.Type()] || parent.Type() == "method_definition"
}

func bindParameters(node *sitter.Node, source []byte, env *scope.Environment) error {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "formal_parameters" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			if err := bindParam(child.NamedChild(j), source, env); err != nil {
				return err
			}
		}
		return nil
	}
	// Unparenthesized single-argument arrow function, e.g. "x => x + 1": the
	// parameter appears as a bare identifier rather than inside a
	// formal_parameters node.
	if node.Type() == "arrow_function" && node.NamedChildCount() > 0 {
		if first := node.NamedChild(0); first.Type() == "identifier" {
			return bindParam(first, source, env)
		}
	}
	return nil
}

func bindParam(node *sitter.Node, source []byte, env *scope.Environment) error {
	names, err := scope.Identifiers(node, source)
	if err != nil {
		return err
	}
	for _, n := range names {
		env.AddBinding(scope.NewBinding(n))
	}
	return nil
}
