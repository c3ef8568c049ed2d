package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/capsentry/capsentry/builtins"
	"github.com/capsentry/capsentry/scope"
)

// isReferringUse implements the syntactic-position test of spec.md §4.5
// point 3: an identifier is a referring use unless it sits in one of the
// listed declaring/selector positions. The tree-sitter JavaScript grammar
// already types non-computed member-expression properties and method keys
// as "property_identifier" rather than "identifier", so those exclusions
// fall out of the node-type dispatch in walk (traverse.go) and never reach
// here; this function covers the remaining cases that share the
// "identifier" node type with genuine references.
func isReferringUse(node *sitter.Node, ancestors []*sitter.Node) bool {
	if len(ancestors) == 0 {
		return true
	}
	parent := ancestors[len(ancestors)-1]

	switch parent.Type() {
	case "formal_parameters":
		return false // bare parameter
	case "variable_declarator":
		if parent.NamedChildCount() > 0 && sameNode(parent.NamedChild(0), node) {
			return false // declarator id
		}
	case "function_declaration", "function_expression", "generator_function_declaration", "generator_function":
		if parent.NamedChildCount() > 0 && sameNode(parent.NamedChild(0), node) {
			return false // function name
		}
	case "array_pattern", "pair_pattern", "shorthand_property_identifier_pattern", "rest_pattern", "assignment_pattern":
		return false // destructuring target, handled as a binding elsewhere
	}

	if len(ancestors) >= 2 {
		grandparent := ancestors[len(ancestors)-2]
		if parent.Type() == "rest_pattern" || parent.Type() == "assignment_pattern" {
			if grandparent.Type() == "formal_parameters" {
				return false
			}
		}
	}

	return true
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// visitIdentifier is called for every "identifier"-typed node encountered
// during the walk (not "property_identifier" or pattern-specific identifier
// types, which the grammar already types apart from genuine references).
// When the reference denotes an ambient global per spec.md §4.5, it is
// recorded in the coarse globals set.
func visitIdentifier(node *sitter.Node, ancestors []*sitter.Node, source []byte, env *scope.Environment, result *Result) {
	name := node.Content(source)
	if !builtins.IsGlobalName(name) {
		return
	}
	if len(ancestors) > 0 {
		// The callee of a recognized require('m') call is recorded as module
		// m, not as a use of the ambient require global.
		parent := ancestors[len(ancestors)-1]
		if _, ok := requireCallArgument(parent, source); ok && sameNode(parent.NamedChild(0), node) {
			return
		}
	}
	if env.HasBinding(name) {
		return
	}
	if !isReferringUse(node, ancestors) {
		return
	}
	result.addGlobal(name)
}
