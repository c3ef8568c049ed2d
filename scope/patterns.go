package scope

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ErrUnknownPatternShape is returned when Identifiers encounters an AST node
// shape it does not model. Per spec.md §4.2 this is a hard, aborting error:
// silently continuing would understate a package's capabilities.
type ErrUnknownPatternShape struct {
	NodeType string
}

func (e *ErrUnknownPatternShape) Error() string {
	return fmt.Sprintf("scope: unknown binding-pattern shape %q", e.NodeType)
}

// Identifiers reduces a binding target node to the set of identifiers it
// binds, recursing structurally through destructuring patterns as described
// in spec.md §4.2.
func Identifiers(node *sitter.Node, source []byte) ([]string, error) {
	if node == nil {
		return nil, nil
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern", "shorthand_property_identifier":
		return []string{node.Content(source)}, nil

	case "rest_pattern", "rest_element":
		if node.NamedChildCount() == 0 {
			return nil, nil
		}
		return Identifiers(node.NamedChild(0), source)

	case "assignment_pattern", "object_assignment_pattern":
		// left = default value; bind from the left-hand side only.
		if node.NamedChildCount() == 0 {
			return nil, nil
		}
		return Identifiers(node.NamedChild(0), source)

	case "object_pattern":
		var out []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			ids, err := Identifiers(node.NamedChild(i), source)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil

	case "array_pattern":
		var out []string
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child == nil {
				continue // elided element
			}
			ids, err := Identifiers(child, source)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil

	case "pair_pattern":
		// { key: value } pattern — bind from the value, not the key.
		return Identifiers(lastNamedChild(node), source)

	case "update_expression", "unary_expression":
		if node.NamedChildCount() == 0 {
			return nil, nil
		}
		return Identifiers(node.NamedChild(0), source)

	default:
		return nil, &ErrUnknownPatternShape{NodeType: node.Type()}
	}
}

func lastNamedChild(node *sitter.Node) *sitter.Node {
	n := int(node.NamedChildCount())
	if n == 0 {
		return nil
	}
	return node.NamedChild(n - 1)
}
