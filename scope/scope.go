// Package scope implements the lexically-scoped environment model described
// in spec.md §3-4.2: bindings, nested scopes, and module-reference lookup.
package scope

// Kind identifies what introduced an Environment.
type Kind int

const (
	Program Kind = iota
	Function
	Method
	Block
)

// Binding is a named entity introduced in some lexical scope, optionally
// annotated with the module it has been recognized to reference.
type Binding struct {
	Name   string
	module *string
}

// NewBinding creates a plain, non-module-referencing binding.
func NewBinding(name string) *Binding {
	return &Binding{Name: name}
}

// SetModule records that this binding refers to the named module. Per the
// data model this is mutated at most once, the moment the import/require
// recognizer identifies the binding's initializer.
func (b *Binding) SetModule(module string) {
	b.module = &module
}

// Module returns the module this binding references, and whether it
// references one at all.
func (b *Binding) Module() (string, bool) {
	if b.module == nil {
		return "", false
	}
	return *b.module, true
}

// Environment is one node in the lexical-scope tree.
type Environment struct {
	kind     Kind
	parent   *Environment
	bindings []*Binding
}

// NewProgram creates the root Program scope.
func NewProgram() *Environment {
	return &Environment{kind: Program}
}

// PushScope returns a new child scope of kind k, optionally pre-populated
// with bindings (used for function/method parameters).
func (e *Environment) PushScope(k Kind, initial ...*Binding) *Environment {
	child := &Environment{kind: k, parent: e}
	child.bindings = append(child.bindings, initial...)
	return child
}

// Parent returns the enclosing scope, or nil at the Program root.
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Kind returns this scope's kind.
func (e *Environment) Kind() Kind {
	return e.kind
}

// AddBinding inserts b into this scope.
func (e *Environment) AddBinding(b *Binding) {
	e.bindings = append(e.bindings, b)
}

// AddBindingFunctionScoped walks up to the nearest Function, Method, or
// Program scope and inserts b there. This is how `var` declarations behave:
// they ignore intervening Block scopes.
func (e *Environment) AddBindingFunctionScoped(b *Binding) {
	target := e
	for target.kind == Block {
		if target.parent == nil {
			break
		}
		target = target.parent
	}
	target.AddBinding(b)
}

// lookupLocal returns the nearest binding named n in this scope only (last
// declared wins, matching JS re-declaration semantics within one scope).
func (e *Environment) lookupLocal(n string) *Binding {
	for i := len(e.bindings) - 1; i >= 0; i-- {
		if e.bindings[i].Name == n {
			return e.bindings[i]
		}
	}
	return nil
}

// Lookup searches this scope then its ancestors for a binding named n.
func (e *Environment) Lookup(n string) (*Binding, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if b := cur.lookupLocal(n); b != nil {
			return b, true
		}
	}
	return nil, false
}

// LookupModuleRef is like Lookup but only returns a binding whose Module is
// set.
func (e *Environment) LookupModuleRef(n string) (*Binding, bool) {
	b, ok := e.Lookup(n)
	if !ok {
		return nil, false
	}
	if _, isModule := b.Module(); !isModule {
		return nil, false
	}
	return b, true
}

// HasBinding is the boolean form of Lookup.
func (e *Environment) HasBinding(n string) bool {
	_, ok := e.Lookup(n)
	return ok
}
