package evaluator

import "github.com/vscfl/vscfl/internal/typesystem"

// Closure records the free variables captured by a lambda (spec.md §3.5): a
// snapshot mapping from identifier to the Value it held at capture time.
type Closure struct {
	Bindings map[string]Value
}

// NewClosure builds a closure snapshotting the given locals.
func NewClosure(locals map[string]Value) *Closure {
	b := make(map[string]Value, len(locals))
	for k, v := range locals {
		b[k] = v
	}
	return &Closure{Bindings: b}
}

// Environment carries the state an expression reduces against (spec.md
// §4.5): already-evaluated globals, current local bindings, the active
// impl-type (when evaluating an impl variable), and the active closure for
// lambda bodies.
type Environment struct {
	Globals  map[string]Value
	Locals   map[string]Value
	Parent   *Environment
	ImplType *typesystem.TypeName
}

// NewEnvironment builds a root environment over the given (shared) globals map.
func NewEnvironment(globals map[string]Value, implType *typesystem.TypeName) *Environment {
	return &Environment{Globals: globals, Locals: map[string]Value{}, ImplType: implType}
}

// Child builds a nested scope (e.g. entering a let body or a lambda call).
func (e *Environment) Child() *Environment {
	return &Environment{Globals: e.Globals, Locals: map[string]Value{}, Parent: e, ImplType: e.ImplType}
}

// Lookup resolves ident through locals (innermost first), then globals.
func (e *Environment) Lookup(ident string) (Value, bool) {
	for env := e; env != nil; env = env.Parent {
		if v, ok := env.Locals[ident]; ok {
			return v, true
		}
	}
	v, ok := e.Globals[ident]
	return v, ok
}

// Bind introduces a new local binding in the current (innermost) scope.
func (e *Environment) Bind(ident string, v Value) {
	e.Locals[ident] = v
}

// Snapshot flattens every visible local binding, innermost wins — used when
// a lambda captures its enclosing scope into a Closure (spec.md §3.5).
func (e *Environment) Snapshot() map[string]Value {
	out := map[string]Value{}
	var chain []*Environment
	for env := e; env != nil; env = env.Parent {
		chain = append(chain, env)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].Locals {
			out[k] = v
		}
	}
	return out
}
