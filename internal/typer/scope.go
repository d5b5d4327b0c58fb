package typer

import "github.com/vscfl/vscfl/internal/typesystem"

// scope is a chained lexical environment from identifier to the LocalType
// slot it was bound at (lambda/function parameters, let-bindings, match
// arms), mirroring the evaluator's Environment but carrying type slots
// instead of Values (spec.md §3.3, §4.3).
type scope struct {
	vars   map[string]typesystem.LocalType
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: map[string]typesystem.LocalType{}, parent: parent}
}

func (s *scope) bind(ident string, lt typesystem.LocalType) {
	s.vars[ident] = lt
}

func (s *scope) lookup(ident string) (typesystem.LocalType, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if lt, ok := sc.vars[ident]; ok {
			return lt, true
		}
	}
	return 0, false
}

// lookupBounded resolves ident the same way lookup does, but additionally
// reports whether the binding it found lies at or outside boundary — i.e.
// outside a lambda's own scope, and therefore a capture of that lambda
// (spec.md §4.3 "every local type referenced from the lambda body but
// defined outside it").
func (s *scope) lookupBounded(ident string, boundary *scope) (local typesystem.LocalType, found bool, outside bool) {
	insideBoundary := true
	for sc := s; sc != nil; sc = sc.parent {
		if lt, ok := sc.vars[ident]; ok {
			return lt, true, !insideBoundary
		}
		if sc == boundary {
			insideBoundary = false
		}
	}
	return 0, false, false
}
