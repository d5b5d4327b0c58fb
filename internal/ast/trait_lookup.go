package ast

import "github.com/vscfl/vscfl/internal/typesystem"

// FindImpl implements typesystem.TraitImplLookup: it reports whether an
// implementation of traitIdent exists for typeName.Ident, and if so returns
// the impl's positional trait-argument type values (spec.md §4.1 "Parameter
// x Concrete... the concrete type must have an implementation in scope").
func (t *Tree) FindImpl(traitIdent string, typeName typesystem.TypeName) ([]typesystem.TypeValue, bool) {
	byType, ok := t.Impls[traitIdent]
	if !ok {
		return nil, false
	}
	impl, ok := byType[typeName.Ident]
	if !ok {
		return nil, false
	}
	return impl.TraitArgs, true
}

// BuiltinSharedFlag implements typesystem.TraitImplLookup: the built-in
// sharedness of a named primitive/vector type (spec.md §3.2).
func (t *Tree) BuiltinSharedFlag(ident string) (typesystem.SharedFlag, bool) {
	sf, ok := t.BuiltinShared[ident]
	return sf, ok
}
