package typer

import (
	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// typeParamScope maps a syntactic type-parameter name (declared on a
// TypeDef/FunctionDef/TraitDef) to the LocalType parameter slot that
// represents it within the definition currently being elaborated.
type typeParamScope map[string]typesystem.LocalType

// typeExprToValue translates a syntactic TypeExpr into a typesystem.TypeValue
// against lt, resolving bare-name type-parameter references through params
// (spec.md §3.2-§3.3 "seeding a signature's declared shape").
func typeExprToValue(te ast.TypeExpr, lt *typesystem.LocalTypes, params typeParamScope) typesystem.TypeValue {
	switch t := te.(type) {
	case *ast.NamedTypeExpr:
		args := make([]typesystem.TypeValue, 0, len(t.Args))
		for _, a := range t.Args {
			args = append(args, typeExprToValue(a, lt, params))
		}
		return typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: t.Name}, Args: args}

	case *ast.TupleTypeExpr:
		args := make([]typesystem.TypeValue, 0, len(t.Fields))
		for _, f := range t.Fields {
			args = append(args, typeExprToValue(f, lt, params))
		}
		return typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameTuple}, Args: args}

	case *ast.ArrayTypeExpr:
		elem := typeExprToValue(t.Elem, lt, params)
		return typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameArray, ArrLen: t.Len}, Args: []typesystem.TypeValue{elem}}

	case *ast.FunTypeExpr:
		args := make([]typesystem.TypeValue, 0, len(t.Params)+1)
		for _, p := range t.Params {
			args = append(args, typeExprToValue(p, lt, params))
		}
		args = append(args, typeExprToValue(t.Result, lt, params))
		return typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameFun}, Args: args}

	case *ast.UniqTypeExpr:
		v := typeExprToValue(t.Elem, lt, params)
		if cv, ok := v.(typesystem.ConcreteValue); ok {
			cv.Uniq = typesystem.Uniq
			return cv
		}
		if pv, ok := v.(typesystem.ParamValue); ok {
			pv.Uniq = typesystem.Uniq
			return pv
		}
		return v

	case *ast.ParamTypeExpr:
		if local, ok := params[t.Name]; ok {
			uniq := typesystem.UniqNone
			if t.Uniq {
				uniq = typesystem.Uniq
			}
			return typesystem.ParamValue{Uniq: uniq, Local: local}
		}
		// Unbound reference: allocate a fresh inferred parameter slot.
		fresh := lt.AddParam(typesystem.Inferred)
		params[t.Name] = fresh
		return typesystem.ParamValue{Local: fresh}
	}
	return typesystem.UnitType()
}

// declareTypeParams allocates one LocalType parameter slot per declared
// name, in order, returning the scope used to resolve ParamTypeExpr
// references within the rest of the signature/body.
func declareTypeParams(names []string, lt *typesystem.LocalTypes) typeParamScope {
	scope := make(typeParamScope, len(names))
	for _, n := range names {
		scope[n] = lt.AddParam(typesystem.Defined)
	}
	return scope
}
