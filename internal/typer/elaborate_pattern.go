package typer

import (
	"fmt"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// elaboratePattern assigns p a LocalType slot, binding any introduced
// identifiers into sc, per spec.md §4.5's pattern shapes (shared with the
// typer since a pattern's shape constrains its scrutinee the same way an
// expression's shape constrains its usage site).
func (ty *Typer) elaboratePattern(p ast.Pattern, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	local := ty.elaboratePatternInner(p, lt, sc, errs)
	p.SetTypeOf(local)
	return local
}

func (ty *Typer) elaboratePatternInner(p ast.Pattern, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	switch pt := p.(type) {
	case *ast.WildcardPattern:
		return lt.AddParam(typesystem.Inferred)

	case *ast.VarPattern:
		local := lt.AddParam(typesystem.Inferred)
		sc.bind(pt.Name, local)
		return local

	case *ast.AtPattern:
		elemLocal := ty.elaboratePattern(pt.Elem, lt, sc, errs)
		sc.bind(pt.Name, elemLocal)
		return elemLocal

	case *ast.AsPattern:
		local := lt.AddTypeValue(typeExprToValue(pt.Type, lt, typeParamScope{}))
		sc.bind(pt.Name, local)
		return local

	case *ast.ConstPattern:
		return ty.constructorResultLocal(pt.Ident, pt.Pos(), lt, errs)

	case *ast.UnnamedFieldConPattern:
		typeDef := ty.typeDefForConstructor(pt.Ident)
		if typeDef != nil {
			ctor := constructorByName(typeDef, pt.Ident)
			for i, el := range pt.Elems {
				elLocal := ty.elaboratePattern(el, lt, sc, errs)
				if ctor != nil && i < len(ctor.Fields) {
					declared := lt.AddTypeValue(typeExprToValue(ctor.Fields[i], lt, typeParamScope{}))
					if res := ty.Matcher.Matches(elLocal, declared, lt); res.Status != typesystem.Matched {
						*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT005, el.Pos(), fmt.Sprintf("pattern field %d: %s", i, res.Reason)))
					}
				}
			}
			return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: typeDef.Name}})
		}
		for _, el := range pt.Elems {
			ty.elaboratePattern(el, lt, sc, errs)
		}
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, pt.Pos(), fmt.Sprintf("unknown constructor %s", pt.Ident)))
		return lt.AddParam(typesystem.Inferred)

	case *ast.NamedFieldConPattern:
		typeDef := ty.typeDefForConstructor(pt.Ident)
		var ctor *ast.DataConstructor
		if typeDef != nil {
			ctor = constructorByName(typeDef, pt.Ident)
		}
		for _, f := range pt.Fields {
			fLocal := ty.elaboratePattern(f.Pattern, lt, sc, errs)
			if ctor == nil {
				continue
			}
			idx, ok := ctor.FieldIndex[f.Name]
			if !ok || idx >= len(ctor.NamedFields) {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN004, f.Pattern.Pos(), fmt.Sprintf("unknown field %s", f.Name)))
				continue
			}
			declared := lt.AddTypeValue(typeExprToValue(ctor.NamedFields[idx].Type, lt, typeParamScope{}))
			if res := ty.Matcher.Matches(fLocal, declared, lt); res.Status != typesystem.Matched {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT005, f.Pattern.Pos(), fmt.Sprintf("pattern field %s: %s", f.Name, res.Reason)))
			}
		}
		if typeDef == nil {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, pt.Pos(), fmt.Sprintf("unknown constructor %s", pt.Ident)))
			return lt.AddParam(typesystem.Inferred)
		}
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: typeDef.Name}})

	case *ast.LiteralPattern:
		return ty.elaborateLiteralPattern(pt, lt, sc, errs)

	case *ast.AltPattern:
		// Alternative patterns permit no variable bindings on either side
		// (spec.md §4.5); elaborate both against a fresh shared scope without
		// propagating bindings upward.
		throwaway := newScope(sc)
		leftLocal := ty.elaboratePattern(pt.Left, lt, throwaway, errs)
		rightLocal := ty.elaboratePattern(pt.Right, lt, throwaway, errs)
		if res := ty.Matcher.Matches(rightLocal, leftLocal, lt); res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT005, pt.Pos(), fmt.Sprintf("alternative pattern: %s", res.Reason)))
		}
		return leftLocal
	}
	return lt.AddParam(typesystem.Inferred)
}

func (ty *Typer) constructorResultLocal(ident string, pos fmt.Stringer, lt *typesystem.LocalTypes, errs *diagnostics.Errors) typesystem.LocalType {
	typeDef := ty.typeDefForConstructor(ident)
	if typeDef == nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, pos, fmt.Sprintf("unknown constructor %s", ident)))
		return lt.AddParam(typesystem.Inferred)
	}
	return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: typeDef.Name}})
}

var litPatternKind = primitiveKind

func (ty *Typer) elaborateLiteralPattern(pt *ast.LiteralPattern, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	switch pt.Kind {
	case ast.LitTuple:
		args := make([]typesystem.TypeValue, 0, len(pt.Fields))
		for _, f := range pt.Fields {
			fl := ty.elaboratePattern(f, lt, sc, errs)
			args = append(args, asTypeValue(lt.Entry(fl), fl))
		}
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameTuple}, Args: args})
	case ast.LitArray:
		elemLocal := lt.AddParam(typesystem.Inferred)
		for _, el := range pt.Elems {
			elLocal := ty.elaboratePattern(el, lt, sc, errs)
			if res := ty.Matcher.Matches(elLocal, elemLocal, lt); res.Status != typesystem.Matched {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT005, el.Pos(), fmt.Sprintf("array pattern element: %s", res.Reason)))
			}
		}
		n := len(pt.Elems)
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameArray, ArrLen: &n}, Args: []typesystem.TypeValue{asTypeValue(lt.Entry(elemLocal), elemLocal)}})
	case ast.LitFilledArray:
		filledLocal := ty.elaboratePattern(pt.Filled, lt, sc, errs)
		n := pt.Len
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameArray, ArrLen: &n}, Args: []typesystem.TypeValue{asTypeValue(lt.Entry(filledLocal), filledLocal)}})
	}
	name, ok := litPatternKind[pt.Kind]
	if !ok {
		name = "Int"
	}
	return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: name}})
}
