package typer

import (
	"fmt"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// elaborateExpr assigns e a LocalType slot in lt and returns it, recursing
// per spec.md §4.3's per-construct rules (literals fix the slot, lambdas
// build a Fun shape from fresh param slots, application unifies the callee
// against a derived Fun(args..., result), field access resolves through the
// constructor's declared field types, let/match unify every arm against a
// shared result slot).
func (ty *Typer) elaborateExpr(e ast.Expr, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	local := ty.elaborateExprInner(e, lt, sc, errs)
	e.SetTypeOf(local)
	return local
}

func (ty *Typer) elaborateExprInner(e ast.Expr, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		return ty.elaborateLiteral(ex, lt, sc, errs)

	case *ast.LambdaExpr:
		inner := newScope(sc)
		ty.pushCapture(sc)
		argVals := make([]typesystem.TypeValue, 0, len(ex.Params)+1)
		for _, p := range ex.Params {
			var pl typesystem.LocalType
			if p.Type != nil {
				pl = lt.AddTypeValue(typeExprToValue(p.Type, lt, typeParamScope{}))
			} else {
				pl = lt.AddParam(typesystem.Inferred)
			}
			p.LocalType = pl
			inner.bind(p.Name, pl)
			argVals = append(argVals, asTypeValue(lt.Entry(pl), pl))
		}
		bodyLocal := ty.elaborateExpr(ex.Body, lt, inner, errs)
		argVals = append(argVals, asTypeValue(lt.Entry(bodyLocal), bodyLocal))
		captured := ty.popCapture()

		// The lambda's own slot is Fun-constrained rather than a fixed
		// concrete value so the closure capture set has somewhere to live
		// (spec.md §4.3); the instancer resolves it to a concrete function
		// shape once sharedness of each capture is known (spec.md §4.4 step 4).
		funLocal := lt.AddParam(typesystem.Inferred)
		entry := lt.Entry(funLocal)
		entry.ParamEntry.AddTrait(typesystem.TraitName{Kind: typesystem.TraitFun})
		entry.ParamEntry.TypeValues = argVals
		for c := range captured {
			entry.ParamEntry.AddClosureLocalType(c)
		}
		return funLocal

	case *ast.VarExpr:
		if local, ok := sc.lookup(ex.Ident); ok {
			ty.recordCapture(sc, ex.Ident)
			return local
		}
		return ty.localForGlobal(ex.Ident, lt)

	case *ast.NamedFieldConAppExpr:
		return ty.elaborateConApp(ex, lt, sc, errs)

	case *ast.PrintfAppExpr:
		for _, a := range ex.Args {
			ty.elaborateExpr(a, lt, sc, errs)
		}
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameTuple}})

	case *ast.AppExpr:
		calleeLocal := ty.elaborateExpr(ex.Callee, lt, sc, errs)
		argVals := make([]typesystem.TypeValue, 0, len(ex.Args)+1)
		for _, a := range ex.Args {
			al := ty.elaborateExpr(a, lt, sc, errs)
			argVals = append(argVals, asTypeValue(lt.Entry(al), al))
		}
		resultLocal := lt.AddParam(typesystem.Inferred)
		argVals = append(argVals, asTypeValue(lt.Entry(resultLocal), resultLocal))
		expected := lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameFun}, Args: argVals})
		res := ty.Matcher.Matches(calleeLocal, expected, lt)
		if res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, ex.Pos(), fmt.Sprintf("application: %s", res.Reason)))
		}
		return resultLocal

	case *ast.GetFieldExpr:
		recvLocal := ty.elaborateExpr(ex.Recv, lt, sc, errs)
		return ty.elaborateFieldAccess(recvLocal, ex.Field, ex.Pos(), lt, errs)

	case *ast.Get2FieldExpr:
		recvLocal := ty.elaborateExpr(ex.Recv, lt, sc, errs)
		fieldLocal := ty.elaborateFieldAccess(recvLocal, ex.Field, ex.Pos(), lt, errs)
		ty.forceUniq(lt, recvLocal)
		ty.forceUniq(lt, fieldLocal)
		return fieldLocal

	case *ast.SetFieldExpr:
		recvLocal := ty.elaborateExpr(ex.Recv, lt, sc, errs)
		fieldLocal := ty.elaborateFieldAccess(recvLocal, ex.Field, ex.Pos(), lt, errs)
		valLocal := ty.elaborateExpr(ex.Value, lt, sc, errs)
		res := ty.Matcher.Matches(valLocal, fieldLocal, lt)
		if res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, ex.Pos(), fmt.Sprintf("field update: %s", res.Reason)))
		}
		return recvLocal

	case *ast.UpdateFieldExpr:
		recvLocal := ty.elaborateExpr(ex.Recv, lt, sc, errs)
		fieldLocal := ty.elaborateFieldAccess(recvLocal, ex.Field, ex.Pos(), lt, errs)
		ty.elaborateExpr(ex.Fn, lt, sc, errs)
		ty.forceUniq(lt, recvLocal)
		ty.forceUniq(lt, fieldLocal)
		return recvLocal

	case *ast.UpdateGet2FieldExpr:
		recvLocal := ty.elaborateExpr(ex.Recv, lt, sc, errs)
		fieldLocal := ty.elaborateFieldAccess(recvLocal, ex.Field, ex.Pos(), lt, errs)
		ty.elaborateExpr(ex.Fn, lt, sc, errs)
		ty.forceUniq(lt, recvLocal)
		ty.forceUniq(lt, fieldLocal)
		prevVal := asTypeValue(lt.Entry(fieldLocal), fieldLocal)
		containerVal := asTypeValue(lt.Entry(recvLocal), recvLocal)
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameTuple}, Args: []typesystem.TypeValue{prevVal, containerVal}})

	case *ast.UniqExpr:
		elemLocal := ty.elaborateExpr(ex.Elem, lt, sc, errs)
		ty.forceUniq(lt, elemLocal)
		return elemLocal

	case *ast.SharedExpr:
		elemLocal := ty.elaborateExpr(ex.Elem, lt, sc, errs)
		if !ty.Matcher.SetShared(elemLocal, lt) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT002, ex.Pos(), "value can't be shared"))
		}
		return elemLocal

	case *ast.TypedExpr:
		elemLocal := ty.elaborateExpr(ex.Elem, lt, sc, errs)
		declared := lt.AddTypeValue(typeExprToValue(ex.Type, lt, typeParamScope{}))
		res := ty.Matcher.Matches(elemLocal, declared, lt)
		if res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, ex.Pos(), fmt.Sprintf("typed expression: %s", res.Reason)))
		}
		return declared

	case *ast.AsExpr:
		ty.elaborateExpr(ex.Elem, lt, sc, errs)
		return lt.AddTypeValue(typeExprToValue(ex.Type, lt, typeParamScope{}))

	case *ast.IfExpr:
		condLocal := ty.elaborateExpr(ex.Cond, lt, sc, errs)
		boolLocal := lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: "Bool"}})
		if res := ty.Matcher.Matches(condLocal, boolLocal, lt); res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, ex.Cond.Pos(), "if condition must be Bool"))
		}
		thenLocal := ty.elaborateExpr(ex.Then, lt, sc, errs)
		elseLocal := ty.elaborateExpr(ex.Else, lt, sc, errs)
		if res := ty.Matcher.Matches(elseLocal, thenLocal, lt); res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, ex.Pos(), fmt.Sprintf("if branches: %s", res.Reason)))
		}
		return thenLocal

	case *ast.LetExpr:
		inner := newScope(sc)
		for _, b := range ex.Binds {
			valLocal := ty.elaborateExpr(b.Value, lt, inner, errs)
			patLocal := ty.elaboratePattern(b.Pattern, lt, inner, errs)
			if res := ty.Matcher.Matches(valLocal, patLocal, lt); res.Status != typesystem.Matched {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT005, b.Pattern.Pos(), fmt.Sprintf("let binding: %s", res.Reason)))
			}
		}
		return ty.elaborateExpr(ex.Body, lt, inner, errs)

	case *ast.MatchExpr:
		scrutineeLocal := ty.elaborateExpr(ex.Scrutinee, lt, sc, errs)
		resultLocal := lt.AddParam(typesystem.Inferred)
		for _, c := range ex.Cases {
			inner := newScope(sc)
			patLocal := ty.elaboratePattern(c.Pattern, lt, inner, errs)
			if res := ty.Matcher.Matches(scrutineeLocal, patLocal, lt); res.Status != typesystem.Matched {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT005, c.Pattern.Pos(), fmt.Sprintf("match case: %s", res.Reason)))
			}
			valLocal := ty.elaborateExpr(c.Value, lt, inner, errs)
			if res := ty.Matcher.Matches(valLocal, resultLocal, lt); res.Status != typesystem.Matched {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, c.Value.Pos(), fmt.Sprintf("match arm: %s", res.Reason)))
			}
		}
		return resultLocal
	}
	return lt.AddParam(typesystem.Inferred)
}

var primitiveKind = map[ast.LiteralKind]string{
	ast.LitBool: "Bool", ast.LitChar: "Char", ast.LitShort: "Short", ast.LitInt: "Int",
	ast.LitLong: "Long", ast.LitUShort: "UShort", ast.LitUInt: "UInt", ast.LitULong: "ULong",
	ast.LitHalf: "Half", ast.LitFloat: "Float", ast.LitDouble: "Double", ast.LitString: "String",
}

func (ty *Typer) elaborateLiteral(ex *ast.LiteralExpr, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	switch ex.Kind {
	case ast.LitTuple:
		args := make([]typesystem.TypeValue, 0, len(ex.Fields))
		for _, f := range ex.Fields {
			fl := ty.elaborateExpr(f, lt, sc, errs)
			args = append(args, asTypeValue(lt.Entry(fl), fl))
		}
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameTuple}, Args: args})
	case ast.LitArray:
		var elemVal typesystem.TypeValue
		elemLocal := lt.AddParam(typesystem.Inferred)
		for _, el := range ex.Elems {
			elLocal := ty.elaborateExpr(el, lt, sc, errs)
			if res := ty.Matcher.Matches(elLocal, elemLocal, lt); res.Status != typesystem.Matched {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, el.Pos(), fmt.Sprintf("array element: %s", res.Reason)))
			}
		}
		n := len(ex.Elems)
		elemVal = asTypeValue(lt.Entry(elemLocal), elemLocal)
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameArray, ArrLen: &n}, Args: []typesystem.TypeValue{elemVal}})
	case ast.LitFilledArray:
		filledLocal := ty.elaborateExpr(ex.Filled, lt, sc, errs)
		n := ex.Len
		return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameArray, ArrLen: &n}, Args: []typesystem.TypeValue{asTypeValue(lt.Entry(filledLocal), filledLocal)}})
	}
	name, ok := primitiveKind[ex.Kind]
	if !ok {
		name = "Int"
	}
	return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: name}})
}

func (ty *Typer) elaborateConApp(ex *ast.NamedFieldConAppExpr, lt *typesystem.LocalTypes, sc *scope, errs *diagnostics.Errors) typesystem.LocalType {
	typeDef := ty.typeDefForConstructor(ex.ConstructorIdent)
	for _, f := range ex.Fields {
		fieldLocal := ty.elaborateExpr(f.Expr, lt, sc, errs)
		if typeDef == nil {
			continue
		}
		ctor := constructorByName(typeDef, ex.ConstructorIdent)
		if ctor == nil {
			continue
		}
		idx, ok := ctor.FieldIndex[f.Name]
		if !ok || idx >= len(ctor.NamedFields) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN004, f.Expr.Pos(), fmt.Sprintf("unknown field %s on constructor %s", f.Name, ex.ConstructorIdent)))
			continue
		}
		declared := lt.AddTypeValue(typeExprToValue(ctor.NamedFields[idx].Type, lt, typeParamScope{}))
		if res := ty.Matcher.Matches(fieldLocal, declared, lt); res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, f.Expr.Pos(), fmt.Sprintf("field %s: %s", f.Name, res.Reason)))
		}
	}
	if typeDef == nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, ex.Pos(), fmt.Sprintf("unknown constructor %s", ex.ConstructorIdent)))
		return lt.AddParam(typesystem.Inferred)
	}
	return lt.AddTypeValue(typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameIdent, Ident: typeDef.Name}})
}

// forceUniq tags local's current value Uniq in place, whether it's already
// concrete or still an open parameter slot (spec.md §4.3 "a ->/<-> on a
// field forces the containing slot and that field's local type to Uniq").
func (ty *Typer) forceUniq(lt *typesystem.LocalTypes, local typesystem.LocalType) {
	e := lt.Entry(local)
	if e == nil {
		return
	}
	if e.Kind == typesystem.EntryType {
		if cv, ok := e.Value.(typesystem.ConcreteValue); ok {
			cv.Uniq = typesystem.Uniq
			lt.SetType(local, cv)
		}
	} else {
		e.UniqOverride = typesystem.Uniq
	}
}

func (ty *Typer) elaborateFieldAccess(recvLocal typesystem.LocalType, field ast.FieldRef, pos fmt.Stringer, lt *typesystem.LocalTypes, errs *diagnostics.Errors) typesystem.LocalType {
	e := lt.Entry(recvLocal)
	if e == nil || e.Kind != typesystem.EntryType {
		return lt.AddParam(typesystem.Inferred)
	}
	cv, ok := e.Value.(typesystem.ConcreteValue)
	if !ok {
		return lt.AddParam(typesystem.Inferred)
	}
	if cv.Name.Kind == typesystem.NameTuple && field.Index != nil && *field.Index < len(cv.Args) {
		return lt.AddTypeValue(cv.Args[*field.Index])
	}
	typeDef := ty.Tree.TypeVars[cv.Name.Ident]
	if typeDef == nil || len(typeDef.Constructors) != 1 {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN004, pos, "undefined field"))
		return lt.AddParam(typesystem.Inferred)
	}
	ctor := typeDef.Constructors[0]
	if field.Index != nil && *field.Index < len(ctor.Fields) {
		return lt.AddTypeValue(typeExprToValue(ctor.Fields[*field.Index], lt, typeParamScope{}))
	}
	if idx, ok := ctor.FieldIndex[field.Name]; ok && idx < len(ctor.NamedFields) {
		return lt.AddTypeValue(typeExprToValue(ctor.NamedFields[idx].Type, lt, typeParamScope{}))
	}
	*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN004, pos, "undefined field"))
	return lt.AddParam(typesystem.Inferred)
}

func (ty *Typer) typeDefForConstructor(ident string) *ast.TypeDef {
	for _, td := range ty.Tree.TypeVars {
		if constructorByName(td, ident) != nil {
			return td
		}
	}
	return nil
}

func constructorByName(td *ast.TypeDef, ident string) *ast.DataConstructor {
	for _, c := range td.Constructors {
		if c.Name == ident {
			return c
		}
	}
	return nil
}

// localForGlobal resolves a bare identifier to its declared type, re-hosted
// into the current arena as a fresh slot (cross-arena references can't share
// a TypeParamEntry directly; the instancer stage re-binds them at each call
// site via the type stack, spec.md §4.4).
func (ty *Typer) localForGlobal(ident string, lt *typesystem.LocalTypes) typesystem.LocalType {
	def, ok := ty.Tree.ValueVars[ident]
	if !ok {
		return lt.AddParam(typesystem.Inferred)
	}
	var declared typesystem.TypeValue
	switch d := def.(type) {
	case *ast.VariableDef:
		declared = d.Type.Value
	case *ast.FunctionDef:
		declared = d.Type.Value
	}
	if declared == nil {
		return lt.AddParam(typesystem.Inferred)
	}
	return lt.AddTypeValue(declared)
}
