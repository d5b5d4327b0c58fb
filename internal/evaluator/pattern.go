package evaluator

import (
	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
)

// evalMatch reduces a match expression: the scrutinee is evaluated once,
// then tried against each case's pattern in order (spec.md §4.5 "Pattern
// matching semantics"). Static non-exhaustiveness is reported by the
// separate CheckExhaustiveness pass (exhaustiveness.go, spec.md §8 E5); here
// a fallthrough with no matching arm is reported as a single E003 at the
// match's position.
func (ev *Evaluator) evalMatch(ex *ast.MatchExpr, env *Environment, errs *diagnostics.Errors, owner string) (Value, bool) {
	scrutinee, ok := ev.evalExpr(ex.Scrutinee, env, errs, owner)
	if !ok {
		return nil, false
	}
	for _, c := range ex.Cases {
		child := env.Child()
		if ev.matchPattern(c.Pattern, scrutinee, child, errs) {
			return ev.evalExpr(c.Value, child, errs, owner)
		}
	}
	*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE003, ex.Pos(), "non-exhaustive patterns"))
	return nil, false
}

// matchPattern attempts to match v against p, binding identifiers into env
// on success. A named field that the constructor doesn't have is reported as
// N004; every other non-match, including an arity or constructor
// disagreement, returns false without diagnostics (the caller tries the next
// case).
func (ev *Evaluator) matchPattern(p ast.Pattern, v Value, env *Environment, errs *diagnostics.Errors) bool {
	switch pt := p.(type) {
	case *ast.WildcardPattern:
		return true

	case *ast.VarPattern:
		env.Bind(pt.Name, v)
		return true

	case *ast.AtPattern:
		if !ev.matchPattern(pt.Elem, v, env, errs) {
			return false
		}
		env.Bind(pt.Name, v)
		return true

	case *ast.AsPattern:
		casted, ok := ev.castValue(v, pt.Type)
		if !ok {
			return false
		}
		env.Bind(pt.Name, casted)
		return true

	case *ast.ConstPattern:
		d, ok := v.(DataObj)
		return ok && d.Constructor == pt.Ident && len(d.Args) == 0

	case *ast.UnnamedFieldConPattern:
		d, ok := v.(DataObj)
		if !ok || d.Constructor != pt.Ident || len(d.Args) != len(pt.Elems) {
			return false
		}
		for i, el := range pt.Elems {
			if !ev.matchPattern(el, d.Args[i], env, errs) {
				return false
			}
		}
		return true

	case *ast.NamedFieldConPattern:
		d, ok := v.(DataObj)
		if !ok || d.Constructor != pt.Ident {
			return false
		}
		for _, f := range pt.Fields {
			idx, ok := ev.fieldIndex(pt.Ident, f.Name)
			if !ok || idx >= len(d.Args) {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN004, pt.Pos(), "undefined field for evaluation of variable values"))
				return false
			}
			if !ev.matchPattern(f.Pattern, d.Args[idx], env, errs) {
				return false
			}
		}
		return true

	case *ast.LiteralPattern:
		return ev.matchLiteral(pt, v, env, errs)

	case *ast.AltPattern:
		if ev.matchPattern(pt.Left, v, env, errs) {
			return true
		}
		return ev.matchPattern(pt.Right, v, env, errs)
	}
	return false
}

func (ev *Evaluator) fieldIndex(constructor, name string) (int, bool) {
	td := ev.Tree.TypeVars
	for _, t := range td {
		for _, c := range t.Constructors {
			if c.Name == constructor {
				idx, ok := c.FieldIndex[name]
				return idx, ok
			}
		}
	}
	return 0, false
}

func (ev *Evaluator) matchLiteral(pt *ast.LiteralPattern, v Value, env *Environment, errs *diagnostics.Errors) bool {
	switch pt.Kind {
	case ast.LitBool:
		b, ok := v.(BoolValue)
		return ok && bool(b) == pt.Bool
	case ast.LitChar, ast.LitShort, ast.LitInt, ast.LitLong, ast.LitUShort, ast.LitUInt, ast.LitULong:
		iv, ok := intOf(v)
		return ok && iv == pt.Int
	case ast.LitFloat, ast.LitDouble:
		fv, ok := asFloat(v)
		return ok && fv == pt.Float
	case ast.LitString:
		s, ok := v.(StringObj)
		return ok && string(s.Bytes) == pt.Str
	case ast.LitTuple:
		t, ok := v.(TupleObj)
		if !ok || len(t.Fields) != len(pt.Fields) {
			return false
		}
		for i, f := range pt.Fields {
			if !ev.matchPattern(f, t.Fields[i], env, errs) {
				return false
			}
		}
		return true
	case ast.LitArray:
		a, ok := v.(ArrayObj)
		if !ok || len(a.Elems) != len(pt.Elems) {
			return false
		}
		for i, el := range pt.Elems {
			if !ev.matchPattern(el, a.Elems[i], env, errs) {
				return false
			}
		}
		return true
	case ast.LitFilledArray:
		a, ok := v.(ArrayObj)
		if !ok || len(a.Elems) != pt.Len {
			return false
		}
		for _, el := range a.Elems {
			if !ev.matchPattern(pt.Filled, el, env, errs) {
				return false
			}
		}
		return true
	}
	return false
}

func intOf(v Value) (int64, bool) {
	switch n := v.(type) {
	case CharValue:
		return int64(n), true
	case ShortValue:
		return int64(n), true
	case IntValue:
		return int64(n), true
	case LongValue:
		return int64(n), true
	case UShortValue:
		return int64(n), true
	case UIntValue:
		return int64(n), true
	case ULongValue:
		return int64(n), true
	}
	return 0, false
}

func (ev *Evaluator) castValue(v Value, te ast.TypeExpr) (Value, bool) {
	name, ok := te.(*ast.NamedTypeExpr)
	if !ok {
		return nil, false
	}
	f, ok := asFloat(v)
	if !ok {
		if iv, iok := intOf(v); iok {
			f, ok = float64(iv), true
		}
	}
	if !ok {
		return nil, false
	}
	switch name.Name {
	case "Int":
		return IntValue(int32(f)), true
	case "Long":
		return LongValue(int64(f)), true
	case "Short":
		return ShortValue(int16(f)), true
	case "Float":
		return FloatValue(float32(f)), true
	case "Double":
		return DoubleValue(f), true
	}
	return nil, false
}
