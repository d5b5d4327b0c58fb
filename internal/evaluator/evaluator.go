package evaluator

import (
	"fmt"
	"math"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
)

type varStatus int

const (
	notStarted varStatus = iota
	inProgress
	done
	failed
)

// Evaluator reduces global and impl variable initializers to Values via a
// dependency-ordered DFS (spec.md §4.5). Trait default methods are not
// reduced.
type Evaluator struct {
	Tree   *ast.Tree
	status map[string]varStatus
	values map[string]Value
}

// New builds an Evaluator over tree.
func New(tree *ast.Tree) *Evaluator {
	return &Evaluator{Tree: tree, status: map[string]varStatus{}, values: map[string]Value{}}
}

// EvaluateAll reduces every global variable initializer in tree order
// (spec.md §4.5), attaching results to each VariableDef.Value, and returns
// the accumulated diagnostic batch.
func (ev *Evaluator) EvaluateAll() diagnostics.Errors {
	var errs diagnostics.Errors
	for _, def := range ev.Tree.Defs {
		if v, ok := def.(*ast.VariableDef); ok && v.Initializer != nil {
			ev.evalGlobal(v.Name, &errs)
		}
	}
	// Impl variables (spec.md §4.5) reduce the same way, scoped to their own
	// environment with an active impl-type. Trait default methods are not
	// visited here.
	for _, def := range ev.Tree.Defs {
		impl, ok := def.(*ast.ImplementationDef)
		if !ok || impl.IsBuiltin {
			continue
		}
		implType := impl.ImplType
		for _, v := range impl.Variables {
			if v.Initializer == nil {
				continue
			}
			env := NewEnvironment(ev.values, &implType)
			val, ok := ev.evalExpr(v.Initializer, env, &errs, v.Name)
			if ok {
				v.Value = val
			}
		}
	}
	return errs
}

func (ev *Evaluator) defPos(ident string) interface{ String() string } {
	if d, ok := ev.Tree.ValueVars[ident]; ok {
		return d.Pos()
	}
	return nil
}

func (ev *Evaluator) evalGlobal(ident string, errs *diagnostics.Errors) (Value, bool) {
	switch ev.status[ident] {
	case done:
		return ev.values[ident], true
	case inProgress:
		pos := ev.defPos(ident)
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE001, pos, fmt.Sprintf("definition of variable %s is recursive", ident)))
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE002, pos, fmt.Sprintf("unevaluated variable %s", ident)))
		ev.status[ident] = failed
		return nil, false
	case failed:
		return nil, false
	}

	def, ok := ev.Tree.ValueVars[ident].(*ast.VariableDef)
	if !ok || def.Initializer == nil {
		return nil, false
	}
	ev.status[ident] = inProgress
	env := NewEnvironment(ev.values, nil)
	val, ok := ev.evalExpr(def.Initializer, env, errs, ident)
	if !ok {
		if ev.status[ident] != failed {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE002, ev.defPos(ident), fmt.Sprintf("unevaluated variable %s", ident)))
			ev.status[ident] = failed
		}
		return nil, false
	}
	ev.status[ident] = done
	ev.values[ident] = val
	def.Value = val
	return val, true
}

// owner names the enclosing variable/function a lambda literal belongs to,
// for LambdaObj.Owner and the mangler's _VB scope (spec.md §3.5, §4.6).
func (ev *Evaluator) evalExpr(e ast.Expr, env *Environment, errs *diagnostics.Errors, owner string) (Value, bool) {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		return ev.evalLiteral(ex, env, errs, owner)

	case *ast.LambdaExpr:
		return LambdaObj{
			Owner:       owner,
			ImplType:    env.ImplType,
			LocalFunIdx: int(ex.LocalFun),
			Captured:    NewClosure(env.Snapshot()),
			Node:        ex,
		}, true

	case *ast.VarExpr:
		if v, ok := env.Lookup(ex.Ident); ok {
			return v, true
		}
		if v, ok := ev.evalGlobal(ex.Ident, errs); ok {
			return v, true
		}
		if _, ok := ev.Tree.ValueVars[ex.Ident].(*ast.FunctionDef); ok {
			return FunObj{Ident: ex.Ident, ImplType: env.ImplType}, true
		}
		return nil, false

	case *ast.NamedFieldConAppExpr:
		args := make([]Value, len(ex.Fields))
		ok := true
		for i, f := range ex.Fields {
			v, fok := ev.evalExpr(f.Expr, env, errs, owner)
			if !fok {
				ok = false
				continue
			}
			args[i] = v
		}
		if !ok {
			return nil, false
		}
		return DataObj{Constructor: ex.ConstructorIdent, Args: args}, true

	case *ast.PrintfAppExpr:
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE005, ex.Pos(), "printf isn't supported for evaluation of variable values"))
		return nil, false

	case *ast.AppExpr:
		return ev.evalApp(ex, env, errs, owner)

	case *ast.GetFieldExpr:
		recv, ok := ev.evalExpr(ex.Recv, env, errs, owner)
		if !ok {
			return nil, false
		}
		return ev.projectField(recv, ex.Field, ex.Pos(), errs)

	case *ast.Get2FieldExpr, *ast.SetFieldExpr, *ast.UpdateFieldExpr, *ast.UpdateGet2FieldExpr:
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE005, e.Pos(), "the affine field update operators aren't supported for evaluation of variable values"))
		return nil, false

	case *ast.UniqExpr:
		return ev.evalExpr(ex.Elem, env, errs, owner)

	case *ast.SharedExpr:
		return ev.evalExpr(ex.Elem, env, errs, owner)

	case *ast.TypedExpr:
		return ev.evalExpr(ex.Elem, env, errs, owner)

	case *ast.AsExpr:
		return ev.evalCast(ex, env, errs, owner)

	case *ast.IfExpr:
		cond, ok := ev.evalExpr(ex.Cond, env, errs, owner)
		if !ok {
			return nil, false
		}
		b, ok := cond.(BoolValue)
		if !ok {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE005, ex.Pos(), "if condition didn't evaluate to a boolean"))
			return nil, false
		}
		if bool(b) {
			return ev.evalExpr(ex.Then, env, errs, owner)
		}
		return ev.evalExpr(ex.Else, env, errs, owner)

	case *ast.LetExpr:
		child := env.Child()
		for _, b := range ex.Binds {
			v, ok := ev.evalExpr(b.Value, child, errs, owner)
			if !ok {
				return nil, false
			}
			if !ev.matchPattern(b.Pattern, v, child, errs) {
				return nil, false
			}
		}
		return ev.evalExpr(ex.Body, child, errs, owner)

	case *ast.MatchExpr:
		return ev.evalMatch(ex, env, errs, owner)
	}
	return nil, false
}

func (ev *Evaluator) evalLiteral(ex *ast.LiteralExpr, env *Environment, errs *diagnostics.Errors, owner string) (Value, bool) {
	switch ex.Kind {
	case ast.LitBool:
		return BoolValue(ex.Bool), true
	case ast.LitChar:
		return CharValue(int8(ex.Int)), true
	case ast.LitShort:
		return ShortValue(int16(ex.Int)), true
	case ast.LitInt:
		return IntValue(int32(ex.Int)), true
	case ast.LitLong:
		return LongValue(ex.Int), true
	case ast.LitUShort:
		return UShortValue(uint16(ex.Int)), true
	case ast.LitUInt:
		return UIntValue(uint32(ex.Int)), true
	case ast.LitULong:
		return ULongValue(uint64(ex.Int)), true
	case ast.LitHalf:
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE006, ex.Pos(), "can't cast value to type Half for evaluation of variable values"))
		return nil, false
	case ast.LitFloat:
		return FloatValue(float32(ex.Float)), true
	case ast.LitDouble:
		return DoubleValue(ex.Float), true
	case ast.LitString:
		return StringObj{Bytes: []byte(ex.Str)}, true
	case ast.LitTuple:
		fields := make([]Value, len(ex.Fields))
		for i, f := range ex.Fields {
			v, ok := ev.evalExpr(f, env, errs, owner)
			if !ok {
				return nil, false
			}
			fields[i] = v
		}
		return TupleObj{Fields: fields}, true
	case ast.LitArray:
		elems := make([]Value, len(ex.Elems))
		for i, el := range ex.Elems {
			v, ok := ev.evalExpr(el, env, errs, owner)
			if !ok {
				return nil, false
			}
			elems[i] = v
		}
		return ArrayObj{Elems: elems}, true
	case ast.LitFilledArray:
		v, ok := ev.evalExpr(ex.Filled, env, errs, owner)
		if !ok {
			return nil, false
		}
		elems := make([]Value, ex.Len)
		for i := range elems {
			elems[i] = v
		}
		return ArrayObj{Elems: elems}, true
	}
	return nil, false
}

func (ev *Evaluator) projectField(v Value, field ast.FieldRef, pos interface{ String() string }, errs *diagnostics.Errors) (Value, bool) {
	switch obj := v.(type) {
	case TupleObj:
		if field.Index != nil && *field.Index < len(obj.Fields) {
			return obj.Fields[*field.Index], true
		}
	case DataObj:
		if field.Index != nil && *field.Index < len(obj.Args) {
			return obj.Args[*field.Index], true
		}
	}
	*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN004, pos, "undefined field for evaluation of variable values"))
	return nil, false
}

var arithOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
}

func (ev *Evaluator) evalApp(ex *ast.AppExpr, env *Environment, errs *diagnostics.Errors, owner string) (Value, bool) {
	if callee, ok := ex.Callee.(*ast.VarExpr); ok && arithOps[callee.Ident] && len(ex.Args) == 2 {
		if _, isLocal := env.Lookup(callee.Ident); !isLocal {
			lhs, ok := ev.evalExpr(ex.Args[0], env, errs, owner)
			if !ok {
				return nil, false
			}
			rhs, ok := ev.evalExpr(ex.Args[1], env, errs, owner)
			if !ok {
				return nil, false
			}
			return ev.evalArith(callee.Ident, lhs, rhs, ex.Pos(), errs)
		}
	}

	callee, ok := ev.evalExpr(ex.Callee, env, errs, owner)
	if !ok {
		return nil, false
	}
	args := make([]Value, len(ex.Args))
	for i, a := range ex.Args {
		v, ok := ev.evalExpr(a, env, errs, owner)
		if !ok {
			return nil, false
		}
		args[i] = v
	}
	return ev.apply(callee, args, ex.Pos(), errs, owner)
}

func (ev *Evaluator) apply(callee Value, args []Value, pos interface{ String() string }, errs *diagnostics.Errors, owner string) (Value, bool) {
	switch fn := callee.(type) {
	case EvalFunObj:
		v, err := fn.Fn(args)
		if err != nil {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE005, pos, err.Error()))
			return nil, false
		}
		return v, true
	case LambdaObj:
		if fn.Node == nil || len(fn.Node.Params) != len(args) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN003, pos, "wrong arity for evaluation of variable values"))
			return nil, false
		}
		child := &Environment{Globals: ev.values, Locals: map[string]Value{}, ImplType: fn.ImplType}
		if fn.Captured != nil {
			for k, v := range fn.Captured.Bindings {
				child.Locals[k] = v
			}
		}
		for i, p := range fn.Node.Params {
			child.Bind(p.Name, args[i])
		}
		return ev.evalExpr(fn.Node.Body, child, errs, owner)
	case FunObj:
		def, ok := ev.Tree.ValueVars[fn.Ident].(*ast.FunctionDef)
		if !ok || def.Body == nil {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE008, pos, fmt.Sprintf("value isn't evaluable function: %s", fn.Ident)))
			return nil, false
		}
		child := NewEnvironment(ev.values, fn.ImplType)
		for i, p := range def.Params {
			if i < len(args) {
				child.Bind(p.Name, args[i])
			}
		}
		return ev.evalExpr(def.Body, child, errs, fn.Ident)
	case BuiltinObj:
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE008, pos, fmt.Sprintf("value isn't evaluable function: %s", fn.Ident)))
		return nil, false
	}
	*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE008, pos, "value isn't evaluable function"))
	return nil, false
}

func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case IntValue:
		return float64(n), true
	case LongValue:
		return float64(n), true
	case FloatValue:
		return float64(n), true
	case DoubleValue:
		return float64(n), true
	case ShortValue:
		return float64(n), true
	case UIntValue:
		return float64(n), true
	case ULongValue:
		return float64(n), true
	case UShortValue:
		return float64(n), true
	}
	return 0, false
}

func (ev *Evaluator) evalArith(op string, lhs, rhs Value, pos interface{ String() string }, errs *diagnostics.Errors) (Value, bool) {
	li, lIsInt := lhs.(IntValue)
	ri, rIsInt := rhs.(IntValue)
	if lIsInt && rIsInt {
		a, b := int64(li), int64(ri)
		switch op {
		case "+":
			return IntValue(int32(a + b)), true
		case "-":
			return IntValue(int32(a - b)), true
		case "*":
			return IntValue(int32(a * b)), true
		case "/":
			if b == 0 {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE004, pos, "division by zero"))
				return nil, false
			}
			return IntValue(int32(a / b)), true
		case "%":
			if b == 0 {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE004, pos, "division by zero"))
				return nil, false
			}
			return IntValue(int32(a % b)), true
		case "==":
			return BoolValue(a == b), true
		case "!=":
			return BoolValue(a != b), true
		case "<":
			return BoolValue(a < b), true
		case ">":
			return BoolValue(a > b), true
		case "<=":
			return BoolValue(a <= b), true
		case ">=":
			return BoolValue(a >= b), true
		}
	}
	if lf, lok := asFloat(lhs); lok {
		if rf, rok := asFloat(rhs); rok {
			switch op {
			case "+":
				return DoubleValue(lf + rf), true
			case "-":
				return DoubleValue(lf - rf), true
			case "*":
				return DoubleValue(lf * rf), true
			case "/":
				if rf == 0 {
					*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE004, pos, "division by zero"))
					return nil, false
				}
				return DoubleValue(lf / rf), true
			case "%":
				return DoubleValue(math.Mod(lf, rf)), true
			case "==":
				return BoolValue(lf == rf), true
			case "!=":
				return BoolValue(lf != rf), true
			case "<":
				return BoolValue(lf < rf), true
			case ">":
				return BoolValue(lf > rf), true
			case "<=":
				return BoolValue(lf <= rf), true
			case ">=":
				return BoolValue(lf >= rf), true
			}
		}
	}
	*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE005, pos, fmt.Sprintf("unsupported operator %s for evaluation of variable values", op)))
	return nil, false
}

func (ev *Evaluator) evalCast(ex *ast.AsExpr, env *Environment, errs *diagnostics.Errors, owner string) (Value, bool) {
	v, ok := ev.evalExpr(ex.Elem, env, errs, owner)
	if !ok {
		return nil, false
	}
	name, ok := ex.Type.(*ast.NamedTypeExpr)
	if !ok {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT004, ex.Pos(), "unsatisfiable cast for evaluation of variable values"))
		return nil, false
	}
	if name.Name == "Half" {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE006, ex.Pos(), "can't cast value to type Half for evaluation of variable values"))
		return nil, false
	}
	f, ok := asFloat(v)
	if !ok {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE006, ex.Pos(), fmt.Sprintf("can't cast value to type %s for evaluation of variable values", name.Name)))
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
	*errs = append(*errs, diagnostics.NewError(diagnostics.ErrE006, ex.Pos(), fmt.Sprintf("can't cast value to type %s for evaluation of variable values", name.Name)))
	return nil, false
}
