// Package limiter implements the policy checks of spec.md §2.7/§7: variable
// modifier legality, kernel type-parameter restrictions, and the
// printf-first-argument-must-be-literal rule. A thin external collaborator
// relative to the core, ported near line-for-line from
// _examples/original_source/src/frontend/limiter.rs.
package limiter

import (
	"fmt"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
)

// Limiter holds no state; it is a pure traversal over a Tree.
type Limiter struct{}

// New builds a Limiter.
func New() *Limiter { return &Limiter{} }

// CheckLimits walks every definition and returns the accumulated batch of
// diagnostics (spec.md §7 "Recoverable errors are appended to a batch").
func (l *Limiter) CheckLimits(tree *ast.Tree) diagnostics.Errors {
	var errs diagnostics.Errors
	for _, def := range tree.Defs {
		switch d := def.(type) {
		case *ast.VariableDef:
			l.checkVariable(d.Name, d, &errs)
		case *ast.FunctionDef:
			l.checkFunction(d.Name, d, "", &errs)
		case *ast.TraitDef:
			for _, m := range d.Methods {
				l.checkFunction(m.Name, m, "", &errs)
			}
		case *ast.ImplementationDef:
			if d.IsBuiltin {
				continue
			}
			for _, m := range d.Methods {
				l.checkFunction(m.Name, m, "", &errs)
			}
			for _, v := range d.Variables {
				l.checkVariable(v.Name, v, &errs)
			}
		}
	}
	return errs
}

func checkGlobalVarModifier(mod ast.VarModifier, ident string, pos fmt.Stringer, errs *diagnostics.Errors) {
	switch mod {
	case ast.VarModifierPrivate:
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL001, pos, fmt.Sprintf("variable %s mustn't be private", ident)))
	case ast.VarModifierLocal:
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL001, pos, fmt.Sprintf("variable %s mustn't be local", ident)))
	}
}

func checkLocalVarModifier(mod ast.VarModifier, ident string, pos fmt.Stringer, isInVar bool, errs *diagnostics.Errors) {
	if isInVar {
		if mod != ast.VarModifierNone {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL001, pos, fmt.Sprintf("variable %s has variable modifier", ident)))
		}
	} else if mod == ast.VarModifierConstant {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL001, pos, fmt.Sprintf("variable %s mustn't be constant", ident)))
	}
}

func (l *Limiter) checkVariable(ident string, v *ast.VariableDef, errs *diagnostics.Errors) {
	checkGlobalVarModifier(v.Modifier, ident, v.Pos(), errs)
	if v.Initializer != nil {
		l.checkExpr(v.Initializer, true, errs)
	}
}

func (l *Limiter) checkFunction(ident string, f *ast.FunctionDef, traitIdent string, errs *diagnostics.Errors) {
	if f.Modifier == ast.FunModifierKernel {
		if traitIdent != "" {
			// No check is made for a non-empty traitIdent; CheckLimits
			// passes "" for every function, so all kernels take the
			// type-parameter check below.
		} else if f.Type.ParamEntries != nil && len(f.Type.ParamEntries) > 0 {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL002, f.Pos(), fmt.Sprintf("kernel %s mustn't have type parameters", ident)))
		}
	}
	if f.Body != nil {
		l.checkExpr(f.Body, false, errs)
	}
}

func (l *Limiter) checkExpr(e ast.Expr, isInVar bool, errs *diagnostics.Errors) {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		for _, f := range ex.Fields {
			l.checkExpr(f, isInVar, errs)
		}
		for _, el := range ex.Elems {
			l.checkExpr(el, isInVar, errs)
		}
		if ex.Filled != nil {
			l.checkExpr(ex.Filled, isInVar, errs)
		}
	case *ast.LambdaExpr:
		l.checkExpr(ex.Body, false, errs)
	case *ast.VarExpr:
	case *ast.NamedFieldConAppExpr:
		for _, f := range ex.Fields {
			l.checkExpr(f.Expr, isInVar, errs)
		}
	case *ast.PrintfAppExpr:
		if len(ex.Args) == 0 {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL003, ex.Pos(), "printf takes first argument that must be literal"))
		} else if _, ok := ex.Args[0].(*ast.LiteralExpr); !ok {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrL003, ex.Pos(), "printf takes first argument that must be literal"))
		}
		for _, a := range ex.Args {
			l.checkExpr(a, isInVar, errs)
		}
	case *ast.AppExpr:
		l.checkExpr(ex.Callee, isInVar, errs)
		for _, a := range ex.Args {
			l.checkExpr(a, isInVar, errs)
		}
	case *ast.GetFieldExpr:
		l.checkExpr(ex.Recv, isInVar, errs)
	case *ast.Get2FieldExpr:
		l.checkExpr(ex.Recv, isInVar, errs)
	case *ast.SetFieldExpr:
		l.checkExpr(ex.Recv, isInVar, errs)
		l.checkExpr(ex.Value, isInVar, errs)
	case *ast.UpdateFieldExpr:
		l.checkExpr(ex.Recv, isInVar, errs)
		l.checkExpr(ex.Fn, isInVar, errs)
	case *ast.UpdateGet2FieldExpr:
		l.checkExpr(ex.Recv, isInVar, errs)
		l.checkExpr(ex.Fn, isInVar, errs)
	case *ast.UniqExpr:
		l.checkExpr(ex.Elem, isInVar, errs)
	case *ast.SharedExpr:
		l.checkExpr(ex.Elem, isInVar, errs)
	case *ast.TypedExpr:
		l.checkExpr(ex.Elem, isInVar, errs)
	case *ast.AsExpr:
		l.checkExpr(ex.Elem, isInVar, errs)
	case *ast.IfExpr:
		l.checkExpr(ex.Cond, isInVar, errs)
		l.checkExpr(ex.Then, isInVar, errs)
		l.checkExpr(ex.Else, isInVar, errs)
	case *ast.LetExpr:
		for _, b := range ex.Binds {
			l.checkExpr(b.Value, isInVar, errs)
			l.checkPattern(b.Pattern, isInVar, errs)
		}
		l.checkExpr(ex.Body, isInVar, errs)
	case *ast.MatchExpr:
		l.checkExpr(ex.Scrutinee, isInVar, errs)
		for _, c := range ex.Cases {
			l.checkPattern(c.Pattern, isInVar, errs)
			l.checkExpr(c.Value, isInVar, errs)
		}
	}
}

func (l *Limiter) checkPattern(p ast.Pattern, isInVar bool, errs *diagnostics.Errors) {
	switch pt := p.(type) {
	case *ast.LiteralPattern:
		for _, f := range pt.Fields {
			l.checkPattern(f, isInVar, errs)
		}
		for _, el := range pt.Elems {
			l.checkPattern(el, isInVar, errs)
		}
		if pt.Filled != nil {
			l.checkPattern(pt.Filled, isInVar, errs)
		}
	case *ast.AsPattern:
	case *ast.ConstPattern:
	case *ast.UnnamedFieldConPattern:
		for _, el := range pt.Elems {
			l.checkPattern(el, isInVar, errs)
		}
	case *ast.NamedFieldConPattern:
		for _, f := range pt.Fields {
			l.checkPattern(f.Pattern, isInVar, errs)
		}
	case *ast.VarPattern:
		checkLocalVarModifier(pt.Modifier, pt.Name, pt.Pos(), isInVar, errs)
	case *ast.AtPattern:
		checkLocalVarModifier(pt.Modifier, pt.Name, pt.Pos(), isInVar, errs)
		l.checkPattern(pt.Elem, isInVar, errs)
	case *ast.WildcardPattern:
	case *ast.AltPattern:
	}
}
