// Package typer implements the type elaborator of spec.md §4.3: it walks
// every definition and expression/pattern, assigns each node a LocalType
// slot in a per-definition arena, and invokes the matcher to unify those
// slots against declared signatures and trait constraints. Grounded on
// _examples/original_source/src/frontend/typer.rs's definition-at-a-time
// walk and on internal/typesystem's Matcher (the matching core itself).
package typer

import (
	"fmt"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// Typer elaborates every definition of a Tree, recording each definition's
// LocalTypes arena for the instancer and evaluator stages that follow it in
// the pipeline (spec.md §2).
type Typer struct {
	Tree    *ast.Tree
	Matcher *typesystem.Matcher
	Arenas  map[string]*typesystem.LocalTypes

	// ImplArenas holds the same arenas as Arenas, additionally keyed by
	// implementing type so two impls of different types sharing a method
	// name (e.g. "eq" for both Int and Bool) don't collide on one bare-name
	// slot (spec.md §4.4 step 3 dispatches per concrete impl).
	ImplArenas map[string]*typesystem.LocalTypes

	captureStack []*captureFrame
}

// New builds a Typer over tree; tree itself satisfies the matcher's
// TraitImplLookup (internal/ast/trait_lookup.go).
func New(tree *ast.Tree) *Typer {
	return &Typer{
		Tree:       tree,
		Matcher:    typesystem.NewMatcher(tree),
		Arenas:     map[string]*typesystem.LocalTypes{},
		ImplArenas: map[string]*typesystem.LocalTypes{},
	}
}

// ImplArenaKey builds the composite key ImplArenas is indexed by: an impl
// method's arena is only ever looked up by (implementing type, method name)
// together, never by method name alone.
func ImplArenaKey(implType typesystem.TypeName, method string) string {
	return fmt.Sprintf("%d:%s:%d:%d:%s", implType.Kind, implType.Ident, implType.ArgCount, implType.FieldCount, method)
}

// captureFrame tracks one lambda literal's closure capture set while its
// body is being elaborated (spec.md §4.3 "every local type referenced from
// the lambda body but defined outside it is added to the lambda's closure
// local-type set").
type captureFrame struct {
	boundary *scope
	captured map[typesystem.LocalType]bool
}

// pushCapture opens a new capture frame rooted at boundary, the scope in
// effect just outside the lambda literal being entered.
func (ty *Typer) pushCapture(boundary *scope) {
	ty.captureStack = append(ty.captureStack, &captureFrame{boundary: boundary, captured: map[typesystem.LocalType]bool{}})
}

// popCapture closes the innermost capture frame and returns what it accumulated.
func (ty *Typer) popCapture() map[typesystem.LocalType]bool {
	n := len(ty.captureStack)
	if n == 0 {
		return nil
	}
	top := ty.captureStack[n-1]
	ty.captureStack = ty.captureStack[:n-1]
	return top.captured
}

// recordCapture checks ident's binding against every open capture frame.
// Every active frame is checked (not just the innermost), so a binding two
// lambdas out is recorded on both frames and the capture set propagates
// transitively through nested lambdas.
func (ty *Typer) recordCapture(sc *scope, ident string) {
	for _, frame := range ty.captureStack {
		if local, found, outside := sc.lookupBounded(ident, frame.boundary); found && outside {
			frame.captured[local] = true
		}
	}
}

// ElaborateAll walks every definition and returns the accumulated batch of
// structural-mismatch / trait-constraint diagnostics (spec.md §7 T001-T005).
func (ty *Typer) ElaborateAll() diagnostics.Errors {
	var errs diagnostics.Errors
	for _, def := range ty.Tree.Defs {
		switch d := def.(type) {
		case *ast.VariableDef:
			ty.elaborateVariable(d, &errs)
		case *ast.FunctionDef:
			ty.elaborateFunction(d, nil, &errs)
		case *ast.TraitDef:
			for _, m := range d.Methods {
				ty.elaborateFunction(m, nil, &errs)
			}
		case *ast.ImplementationDef:
			if d.IsBuiltin {
				continue
			}
			for _, m := range d.Methods {
				ty.elaborateFunction(m, &d.ImplType, &errs)
			}
			for _, v := range d.Variables {
				ty.elaborateVariable(v, &errs)
			}
		}
	}
	return errs
}

func (ty *Typer) elaborateVariable(v *ast.VariableDef, errs *diagnostics.Errors) {
	lt := typesystem.NewLocalTypes()
	params := typeParamScope{}

	var declared typesystem.LocalType
	if v.TypeAnnotation != nil {
		declared = lt.AddTypeValue(typeExprToValue(v.TypeAnnotation, lt, params))
	} else {
		declared = lt.AddParam(typesystem.Inferred)
	}
	v.LocalType = declared

	if v.Initializer != nil {
		sc := newScope(nil)
		bodyLocal := ty.elaborateExpr(v.Initializer, lt, sc, errs)
		res := ty.Matcher.Matches(bodyLocal, declared, lt)
		if res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, v.Pos(), fmt.Sprintf("variable %s: %s", v.Name, res.Reason)))
		}
	}
	v.Type = typesystem.Type{ParamEntries: collectParamEntries(lt), Value: asTypeValue(lt.Entry(declared), declared)}
	ty.Arenas[v.Name] = lt
}

func (ty *Typer) elaborateFunction(f *ast.FunctionDef, implType *typesystem.TypeName, errs *diagnostics.Errors) {
	lt := typesystem.NewLocalTypes()
	params := typeParamScope{}

	sc := newScope(nil)
	paramLocals := make([]typesystem.LocalType, len(f.Params))
	for i, p := range f.Params {
		var local typesystem.LocalType
		if p.Type != nil {
			local = lt.AddTypeValue(typeExprToValue(p.Type, lt, params))
		} else {
			local = lt.AddParam(typesystem.Inferred)
		}
		p.LocalType = local
		paramLocals[i] = local
		sc.bind(p.Name, local)
	}

	var resultLocal typesystem.LocalType
	if f.ResultType != nil {
		resultLocal = lt.AddTypeValue(typeExprToValue(f.ResultType, lt, params))
	} else {
		resultLocal = lt.AddParam(typesystem.Inferred)
	}

	if f.Body != nil {
		bodyLocal := ty.elaborateExpr(f.Body, lt, sc, errs)
		res := ty.Matcher.Matches(bodyLocal, resultLocal, lt)
		if res.Status != typesystem.Matched {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrT001, f.Pos(), fmt.Sprintf("function %s: %s", f.Name, res.Reason)))
		}
	}

	args := make([]typesystem.TypeValue, 0, len(paramLocals)+1)
	for _, pl := range paramLocals {
		args = append(args, asTypeValue(lt.Entry(pl), pl))
	}
	args = append(args, asTypeValue(lt.Entry(resultLocal), resultLocal))
	funValue := typesystem.ConcreteValue{Name: typesystem.TypeValueName{Kind: typesystem.NameFun}, Args: args}

	f.LocalType = lt.AddTypeValue(funValue)
	f.Type = typesystem.Type{ParamEntries: collectParamEntries(lt), Value: funValue}
	ty.Arenas[f.Name] = lt
	if implType != nil {
		ty.ImplArenas[ImplArenaKey(*implType, f.Name)] = lt
	}
}

// asTypeValue reads a slot's current TypeValue shape: a concrete slot's
// Value directly, or a parameter slot reified as a ParamValue referencing
// its own index (used once elaboration of a signature is complete and the
// slot's final shape needs to be embedded into an enclosing ConcreteValue).
func asTypeValue(e *typesystem.LocalTypeEntry, self typesystem.LocalType) typesystem.TypeValue {
	if e == nil {
		return typesystem.UnitType()
	}
	if e.Kind == typesystem.EntryType {
		return e.Value
	}
	return typesystem.ParamValue{Local: self}
}

func collectParamEntries(lt *typesystem.LocalTypes) []*typesystem.TypeParamEntry {
	var out []*typesystem.TypeParamEntry
	for i := 0; i < lt.Len(); i++ {
		e := lt.Entry(typesystem.LocalType(i))
		if e != nil && e.Kind == typesystem.EntryParam {
			out = append(out, e.ParamEntry)
		}
	}
	return out
}
