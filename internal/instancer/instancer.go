// Package instancer implements the monomorphizer of spec.md §4.4: it walks
// outward from every non-generic entry point, and for each call site into a
// generic definition, resolves the concrete type arguments through the type
// stack and enqueues that (ident, type-args) pair for its own instantiation
// — a breadth-first work queue rather than recursion, so a diamond of calls
// into the same instantiation is only ever processed once. Grounded on
// _examples/original_source/src/frontend/instancer.rs's queue-driven
// monomorphization loop and built directly on internal/typestack's
// TypeStack (the frame-pushing machinery) and internal/mangler (naming each
// instantiation deterministically).
package instancer

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
	"github.com/vscfl/vscfl/internal/mangler"
	"github.com/vscfl/vscfl/internal/typer"
	"github.com/vscfl/vscfl/internal/typestack"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// MonoKey identifies one instantiation: a definition ident plus the
// mangled encoding of its concrete type arguments, which is exactly what
// the mangler produces as the definition's final symbol name (spec.md
// §4.6) — so the registry key and the output symbol coincide by construction.
type MonoKey string

// MonoEntry is one completed monomorphization record.
type MonoEntry struct {
	Ident       string
	ImplType    *typesystem.TypeName
	TypeValues  []typesystem.TypeValue
	MangledName string
	// DebugID is a per-instantiation correlation handle for diagnostic/debug
	// logging only — never part of MonoKey or MangledName, so re-runs stay
	// deterministic (spec.md §8 "Mangling is deterministic").
	DebugID uuid.UUID
}

type queueItem struct {
	Ident      string
	ImplType   *typesystem.TypeName
	TypeValues []typesystem.TypeValue
}

// Instancer drives the monomorphization queue over a fully elaborated Tree.
type Instancer struct {
	Tree  *ast.Tree
	Typer *typer.Typer
	Stack *typestack.TypeStack
	Done  map[MonoKey]*MonoEntry
	queue []queueItem
}

// New builds an Instancer over an already-typed tree (the typer having
// populated ty.Arenas and every definition's .Type).
func New(tree *ast.Tree, ty *typer.Typer) *Instancer {
	return &Instancer{
		Tree:  tree,
		Typer: ty,
		Stack: typestack.New(),
		Done:  map[MonoKey]*MonoEntry{},
	}
}

// RunAll seeds the queue with every non-generic top-level definition, then
// drains it breadth-first, discovering further instantiations as each
// entry's body is walked. Returns the accumulated diagnostic batch (I001
// for a call site whose type arguments can't be resolved to concrete
// values — "non-monomorphizable use", spec.md §7).
func (in *Instancer) RunAll() diagnostics.Errors {
	var errs diagnostics.Errors
	for _, def := range in.Tree.Defs {
		switch d := def.(type) {
		case *ast.VariableDef:
			if isMonomorphic(d.Type) {
				in.queue = append(in.queue, queueItem{Ident: d.Name})
			}
		case *ast.FunctionDef:
			if isMonomorphic(d.Type) {
				in.queue = append(in.queue, queueItem{Ident: d.Name})
			}
		case *ast.ImplementationDef:
			implType := d.ImplType
			for _, m := range d.Methods {
				if isMonomorphic(m.Type) {
					in.queue = append(in.queue, queueItem{Ident: m.Name, ImplType: &implType})
				}
			}
		}
	}

	for len(in.queue) > 0 {
		item := in.queue[0]
		in.queue = in.queue[1:]
		in.process(item, &errs)
	}
	return errs
}

func isMonomorphic(t typesystem.Type) bool {
	return len(t.ParamEntries) == 0
}

func (in *Instancer) process(item queueItem, errs *diagnostics.Errors) {
	declType := in.declaredType(item.Ident)

	// spec.md §4.4 step 5: eliminate un-refined type parameters before the
	// mangled name is derived from them — the mangler rejects a bare Param
	// as an internal error (internal/mangler/mangler.go addTypeValue).
	finalized, err := in.finalizeTypeValues(declType, item.TypeValues)
	if err != nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrI001, in.defPos(item.Ident), fmt.Sprintf("can't finalize type parameters for %s: %s", item.Ident, err)))
		return
	}
	item.TypeValues = finalized

	name, err := mangler.VarName(item.Ident, item.TypeValues, declType)
	if err != nil {
		name, err = mangler.FunName(item.Ident, item.TypeValues, declType)
	}
	if err != nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrI001, in.defPos(item.Ident), fmt.Sprintf("can't mangle instantiation of %s: %s", item.Ident, err)))
		return
	}
	key := MonoKey(name)
	if _, ok := in.Done[key]; ok {
		return
	}
	entry := &MonoEntry{Ident: item.Ident, ImplType: item.ImplType, TypeValues: item.TypeValues, MangledName: name, DebugID: uuid.New()}
	in.Done[key] = entry

	arena := in.arenaFor(item.Ident, item.ImplType)
	if arena == nil {
		return
	}
	in.Stack.PushTypeValues(item.TypeValues)
	defer in.Stack.PopTypeValues()

	in.discoverCalls(item, arena, errs)
}

// finalizeTypeValues runs a monomorphization's resolved type arguments
// through ChangeTypeParamsToTypes so any parameter the call site left
// un-refined defaults to the unit tuple, or to a Fun type derived from its
// captures (spec.md §4.4 step 5, §4.2). A no-op for a non-generic
// instantiation (nothing to finalize).
func (in *Instancer) finalizeTypeValues(declType typesystem.Type, values []typesystem.TypeValue) ([]typesystem.TypeValue, error) {
	if len(values) == 0 {
		return values, nil
	}
	in.Stack.SetFirstTypeValuesForType(declType)
	in.Stack.PushTypeValues(values)
	_, changeErr := in.Stack.ChangeTypeParamsToTypes(in.Tree)
	finalized := append([]typesystem.TypeValue(nil), in.Stack.TypeValues()...)
	in.Stack.PopTypeValues()
	in.Stack.PopTypeValues()
	if changeErr != nil {
		return nil, changeErr
	}
	return finalized, nil
}

// arenaFor resolves the LocalTypes arena a monomorphization target was
// elaborated against: the per-impl arena when this is a dispatched
// trait-method instantiation, otherwise the definition's own arena
// (spec.md §4.4 step 3).
func (in *Instancer) arenaFor(ident string, implType *typesystem.TypeName) *typesystem.LocalTypes {
	if implType != nil {
		if a, ok := in.Typer.ImplArenas[typer.ImplArenaKey(*implType, ident)]; ok {
			return a
		}
	}
	return in.Typer.Arenas[ident]
}

func (in *Instancer) declaredType(ident string) typesystem.Type {
	switch d := in.Tree.ValueVars[ident].(type) {
	case *ast.VariableDef:
		return d.Type
	case *ast.FunctionDef:
		return d.Type
	}
	return typesystem.Type{}
}

func (in *Instancer) defPos(ident string) fmt.Stringer {
	if d, ok := in.Tree.ValueVars[ident]; ok {
		return d.Pos()
	}
	return nil
}

// discoverCalls walks the body of item's definition looking for application
// of another generic definition, resolving the concrete type arguments at
// that call site through the type stack and enqueueing the callee's own
// instantiation (spec.md §4.4 "a monomorphization queue").
func (in *Instancer) discoverCalls(item queueItem, arena *typesystem.LocalTypes, errs *diagnostics.Errors) {
	var body ast.Expr
	if item.ImplType != nil {
		m := in.implMethodDef(item.Ident, *item.ImplType)
		if m == nil {
			return
		}
		body = m.Body
	} else {
		switch d := in.Tree.ValueVars[item.Ident].(type) {
		case *ast.VariableDef:
			body = d.Initializer
		case *ast.FunctionDef:
			body = d.Body
		}
	}
	if body == nil {
		return
	}
	in.walkExpr(body, arena, errs)
}

// implMethodDef resolves the function backing a trait-method dispatched to
// implType: the impl's own override, or a synthesized per-impl copy of the
// trait's default body (spec.md §4.4 step 3). ident must itself be a trait
// method name (every ImplType-bearing queue item's Ident is one, by
// construction — see maybeEnqueueCall and RunAll's impl seeding).
func (in *Instancer) implMethodDef(ident string, implType typesystem.TypeName) *ast.FunctionDef {
	decl, _ := in.Tree.ValueVars[ident].(*ast.FunctionDef)
	if decl == nil || decl.TraitIdent == "" {
		return nil
	}
	impl := in.Tree.Impls[decl.TraitIdent][implType.Ident]
	if impl == nil {
		return nil
	}
	return in.resolveOrSynthesizeMethod(decl.TraitIdent, ident, impl)
}

// resolveOrSynthesizeMethod returns impl's own override of method, or
// synthesizes a per-impl copy of the trait's default body into impl.Methods
// so later dispatches to the same impl find it directly (spec.md §4.4 step
// 3 "synthesize per-impl default-method copies"). Returns nil when impl has
// neither an override nor an inherited default with a VSCFL body — a
// built-in impl, dispatched natively by the evaluator instead.
func (in *Instancer) resolveOrSynthesizeMethod(traitIdent, method string, impl *ast.ImplementationDef) *ast.FunctionDef {
	for _, m := range impl.Methods {
		if m.Name == method {
			return m
		}
	}
	if impl.IsBuiltin {
		return nil
	}
	trait := in.Tree.Traits[traitIdent]
	if trait == nil {
		return nil
	}
	for _, m := range trait.Methods {
		if m.Name == method && m.Body != nil {
			copyOfDefault := *m
			impl.Methods = append(impl.Methods, &copyOfDefault)
			return &copyOfDefault
		}
	}
	return nil
}

func (in *Instancer) walkExpr(e ast.Expr, arena *typesystem.LocalTypes, errs *diagnostics.Errors) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ast.AppExpr:
		in.maybeEnqueueCall(ex.Callee, arena, errs)
		in.walkExpr(ex.Callee, arena, errs)
		for _, a := range ex.Args {
			in.walkExpr(a, arena, errs)
		}
	case *ast.LambdaExpr:
		in.markNonUniqLambda(ex, arena)
		in.walkExpr(ex.Body, arena, errs)
	case *ast.NamedFieldConAppExpr:
		for _, f := range ex.Fields {
			in.walkExpr(f.Expr, arena, errs)
		}
	case *ast.PrintfAppExpr:
		for _, a := range ex.Args {
			in.walkExpr(a, arena, errs)
		}
	case *ast.GetFieldExpr:
		in.walkExpr(ex.Recv, arena, errs)
	case *ast.Get2FieldExpr:
		in.walkExpr(ex.Recv, arena, errs)
	case *ast.SetFieldExpr:
		in.walkExpr(ex.Recv, arena, errs)
		in.walkExpr(ex.Value, arena, errs)
	case *ast.UpdateFieldExpr:
		in.walkExpr(ex.Recv, arena, errs)
		in.walkExpr(ex.Fn, arena, errs)
	case *ast.UpdateGet2FieldExpr:
		in.walkExpr(ex.Recv, arena, errs)
		in.walkExpr(ex.Fn, arena, errs)
	case *ast.UniqExpr:
		in.walkExpr(ex.Elem, arena, errs)
	case *ast.SharedExpr:
		in.walkExpr(ex.Elem, arena, errs)
	case *ast.TypedExpr:
		in.walkExpr(ex.Elem, arena, errs)
	case *ast.AsExpr:
		in.walkExpr(ex.Elem, arena, errs)
	case *ast.IfExpr:
		in.walkExpr(ex.Cond, arena, errs)
		in.walkExpr(ex.Then, arena, errs)
		in.walkExpr(ex.Else, arena, errs)
	case *ast.LetExpr:
		for _, b := range ex.Binds {
			in.walkExpr(b.Value, arena, errs)
		}
		in.walkExpr(ex.Body, arena, errs)
	case *ast.MatchExpr:
		in.walkExpr(ex.Scrutinee, arena, errs)
		for _, c := range ex.Cases {
			in.walkExpr(c.Value, arena, errs)
		}
	case *ast.LiteralExpr:
		for _, f := range ex.Fields {
			in.walkExpr(f, arena, errs)
		}
		for _, el := range ex.Elems {
			in.walkExpr(el, arena, errs)
		}
		in.walkExpr(ex.Filled, arena, errs)
	}
}

// maybeEnqueueCall resolves a call site's concrete type arguments and
// enqueues the callee's own instantiation. When the callee is a trait
// method, it additionally resolves the call to a concrete impl via
// TypeNameForLocalTypeAndType and dispatches to that impl's own body (or a
// synthesized default copy), rather than the trait's bare declaration
// (spec.md §4.4 step 3).
func (in *Instancer) maybeEnqueueCall(callee ast.Expr, arena *typesystem.LocalTypes, errs *diagnostics.Errors) {
	ve, ok := callee.(*ast.VarExpr)
	if !ok {
		return
	}
	declType := in.declaredType(ve.Ident)
	if isMonomorphic(declType) {
		return // already a queued root, or a local/parameter reference
	}

	traitIdent := ""
	if fn, ok := in.Tree.ValueVars[ve.Ident].(*ast.FunctionDef); ok {
		traitIdent = fn.TraitIdent
	}

	typeName, dispatched, err := in.Stack.TypeNameForLocalTypeAndType(ve.TypeOf(), declType, traitIdent)
	if err != nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrI001, ve.Pos(), fmt.Sprintf("can't resolve type arguments for %s: %s", ve.Ident, err)))
		return
	}

	var implType *typesystem.TypeName
	if traitIdent != "" && dispatched {
		impl := in.Tree.Impls[traitIdent][typeName.Ident]
		if impl == nil {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrI001, ve.Pos(), fmt.Sprintf("no implementation of %s for %s", traitIdent, typeName.Ident)))
			return
		}
		if in.resolveOrSynthesizeMethod(traitIdent, ve.Ident, impl) == nil {
			// Built-in impl (or a trait method with no default body at
			// all): the evaluator's native BuiltinObj dispatch handles the
			// call directly, nothing to monomorphize.
			return
		}
		implType = &typeName
	}

	if err := in.Stack.PushTypeValuesForLocalTypeAndType(ve.TypeOf(), declType); err != nil {
		*errs = append(*errs, diagnostics.NewError(diagnostics.ErrI001, ve.Pos(), fmt.Sprintf("can't resolve type arguments for %s: %s", ve.Ident, err)))
		return
	}
	values := in.Stack.PopTypeValues()
	in.queue = append(in.queue, queueItem{Ident: ve.Ident, ImplType: implType, TypeValues: values})
}

// markNonUniqLambda evaluates the sharedness of every binding a lambda
// literal captures, under the current monomorphization, and tags the
// lambda's own slot in_non_uniq_lambda if any capture isn't provably shared
// (spec.md §4.4 step 4). A no-op for a lambda with an empty capture set.
func (in *Instancer) markNonUniqLambda(ex *ast.LambdaExpr, arena *typesystem.LocalTypes) {
	entry := arena.Entry(ex.TypeOf())
	if entry == nil || entry.Kind != typesystem.EntryParam || entry.ParamEntry == nil {
		return
	}
	if len(entry.ParamEntry.SortedClosureLocalTypes()) == 0 {
		return
	}
	stackLocal, err := in.Stack.PushTypeEntriesForLocalType(ex.TypeOf(), arena)
	if err != nil {
		return
	}
	defer in.Stack.PopTypeEntries()
	for _, clt := range in.Stack.ClosureLocalsForLocalType(stackLocal) {
		shared, err := in.Stack.SharedFlagForLocalType(clt, in.Tree)
		if err == nil && shared != typesystem.Shared {
			entry.InNonUniqLambda = true
			break
		}
	}
}
