// Package namer implements the thin external collaborator of spec.md §2.2:
// given a parsed Tree whose per-namespace maps were populated optimistically
// as each definition was added, it detects duplicate definitions across the
// type/value/trait namespaces, populates each data constructor's FieldIndex
// from its declared named fields, and resolves every identifier reference
// (VarExpr, constructor patterns, trait implementation heads) against the
// tree, reporting N001/N002/N006 for anything that doesn't resolve.
// Grounded on the teacher's internal/symbols package (a multi-scope symbol
// table for funxy's module system) for the overall shape of a name-
// resolution pass, adapted to VSCFL's flatter, single-file, three-namespace
// model (spec.md §3.1) since funxy's scope chain (prelude/global/function/
// block, module re-exports) has no counterpart here.
package namer

import (
	"fmt"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
)

// Namer holds no state beyond the tree it resolves.
type Namer struct {
	Tree *ast.Tree
}

// New builds a Namer over tree.
func New(tree *ast.Tree) *Namer {
	return &Namer{Tree: tree}
}

// Run executes the full namer pass and returns the accumulated diagnostics.
func (n *Namer) Run() diagnostics.Errors {
	var errs diagnostics.Errors
	n.checkDuplicates(&errs)
	n.indexFields(&errs)
	n.resolveReferences(&errs)
	return errs
}

// checkDuplicates re-scans the definition list (rather than the namespace
// maps, which AddDef already overwrote on collision) so every duplicate
// name is reported, not just the first.
func (n *Namer) checkDuplicates(errs *diagnostics.Errors) {
	seenTypes := map[string]bool{}
	seenValues := map[string]bool{}
	seenTraits := map[string]bool{}
	for _, def := range n.Tree.Defs {
		switch d := def.(type) {
		case *ast.TypeDef:
			if seenTypes[d.Name] {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, d.Pos(), fmt.Sprintf("duplicate definition of type %s", d.Name)))
			}
			seenTypes[d.Name] = true
			n.checkDuplicateConstructors(d, errs)
		case *ast.VariableDef:
			if seenValues[d.Name] {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, d.Pos(), fmt.Sprintf("duplicate definition of variable %s", d.Name)))
			}
			seenValues[d.Name] = true
		case *ast.FunctionDef:
			if seenValues[d.Name] {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, d.Pos(), fmt.Sprintf("duplicate definition of function %s", d.Name)))
			}
			seenValues[d.Name] = true
		case *ast.TraitDef:
			if seenTraits[d.Name] {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, d.Pos(), fmt.Sprintf("duplicate definition of trait %s", d.Name)))
			}
			seenTraits[d.Name] = true
		}
	}
}

func (n *Namer) checkDuplicateConstructors(td *ast.TypeDef, errs *diagnostics.Errors) {
	seen := map[string]bool{}
	for _, c := range td.Constructors {
		if seen[c.Name] {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, c.Token.Pos, fmt.Sprintf("duplicate constructor %s", c.Name)))
		}
		seen[c.Name] = true
	}
}

// indexFields populates every named-field constructor's FieldIndex, the
// lookup the typer/evaluator use to resolve `ident:` field references
// (ast_core.go's "populated by the namer" field).
func (n *Namer) indexFields(errs *diagnostics.Errors) {
	for _, td := range n.Tree.TypeVars {
		for _, c := range td.Constructors {
			if len(c.NamedFields) == 0 {
				continue
			}
			if c.FieldIndex == nil {
				c.FieldIndex = map[string]int{}
			}
			for i, f := range c.NamedFields {
				if _, dup := c.FieldIndex[f.Name]; dup {
					*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN002, c.Token.Pos, fmt.Sprintf("duplicate field %s on constructor %s", f.Name, c.Name)))
					continue
				}
				c.FieldIndex[f.Name] = i
			}
		}
	}
}

// resolveReferences walks every definition's body/signature and confirms
// each VarExpr/constructor pattern/trait-implementation head resolves to a
// known definition (spec.md §7 N001 unresolved identifier, N006 unknown
// trait).
func (n *Namer) resolveReferences(errs *diagnostics.Errors) {
	for _, def := range n.Tree.Defs {
		switch d := def.(type) {
		case *ast.VariableDef:
			if d.Initializer != nil {
				n.resolveExpr(d.Initializer, localScope(nil), errs)
			}
		case *ast.FunctionDef:
			n.resolveFunction(d, errs)
		case *ast.TraitDef:
			for _, m := range d.Methods {
				n.resolveFunction(m, errs)
			}
		case *ast.ImplementationDef:
			if _, ok := n.Tree.Traits[d.TraitIdent]; !ok {
				*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN006, d.Pos(), fmt.Sprintf("unknown trait %s", d.TraitIdent)))
			}
			for _, m := range d.Methods {
				n.resolveFunction(m, errs)
			}
			for _, v := range d.Variables {
				if v.Initializer != nil {
					n.resolveExpr(v.Initializer, localScope(nil), errs)
				}
			}
		}
	}
}

func (n *Namer) resolveFunction(f *ast.FunctionDef, errs *diagnostics.Errors) {
	if f.Body == nil {
		return
	}
	sc := localScope(nil)
	for _, p := range f.Params {
		sc[p.Name] = true
	}
	n.resolveExpr(f.Body, sc, errs)
}

// localScope is a flat set of identifiers bound by enclosing lambdas/
// let-bindings/match arms/parameters — VSCFL has no nested-module scoping,
// so (unlike the teacher's ScopeType chain) a single growing set per
// definition is enough.
type localScope map[string]bool

func (s localScope) child() localScope {
	child := make(localScope, len(s))
	for k := range s {
		child[k] = true
	}
	return child
}

func (n *Namer) known(ident string) bool {
	if _, ok := n.Tree.ValueVars[ident]; ok {
		return true
	}
	for _, td := range n.Tree.TypeVars {
		for _, c := range td.Constructors {
			if c.Name == ident {
				return true
			}
		}
	}
	return false
}

func (n *Namer) resolveExpr(e ast.Expr, sc localScope, errs *diagnostics.Errors) {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		for _, f := range ex.Fields {
			n.resolveExpr(f, sc, errs)
		}
		for _, el := range ex.Elems {
			n.resolveExpr(el, sc, errs)
		}
		if ex.Filled != nil {
			n.resolveExpr(ex.Filled, sc, errs)
		}
	case *ast.LambdaExpr:
		inner := sc.child()
		for _, p := range ex.Params {
			inner[p.Name] = true
		}
		n.resolveExpr(ex.Body, inner, errs)
	case *ast.VarExpr:
		if !sc[ex.Ident] && !n.known(ex.Ident) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN001, ex.Pos(), fmt.Sprintf("unresolved identifier %s", ex.Ident)))
		}
	case *ast.NamedFieldConAppExpr:
		if !n.known(ex.ConstructorIdent) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN001, ex.Pos(), fmt.Sprintf("unresolved constructor %s", ex.ConstructorIdent)))
		}
		for _, f := range ex.Fields {
			n.resolveExpr(f.Expr, sc, errs)
		}
	case *ast.PrintfAppExpr:
		for _, a := range ex.Args {
			n.resolveExpr(a, sc, errs)
		}
	case *ast.AppExpr:
		n.resolveExpr(ex.Callee, sc, errs)
		for _, a := range ex.Args {
			n.resolveExpr(a, sc, errs)
		}
	case *ast.GetFieldExpr:
		n.resolveExpr(ex.Recv, sc, errs)
	case *ast.Get2FieldExpr:
		n.resolveExpr(ex.Recv, sc, errs)
	case *ast.SetFieldExpr:
		n.resolveExpr(ex.Recv, sc, errs)
		n.resolveExpr(ex.Value, sc, errs)
	case *ast.UpdateFieldExpr:
		n.resolveExpr(ex.Recv, sc, errs)
		n.resolveExpr(ex.Fn, sc, errs)
	case *ast.UpdateGet2FieldExpr:
		n.resolveExpr(ex.Recv, sc, errs)
		n.resolveExpr(ex.Fn, sc, errs)
	case *ast.UniqExpr:
		n.resolveExpr(ex.Elem, sc, errs)
	case *ast.SharedExpr:
		n.resolveExpr(ex.Elem, sc, errs)
	case *ast.TypedExpr:
		n.resolveExpr(ex.Elem, sc, errs)
	case *ast.AsExpr:
		n.resolveExpr(ex.Elem, sc, errs)
	case *ast.IfExpr:
		n.resolveExpr(ex.Cond, sc, errs)
		n.resolveExpr(ex.Then, sc, errs)
		n.resolveExpr(ex.Else, sc, errs)
	case *ast.LetExpr:
		inner := sc.child()
		for _, b := range ex.Binds {
			n.resolveExpr(b.Value, inner, errs)
			n.resolvePattern(b.Pattern, inner, errs)
		}
		n.resolveExpr(ex.Body, inner, errs)
	case *ast.MatchExpr:
		n.resolveExpr(ex.Scrutinee, sc, errs)
		for _, c := range ex.Cases {
			inner := sc.child()
			n.resolvePattern(c.Pattern, inner, errs)
			n.resolveExpr(c.Value, inner, errs)
		}
	}
}

func (n *Namer) resolvePattern(p ast.Pattern, sc localScope, errs *diagnostics.Errors) {
	switch pt := p.(type) {
	case *ast.LiteralPattern:
		for _, f := range pt.Fields {
			n.resolvePattern(f, sc, errs)
		}
		for _, el := range pt.Elems {
			n.resolvePattern(el, sc, errs)
		}
		if pt.Filled != nil {
			n.resolvePattern(pt.Filled, sc, errs)
		}
	case *ast.AsPattern:
		sc[pt.Name] = true
	case *ast.ConstPattern:
		if !n.known(pt.Ident) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN001, pt.Pos(), fmt.Sprintf("unresolved constructor %s", pt.Ident)))
		}
	case *ast.UnnamedFieldConPattern:
		if !n.known(pt.Ident) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN001, pt.Pos(), fmt.Sprintf("unresolved constructor %s", pt.Ident)))
		}
		for _, el := range pt.Elems {
			n.resolvePattern(el, sc, errs)
		}
	case *ast.NamedFieldConPattern:
		if !n.known(pt.Ident) {
			*errs = append(*errs, diagnostics.NewError(diagnostics.ErrN001, pt.Pos(), fmt.Sprintf("unresolved constructor %s", pt.Ident)))
		}
		for _, f := range pt.Fields {
			n.resolvePattern(f.Pattern, sc, errs)
		}
	case *ast.VarPattern:
		sc[pt.Name] = true
	case *ast.AtPattern:
		sc[pt.Name] = true
		n.resolvePattern(pt.Elem, sc, errs)
	case *ast.WildcardPattern:
	case *ast.AltPattern:
		n.resolvePattern(pt.Left, sc, errs)
		n.resolvePattern(pt.Right, sc, errs)
	}
}
