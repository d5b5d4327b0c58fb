package evaluator

import (
	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/diagnostics"
)

// CheckExhaustiveness walks every match expression reachable from a
// variable initializer, function body, or impl method and reports E003 for
// any whose patterns don't cover every constructor/literal shape of the
// scrutinee's type (spec.md §4.5 "if a match compiles without error, every
// constructor/literal shape of its scrutinee's type has a covering arm";
// scenario E5). It is a separate pass from evaluation proper: exhaustiveness
// is a static property of the tree, checked whether or not the scrutinee
// happens to reduce to a Value.
func CheckExhaustiveness(tree *ast.Tree) diagnostics.Errors {
	c := &exhaustivenessChecker{tree: tree}
	for _, def := range tree.Defs {
		switch d := def.(type) {
		case *ast.VariableDef:
			if d.Initializer != nil {
				c.walkExpr(d.Initializer)
			}
		case *ast.FunctionDef:
			if d.Body != nil {
				c.walkExpr(d.Body)
			}
		case *ast.TraitDef:
			for _, m := range d.Methods {
				if m.Body != nil {
					c.walkExpr(m.Body)
				}
			}
		case *ast.ImplementationDef:
			for _, m := range d.Methods {
				if m.Body != nil {
					c.walkExpr(m.Body)
				}
			}
			for _, v := range d.Variables {
				if v.Initializer != nil {
					c.walkExpr(v.Initializer)
				}
			}
		}
	}
	return c.errs
}

type exhaustivenessChecker struct {
	tree *ast.Tree
	errs diagnostics.Errors
}

func (c *exhaustivenessChecker) walkExpr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.LiteralExpr:
		for _, f := range ex.Fields {
			c.walkExpr(f)
		}
		for _, el := range ex.Elems {
			c.walkExpr(el)
		}
		if ex.Filled != nil {
			c.walkExpr(ex.Filled)
		}
	case *ast.LambdaExpr:
		c.walkExpr(ex.Body)
	case *ast.NamedFieldConAppExpr:
		for _, f := range ex.Fields {
			c.walkExpr(f.Expr)
		}
	case *ast.PrintfAppExpr:
		for _, a := range ex.Args {
			c.walkExpr(a)
		}
	case *ast.AppExpr:
		c.walkExpr(ex.Callee)
		for _, a := range ex.Args {
			c.walkExpr(a)
		}
	case *ast.GetFieldExpr:
		c.walkExpr(ex.Recv)
	case *ast.Get2FieldExpr:
		c.walkExpr(ex.Recv)
	case *ast.SetFieldExpr:
		c.walkExpr(ex.Recv)
		c.walkExpr(ex.Value)
	case *ast.UpdateFieldExpr:
		c.walkExpr(ex.Recv)
		c.walkExpr(ex.Fn)
	case *ast.UpdateGet2FieldExpr:
		c.walkExpr(ex.Recv)
		c.walkExpr(ex.Fn)
	case *ast.UniqExpr:
		c.walkExpr(ex.Elem)
	case *ast.SharedExpr:
		c.walkExpr(ex.Elem)
	case *ast.TypedExpr:
		c.walkExpr(ex.Elem)
	case *ast.AsExpr:
		c.walkExpr(ex.Elem)
	case *ast.IfExpr:
		c.walkExpr(ex.Cond)
		c.walkExpr(ex.Then)
		c.walkExpr(ex.Else)
	case *ast.LetExpr:
		for _, b := range ex.Binds {
			c.walkExpr(b.Value)
		}
		c.walkExpr(ex.Body)
	case *ast.MatchExpr:
		c.walkExpr(ex.Scrutinee)
		for _, cs := range ex.Cases {
			c.walkExpr(cs.Value)
		}
		c.checkMatch(ex)
	}
}

// checkMatch decides exhaustiveness by pattern shape alone, without typing
// information: a wildcard/var/as/at-with-wildcard-elem/alt-of-two-covering
// arm makes the match trivially exhaustive; otherwise every constructor of
// the head type named by some arm's ConstPattern/UnnamedFieldConPattern/
// NamedFieldConPattern must appear, or the match is rejected.
func (c *exhaustivenessChecker) checkMatch(ex *ast.MatchExpr) {
	seen := map[string]bool{}
	var headIdent string
	catchAll := false

	for _, cs := range ex.Cases {
		if patternIsCatchAll(cs.Pattern) {
			catchAll = true
			break
		}
		ident, ok := constructorIdent(cs.Pattern)
		if !ok {
			// A literal or tuple/array pattern: exhaustiveness over an
			// unbounded or structural domain isn't decidable from shape
			// alone without the scrutinee's elaborated type, so we defer to
			// the catch-all check only.
			continue
		}
		seen[ident] = true
		if headIdent == "" {
			if td := c.typeOfConstructor(ident); td != nil {
				headIdent = td.Name
			}
		}
	}

	if catchAll || headIdent == "" {
		return
	}
	td := c.tree.TypeVars[headIdent]
	if td == nil {
		return
	}
	for _, ctor := range td.Constructors {
		if !seen[ctor.Name] {
			c.errs = append(c.errs, diagnostics.NewError(diagnostics.ErrE003, ex.Pos(), "non-exhaustive patterns"))
			return
		}
	}
}

func (c *exhaustivenessChecker) typeOfConstructor(ctorIdent string) *ast.TypeDef {
	for _, td := range c.tree.TypeVars {
		for _, ctor := range td.Constructors {
			if ctor.Name == ctorIdent {
				return td
			}
		}
	}
	return nil
}

func constructorIdent(p ast.Pattern) (string, bool) {
	switch pt := p.(type) {
	case *ast.ConstPattern:
		return pt.Ident, true
	case *ast.UnnamedFieldConPattern:
		return pt.Ident, true
	case *ast.NamedFieldConPattern:
		return pt.Ident, true
	}
	return "", false
}

func patternIsCatchAll(p ast.Pattern) bool {
	switch pt := p.(type) {
	case *ast.WildcardPattern:
		return true
	case *ast.VarPattern:
		return true
	case *ast.AtPattern:
		return true
	case *ast.AsPattern:
		return true
	case *ast.AltPattern:
		return patternIsCatchAll(pt.Left) || patternIsCatchAll(pt.Right)
	}
	return false
}
