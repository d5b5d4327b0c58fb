package ast

import "github.com/vscfl/vscfl/internal/token"

// TypeExpr is a syntactic type expression, evaluated by the typer into a
// typesystem.Type (spec.md §3.2).
type TypeExpr interface {
	Node
	typeExprNode()
}

// NamedTypeExpr is `Name` or `Name<arg, ...>` (spec.md §3.2 Name(ident)).
type NamedTypeExpr struct {
	Token token.Token
	Name  string
	Args  []TypeExpr
}

func (t *NamedTypeExpr) typeExprNode()       {}
func (t *NamedTypeExpr) GetToken() token.Token { return t.Token }
func (t *NamedTypeExpr) Pos() token.Pos       { return t.Token.Pos }

// TupleTypeExpr is `(T1, T2, ...)`.
type TupleTypeExpr struct {
	Token  token.Token
	Fields []TypeExpr
}

func (t *TupleTypeExpr) typeExprNode()       {}
func (t *TupleTypeExpr) GetToken() token.Token { return t.Token }
func (t *TupleTypeExpr) Pos() token.Pos       { return t.Token.Pos }

// ArrayTypeExpr is `[T; len]` or `[T; _]` (unknown length, spec.md §3.2).
type ArrayTypeExpr struct {
	Token token.Token
	Elem  TypeExpr
	Len   *int // nil means "_"
}

func (t *ArrayTypeExpr) typeExprNode()       {}
func (t *ArrayTypeExpr) GetToken() token.Token { return t.Token }
func (t *ArrayTypeExpr) Pos() token.Pos       { return t.Token.Pos }

// FunTypeExpr is `(T1, ..., Tn) -> R` (spec.md §3.2 Fun).
type FunTypeExpr struct {
	Token  token.Token
	Params []TypeExpr
	Result TypeExpr
}

func (t *FunTypeExpr) typeExprNode()       {}
func (t *FunTypeExpr) GetToken() token.Token { return t.Token }
func (t *FunTypeExpr) Pos() token.Pos       { return t.Token.Pos }

// ParamTypeExpr is a bare type-parameter reference, e.g. `t` in `t -> t`.
type ParamTypeExpr struct {
	Token token.Token
	Name  string
	Uniq  bool
}

func (t *ParamTypeExpr) typeExprNode()       {}
func (t *ParamTypeExpr) GetToken() token.Token { return t.Token }
func (t *ParamTypeExpr) Pos() token.Pos       { return t.Token.Pos }

// UniqTypeExpr wraps a type expression as unique, e.g. `uniq T`.
type UniqTypeExpr struct {
	Token token.Token
	Elem  TypeExpr
}

func (t *UniqTypeExpr) typeExprNode()       {}
func (t *UniqTypeExpr) GetToken() token.Token { return t.Token }
func (t *UniqTypeExpr) Pos() token.Pos       { return t.Token.Pos }
