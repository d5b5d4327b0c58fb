package ast

import (
	"github.com/vscfl/vscfl/internal/token"
	"github.com/vscfl/vscfl/internal/typesystem"
)

// EvaluatedValue is the marker interface implemented by the evaluator's
// Value type (spec.md §3.4). Kept as an interface here, rather than a
// concrete dependency on internal/evaluator, to preserve the dependency
// order Error -> Tree -> Mangler -> Type Stack -> Type Matcher -> Typer ->
// Instancer -> Evaluator (spec.md §2) without an import cycle.
type EvaluatedValue interface {
	IsEvaluatedValue()
}

// Expr is an expression node (spec.md §3.1).
type Expr interface {
	Node
	expressionNode()
	TypeOf() typesystem.LocalType
	SetTypeOf(typesystem.LocalType)
}

// ExprBase is the common header embedded by every Expr node: its primary
// token (for diagnostics) and its assigned local type (spec.md §4.2/§4.3).
// Exported so the parser package can construct nodes directly via
// NewExprBase.
type ExprBase struct {
	Token token.Token
	Local typesystem.LocalType
}

// NewExprBase builds the Expr header for a node whose primary token is t.
func NewExprBase(t token.Token) ExprBase { return ExprBase{Token: t} }

func (e *ExprBase) expressionNode()                 {}
func (e *ExprBase) GetToken() token.Token            { return e.Token }
func (e *ExprBase) Pos() token.Pos                   { return e.Token.Pos }
func (e *ExprBase) TypeOf() typesystem.LocalType     { return e.Local }
func (e *ExprBase) SetTypeOf(lt typesystem.LocalType) { e.Local = lt }

// LiteralKind discriminates a literal expression/pattern's scalar shape.
type LiteralKind int

const (
	LitBool LiteralKind = iota
	LitChar
	LitShort
	LitInt
	LitLong
	LitUShort
	LitUInt
	LitULong
	LitHalf
	LitFloat
	LitDouble
	LitString
	LitTuple
	LitArray
	LitFilledArray
)

// LiteralExpr is a literal value (spec.md §4.3 "Literals fix the slot to
// the literal's built-in type").
type LiteralExpr struct {
	ExprBase
	Kind   LiteralKind
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Fields []Expr // Tuple
	Elems  []Expr // Array
	Filled Expr   // FilledArray element
	Len    int    // FilledArray length
}

// LambdaExpr is `|params| body` (spec.md §4.3 "Lambdas").
type LambdaExpr struct {
	ExprBase
	Params   []*Param
	Body     Expr
	LocalFun LocalFun // assigned by the typer, naming this lambda within its owner
}

// VarExpr references an identifier resolved by the namer to a value
// variable, constructor, or trait method (spec.md §2.2).
type VarExpr struct {
	ExprBase
	Ident   string
	TypeArgs []TypeExpr // explicit instantiation, e.g. `f<Int>`
}

// NamedFieldConAppExpr is `C { x: e1, y: e2, ... }` (spec.md §3.1 data constructor).
type NamedFieldConAppExpr struct {
	ExprBase
	ConstructorIdent string
	Fields           []NamedFieldExprPair
}

// NamedFieldExprPair is one `ident: expr` pair in a named-field constructor application.
type NamedFieldExprPair struct {
	Name string
	Expr Expr
}

// PrintfAppExpr is `printf(fmt, args...)`; the limiter requires fmt to be a
// literal (spec.md §2.7, §7 ErrL003).
type PrintfAppExpr struct {
	ExprBase
	Args []Expr
}

// AppExpr is function application `f(a1, ..., an)` (spec.md §4.3 "Application").
type AppExpr struct {
	ExprBase
	Callee Expr
	Args   []Expr
}

// FieldRef names a field by position (unnamed-field constructor) or ident
// (named-field constructor/tuple).
type FieldRef struct {
	Index *int
	Name  string
}

// GetFieldExpr is a plain field read `e.f` (spec.md §4.3 "Field access").
type GetFieldExpr struct {
	ExprBase
	Recv  Expr
	Field FieldRef
}

// Get2FieldExpr is the affine read-and-move `e.f ->`, producing
// (field_value, e') (spec.md §4.3).
type Get2FieldExpr struct {
	ExprBase
	Recv  Expr
	Field FieldRef
}

// SetFieldExpr is `e.f <- v`, writing the field in place (spec.md §4.3).
type SetFieldExpr struct {
	ExprBase
	Recv  Expr
	Field FieldRef
	Value Expr
}

// UpdateFieldExpr is `e.f <-> g`: applies g to the field and writes the
// result back (spec.md §4.3).
type UpdateFieldExpr struct {
	ExprBase
	Recv  Expr
	Field FieldRef
	Fn    Expr
}

// UpdateGet2FieldExpr is `e.f <-> -> g`: like UpdateFieldExpr but also
// returns the previous value (spec.md §4.3).
type UpdateGet2FieldExpr struct {
	ExprBase
	Recv  Expr
	Field FieldRef
	Fn    Expr
}

// UniqExpr is `uniq e`, forcing the slot's uniqueness flag (spec.md §4.3).
type UniqExpr struct {
	ExprBase
	Elem Expr
}

// SharedExpr is `shared e`; fails if the matcher cannot set_shared on the slot.
type SharedExpr struct {
	ExprBase
	Elem Expr
}

// TypedExpr is `e: T` (spec.md §4.3 "Typed expression").
type TypedExpr struct {
	ExprBase
	Elem Expr
	Type TypeExpr
}

// AsExpr is `e as T`, a primitive numeric/vector cast (spec.md §4.3 "Cast").
type AsExpr struct {
	ExprBase
	Elem Expr
	Type TypeExpr
}

// IfExpr is `if cond { then } else { else }`.
type IfExpr struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr
}

// Bind is one `pattern = expr` binding in a `let` (spec.md §4.3 "Let/match").
type Bind struct {
	Pattern Pattern
	Value   Expr
}

// LetExpr is `let b1; b2; ... in body`.
type LetExpr struct {
	ExprBase
	Binds []Bind
	Body  Expr
}

// Case is one `pattern => expr` arm of a match.
type Case struct {
	Pattern Pattern
	Value   Expr
}

// MatchExpr is `scrutinee match { case1; case2; ... }` (spec.md §4.3, §4.5).
type MatchExpr struct {
	ExprBase
	Scrutinee Expr
	Cases     []Case
}
