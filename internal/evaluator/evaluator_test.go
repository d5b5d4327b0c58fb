package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/token"
)

func tok(lex string) token.Token {
	return token.Token{Lexeme: lex, Pos: token.NewPos("t.vscfl", 1, 1)}
}

func intLit(n int64) *ast.LiteralExpr { return &ast.LiteralExpr{Kind: ast.LitInt, Int: n} }

func appOp(op string, args ...ast.Expr) *ast.AppExpr {
	return &ast.AppExpr{Callee: &ast.VarExpr{Ident: op}, Args: args}
}

func TestEvaluateAll_FoldsArithmetic(t *testing.T) {
	// a: Int = 1 + 2;
	tree := ast.NewTree("t.vscfl")
	a := &ast.VariableDef{Token: tok("a"), Name: "a", Initializer: appOp("+", intLit(1), intLit(2))}
	tree.AddDef(a)

	errs := New(tree).EvaluateAll()
	require.Empty(t, errs)
	require.NotNil(t, a.Value)
	assert.Equal(t, IntValue(3), a.Value)
}

func TestEvaluateAll_StructInitializer(t *testing.T) {
	// data T = C { x: Int, y: Float, z: Int }; e: T = C { x: 1, y: 1.5, z: 2 };
	typeDef := &ast.TypeDef{
		Token: tok("T"),
		Name:  "T",
		Constructors: []*ast.DataConstructor{{
			Token: tok("C"),
			Name:  "C",
			NamedFields: []ast.NamedField{
				{Name: "x", Type: &ast.NamedTypeExpr{Name: "Int"}},
				{Name: "y", Type: &ast.NamedTypeExpr{Name: "Float"}},
				{Name: "z", Type: &ast.NamedTypeExpr{Name: "Int"}},
			},
			FieldIndex: map[string]int{"x": 0, "y": 1, "z": 2},
		}},
	}
	tree := ast.NewTree("t.vscfl")
	tree.AddDef(typeDef)

	con := &ast.NamedFieldConAppExpr{
		ConstructorIdent: "C",
		Fields: []ast.NamedFieldExprPair{
			{Name: "x", Expr: intLit(1)},
			{Name: "y", Expr: &ast.LiteralExpr{Kind: ast.LitFloat, Float: 1.5}},
			{Name: "z", Expr: intLit(2)},
		},
	}
	e := &ast.VariableDef{Token: tok("e"), Name: "e", Initializer: con}
	tree.AddDef(e)

	errs := New(tree).EvaluateAll()
	require.Empty(t, errs)
	got, ok := e.Value.(DataObj)
	require.True(t, ok)
	assert.Equal(t, "C", got.Constructor)
	assert.Equal(t, []Value{IntValue(1), FloatValue(1.5), IntValue(2)}, got.Args)
}

func TestEvaluateAll_LambdaCapturesClosure(t *testing.T) {
	// a: (Int)->Int = let x=1; y=2; in |z| x+y+z;
	lambda := &ast.LambdaExpr{
		Params: []*ast.Param{{Name: "z"}},
		Body:   appOp("+", appOp("+", &ast.VarExpr{Ident: "x"}, &ast.VarExpr{Ident: "y"}), &ast.VarExpr{Ident: "z"}),
	}
	letExpr := &ast.LetExpr{
		Binds: []ast.Bind{
			{Pattern: &ast.VarPattern{Name: "x"}, Value: intLit(1)},
			{Pattern: &ast.VarPattern{Name: "y"}, Value: intLit(2)},
		},
		Body: lambda,
	}
	tree := ast.NewTree("t.vscfl")
	a := &ast.VariableDef{Token: tok("a"), Name: "a", Initializer: letExpr}
	tree.AddDef(a)

	errs := New(tree).EvaluateAll()
	require.Empty(t, errs)
	got, ok := a.Value.(LambdaObj)
	require.True(t, ok)
	assert.Equal(t, "a", got.Owner)
	assert.Equal(t, 0, got.LocalFunIdx)
	require.NotNil(t, got.Captured)
	assert.Equal(t, IntValue(1), got.Captured.Bindings["x"])
	assert.Equal(t, IntValue(2), got.Captured.Bindings["y"])
}

func TestEvaluateAll_RecursionCascadeOrder(t *testing.T) {
	// a: Int = b; b: Int = a;
	tree := ast.NewTree("t.vscfl")
	a := &ast.VariableDef{Token: tok("a"), Name: "a", Initializer: &ast.VarExpr{Ident: "b"}}
	b := &ast.VariableDef{Token: tok("b"), Name: "b", Initializer: &ast.VarExpr{Ident: "a"}}
	tree.AddDef(a)
	tree.AddDef(b)

	errs := New(tree).EvaluateAll()
	require.Len(t, errs, 3)
	assert.Equal(t, "E001", errs[0].Code)
	assert.Equal(t, "E002", errs[1].Code)
	assert.Equal(t, "E002", errs[2].Code)
}

func TestCheckExhaustiveness_NonExhaustiveMatchRejected(t *testing.T) {
	// data T = C(Int,Float) | D(Int) | E();
	// a: Int = C(1,1.5) match { C(1,_) => 1; C(_,_) => 2; };
	typeDef := &ast.TypeDef{
		Token: tok("T"),
		Name:  "T",
		Constructors: []*ast.DataConstructor{
			{Token: tok("C"), Name: "C", Fields: []ast.TypeExpr{&ast.NamedTypeExpr{Name: "Int"}, &ast.NamedTypeExpr{Name: "Float"}}},
			{Token: tok("D"), Name: "D", Fields: []ast.TypeExpr{&ast.NamedTypeExpr{Name: "Int"}}},
			{Token: tok("E"), Name: "E"},
		},
	}
	tree := ast.NewTree("t.vscfl")
	tree.AddDef(typeDef)

	scrutinee := &ast.NamedFieldConAppExpr{ConstructorIdent: "C"} // shape is irrelevant to the exhaustiveness check
	match := &ast.MatchExpr{
		Scrutinee: scrutinee,
		Cases: []ast.Case{
			{Pattern: &ast.UnnamedFieldConPattern{Ident: "C", Elems: []ast.Pattern{
				&ast.LiteralPattern{Kind: ast.LitInt, Int: 1}, &ast.WildcardPattern{},
			}}, Value: intLit(1)},
			{Pattern: &ast.UnnamedFieldConPattern{Ident: "C", Elems: []ast.Pattern{
				&ast.WildcardPattern{}, &ast.WildcardPattern{},
			}}, Value: intLit(2)},
		},
	}
	a := &ast.VariableDef{Token: tok("a"), Name: "a", Initializer: match}
	tree.AddDef(a)

	errs := CheckExhaustiveness(tree)
	require.Len(t, errs, 1)
	assert.Equal(t, "E003", errs[0].Code)
}
