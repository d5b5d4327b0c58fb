package typer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/token"
	"github.com/vscfl/vscfl/internal/typesystem"
)

func tok(lex string) token.Token {
	return token.Token{Lexeme: lex, Pos: token.NewPos("t.vscfl", 1, 1)}
}

func intLit(n int64) *ast.LiteralExpr { return &ast.LiteralExpr{Kind: ast.LitInt, Int: n} }

func TestElaborateVariable_LiteralMatchesDeclaredType(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	v := &ast.VariableDef{
		Token:          tok("a"),
		Name:           "a",
		TypeAnnotation: &ast.NamedTypeExpr{Name: "Int"},
		Initializer:    intLit(1),
	}
	tree.AddDef(v)

	errs := New(tree).ElaborateAll()
	require.Empty(t, errs)
	cv, ok := v.Type.Value.(typesystem.ConcreteValue)
	require.True(t, ok)
	assert.Equal(t, "Int", cv.Name.Ident)
}

func TestElaborateVariable_MismatchedDeclaredTypeRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	v := &ast.VariableDef{
		Token:          tok("a"),
		Name:           "a",
		TypeAnnotation: &ast.NamedTypeExpr{Name: "Bool"},
		Initializer:    intLit(1),
	}
	tree.AddDef(v)

	errs := New(tree).ElaborateAll()
	require.Len(t, errs, 1)
	assert.Equal(t, "T001", errs[0].Code)
}

func TestElaborateFunction_ParamFlowsToResult(t *testing.T) {
	// f(x: Int) -> Int = x;
	tree := ast.NewTree("t.vscfl")
	f := &ast.FunctionDef{
		Token:      tok("f"),
		Name:       "f",
		Params:     []*ast.Param{{Name: "x", Type: &ast.NamedTypeExpr{Name: "Int"}}},
		ResultType: &ast.NamedTypeExpr{Name: "Int"},
		Body:       &ast.VarExpr{Ident: "x"},
	}
	tree.AddDef(f)

	errs := New(tree).ElaborateAll()
	require.Empty(t, errs)
}

func TestElaborateVariable_StructInitializerFieldTypesChecked(t *testing.T) {
	typeDef := &ast.TypeDef{
		Token: tok("T"),
		Name:  "T",
		Constructors: []*ast.DataConstructor{{
			Token:       tok("C"),
			Name:        "C",
			NamedFields: []ast.NamedField{{Name: "x", Type: &ast.NamedTypeExpr{Name: "Int"}}},
			FieldIndex:  map[string]int{"x": 0},
		}},
	}
	tree := ast.NewTree("t.vscfl")
	tree.AddDef(typeDef)

	con := &ast.NamedFieldConAppExpr{ConstructorIdent: "C", Fields: []ast.NamedFieldExprPair{{Name: "x", Expr: intLit(1)}}}
	e := &ast.VariableDef{Token: tok("e"), Name: "e", Initializer: con}
	tree.AddDef(e)

	errs := New(tree).ElaborateAll()
	require.Empty(t, errs)
	cv, ok := e.Type.Value.(typesystem.ConcreteValue)
	require.True(t, ok)
	assert.Equal(t, "T", cv.Name.Ident)
}
