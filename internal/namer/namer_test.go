package namer

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

func TestRun_UnresolvedIdentifierRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	v := &ast.VariableDef{Token: tok("a"), Name: "a", Initializer: &ast.VarExpr{Ident: "doesNotExist"}}
	tree.AddDef(v)

	errs := New(tree).Run()
	require.Len(t, errs, 1)
	assert.Equal(t, "N001", errs[0].Code)
}

func TestRun_DuplicateVariableRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	tree.AddDef(&ast.VariableDef{Token: tok("a"), Name: "a", Initializer: &ast.LiteralExpr{Kind: ast.LitInt, Int: 1}})
	tree.AddDef(&ast.VariableDef{Token: tok("a"), Name: "a", Initializer: &ast.LiteralExpr{Kind: ast.LitInt, Int: 2}})

	errs := New(tree).Run()
	require.Len(t, errs, 1)
	assert.Equal(t, "N002", errs[0].Code)
}

func TestRun_FieldIndexPopulatedFromNamedFields(t *testing.T) {
	typeDef := &ast.TypeDef{
		Token: tok("T"),
		Name:  "T",
		Constructors: []*ast.DataConstructor{{
			Token: tok("C"),
			Name:  "C",
			NamedFields: []ast.NamedField{
				{Name: "x", Type: &ast.NamedTypeExpr{Name: "Int"}},
				{Name: "y", Type: &ast.NamedTypeExpr{Name: "Int"}},
			},
		}},
	}
	tree := ast.NewTree("t.vscfl")
	tree.AddDef(typeDef)

	errs := New(tree).Run()
	require.Empty(t, errs)
	assert.Equal(t, 0, typeDef.Constructors[0].FieldIndex["x"])
	assert.Equal(t, 1, typeDef.Constructors[0].FieldIndex["y"])
}

func TestRun_LambdaParamsResolve(t *testing.T) {
	lambda := &ast.LambdaExpr{
		Params: []*ast.Param{{Name: "z"}},
		Body:   &ast.VarExpr{Ident: "z"},
	}
	tree := ast.NewTree("t.vscfl")
	tree.AddDef(&ast.VariableDef{Token: tok("a"), Name: "a", Initializer: lambda})

	errs := New(tree).Run()
	assert.Empty(t, errs)
}
