package instancer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/ast"
	"github.com/vscfl/vscfl/internal/token"
	"github.com/vscfl/vscfl/internal/typer"
)

func tok(lex string) token.Token {
	return token.Token{Lexeme: lex, Pos: token.NewPos("t.vscfl", 1, 1)}
}

func TestRunAll_MonomorphicVariableInstantiatedOnce(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	v := &ast.VariableDef{
		Token:          tok("a"),
		Name:           "a",
		TypeAnnotation: &ast.NamedTypeExpr{Name: "Int"},
		Initializer:    &ast.LiteralExpr{Kind: ast.LitInt, Int: 1},
	}
	tree.AddDef(v)

	ty := typer.New(tree)
	require.Empty(t, ty.ElaborateAll())

	in := New(tree, ty)
	errs := in.RunAll()
	require.Empty(t, errs)
	assert.Len(t, in.Done, 1)
}

func TestRunAll_NoGenericEntryPointsYieldsEmptyRegistry(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	ty := typer.New(tree)
	in := New(tree, ty)
	errs := in.RunAll()
	require.Empty(t, errs)
	assert.Empty(t, in.Done)
}
