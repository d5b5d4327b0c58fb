package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vscfl/vscfl/internal/ast"
)

func TestParseTree_VariableDef(t *testing.T) {
	tree, errs := New("t.vscfl", "answer: Int = 1 + 2;").ParseTree()
	require.Empty(t, errs)
	require.Contains(t, tree.ValueVars, "answer")

	v := tree.ValueVars["answer"].(*ast.VariableDef)
	app, ok := v.Initializer.(*ast.AppExpr)
	require.True(t, ok)
	callee, ok := app.Callee.(*ast.VarExpr)
	require.True(t, ok)
	assert.Equal(t, "+", callee.Ident)
	assert.Len(t, app.Args, 2)
}

func TestParseTree_FunctionDef(t *testing.T) {
	tree, errs := New("t.vscfl", "double(x: Int) -> Int = x * 2;").ParseTree()
	require.Empty(t, errs)
	require.Contains(t, tree.ValueVars, "double")
	f := tree.ValueVars["double"].(*ast.FunctionDef)
	assert.Len(t, f.Params, 1)
	assert.Equal(t, "x", f.Params[0].Name)
}

func TestParseTree_DataDefAndMatch(t *testing.T) {
	src := `
data Option<t> = None | Some(t);
unwrapOr(o: Option<t>, default: t) -> t = o match {
	None => default;
	Some(x) => x;
};
`
	tree, errs := New("t.vscfl", src).ParseTree()
	require.Empty(t, errs)
	require.Contains(t, tree.TypeVars, "Option")
	assert.Len(t, tree.TypeVars["Option"].Constructors, 2)
	require.Contains(t, tree.ValueVars, "unwrapOr")
}

func TestParseTree_TraitAndImpl(t *testing.T) {
	src := `
trait Greet(t) {
	greet(self: t) -> Int;
}
impl Greet for Int {
	greet(self: Int) -> Int = self;
}
`
	tree, errs := New("t.vscfl", src).ParseTree()
	require.Empty(t, errs)
	require.Contains(t, tree.Traits, "Greet")
	require.Contains(t, tree.Impls, "Greet")
	require.Contains(t, tree.Impls["Greet"], "Int")
}

func TestParseTree_SyntaxErrorReported(t *testing.T) {
	_, errs := New("t.vscfl", "answer: Int = ;").ParseTree()
	assert.NotEmpty(t, errs)
}
