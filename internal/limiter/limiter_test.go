package limiter

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

func TestCheckLimits_PrivateGlobalVariableRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	v := &ast.VariableDef{Token: tok("x"), Name: "x", Modifier: ast.VarModifierPrivate}
	tree.AddDef(v)

	errs := New().CheckLimits(tree)
	require.Len(t, errs, 1)
	assert.Equal(t, "L001", errs[0].Code)
}

func TestCheckLimits_PrintfNonLiteralFirstArgRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	call := &ast.PrintfAppExpr{Args: []ast.Expr{&ast.VarExpr{Ident: "fmtVar"}}}
	v := &ast.VariableDef{Token: tok("x"), Name: "x", Initializer: call}
	tree.AddDef(v)

	errs := New().CheckLimits(tree)
	require.Len(t, errs, 1)
	assert.Equal(t, "L003", errs[0].Code)
}

func TestCheckLimits_PrintfLiteralFirstArgAccepted(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	call := &ast.PrintfAppExpr{Args: []ast.Expr{&ast.LiteralExpr{Kind: ast.LitString, Str: "hi"}}}
	v := &ast.VariableDef{Token: tok("x"), Name: "x", Initializer: call}
	tree.AddDef(v)

	errs := New().CheckLimits(tree)
	assert.Empty(t, errs)
}

func TestCheckLimits_LocalVarModifierInVarInitializerRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	letExpr := &ast.LetExpr{
		Binds: []ast.Bind{{
			Pattern: &ast.VarPattern{Modifier: ast.VarModifierLocal, Name: "y"},
			Value:   &ast.LiteralExpr{Kind: ast.LitInt, Int: 1},
		}},
		Body: &ast.VarExpr{Ident: "y"},
	}
	v := &ast.VariableDef{Token: tok("x"), Name: "x", Initializer: letExpr}
	tree.AddDef(v)

	errs := New().CheckLimits(tree)
	require.Len(t, errs, 1)
	assert.Equal(t, "L001", errs[0].Code)
}

func TestCheckLimits_KernelWithTypeParamsRejected(t *testing.T) {
	tree := ast.NewTree("t.vscfl")
	entry := make([]*struct{}, 0)
	_ = entry
	f := &ast.FunctionDef{
		Token:    tok("f"),
		Name:     "f",
		Modifier: ast.FunModifierKernel,
	}
	f.Type.ParamEntries = append(f.Type.ParamEntries, nil)
	tree.AddDef(f)

	errs := New().CheckLimits(tree)
	// A top-level kernel function with a type parameter is rejected here.
	require.Len(t, errs, 1)
	assert.Equal(t, "L002", errs[0].Code)
}
